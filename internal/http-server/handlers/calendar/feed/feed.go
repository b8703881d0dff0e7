package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"coach-schedule/internal/http-server/respond"
	"coach-schedule/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

type FeedRenderer interface {
	CalendarFeed(ctx context.Context, raw string) (string, error)
}

// New serves GET /calendar/{token}. A trailing ".ics" is accepted so that
// calendar clients which insist on an extension can subscribe.
func New(log *slog.Logger, renderer FeedRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calendar.feed.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		raw := strings.TrimSuffix(chi.URLParam(r, "token"), ".ics")
		if !respond.Param(w, r, log, "token", raw) {
			return
		}

		body, err := renderer.CalendarFeed(r.Context(), raw)
		if err != nil {
			respond.Fail(w, r, log, err, "render calendar")
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="coaching.ics"`)
		w.WriteHeader(http.StatusOK)

		if _, err := io.WriteString(w, body); err != nil {
			log.Error("Failed to write calendar", sl.Err(err))
		}
	}
}
