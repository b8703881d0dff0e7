package token

import (
	"context"
	"log/slog"
	"net/http"

	"coach-schedule/api"
	"coach-schedule/internal/http-server/middleware/auth"
	"coach-schedule/internal/http-server/respond"
	"coach-schedule/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type LinkIssuer interface {
	CalendarLink(ctx context.Context, coachID string) (*api.CalendarLink, error)
}

type Response struct {
	response.Response
	api.CalendarLink
}

func New(log *slog.Logger, issuer LinkIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.calendar.token.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		coachID := auth.CoachID(r.Context())
		if !respond.Param(w, r, log, "coach_id", coachID) {
			return
		}

		link, err := issuer.CalendarLink(r.Context(), coachID)
		if err != nil {
			respond.Fail(w, r, log, err, "issue calendar link")
			return
		}

		render.JSON(w, r, Response{CalendarLink: *link})
	}
}
