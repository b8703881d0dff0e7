package list

import (
	"context"
	"log/slog"
	"net/http"

	"coach-schedule/api"
	"coach-schedule/internal/http-server/respond"
	"coach-schedule/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type DayLister interface {
	ListDay(ctx context.Context, day string) ([]api.SessionResponse, error)
}

type Response struct {
	response.Response
	Sessions []api.SessionResponse `json:"sessions"`
}

func New(log *slog.Logger, lister DayLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.list.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		sessions, err := lister.ListDay(r.Context(), r.URL.Query().Get("date"))
		if err != nil {
			respond.Fail(w, r, log, err, "list sessions")
			return
		}

		render.JSON(w, r, Response{Sessions: sessions})
	}
}
