package delete

import (
	"context"
	"log/slog"
	"net/http"

	"coach-schedule/internal/http-server/respond"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SessionDeleter interface {
	DeleteSession(ctx context.Context, id string) error
}

func New(log *slog.Logger, deleter SessionDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.delete.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if !respond.Param(w, r, log, "id", id) {
			return
		}

		if err := deleter.DeleteSession(r.Context(), id); err != nil {
			respond.Fail(w, r, log, err, "delete session")
			return
		}

		log.Info("Session deleted", slog.String("session_id", id))

		render.NoContent(w, r)
	}
}
