package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"coach-schedule/api"
	"coach-schedule/internal/http-server/respond"
	"coach-schedule/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SessionCanceller interface {
	CancelSession(ctx context.Context, id string, cancelled bool) (*api.SessionResponse, error)
}

type Request struct {
	api.CancelRequest
}

type Response struct {
	response.Response
	Session api.SessionResponse `json:"session"`
}

func New(log *slog.Logger, canceller SessionCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.cancel.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if !respond.Param(w, r, log, "id", id) {
			return
		}

		var req Request
		if !respond.Decode(w, r, log, &req) {
			return
		}

		session, err := canceller.CancelSession(r.Context(), id, *req.Cancelled)
		if err != nil {
			respond.Fail(w, r, log, err, "cancel session")
			return
		}

		log.Info("Session cancellation changed",
			slog.String("session_id", session.ID),
			slog.Bool("cancelled", session.IsCancelled),
		)

		render.JSON(w, r, Response{Session: *session})
	}
}
