package status

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

type StatusSetter interface {
	SetSessionStatus(ctx context.Context, id string, status string) (*api.SessionResponse, error)
}

type Request struct {
	api.SessionStatusRequest
}

type Response struct {
	response.Response
	Session api.SessionResponse `json:"session"`
}

func New(log *slog.Logger, setter StatusSetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.status.New"

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

		session, err := setter.SetSessionStatus(r.Context(), id, req.Status)
		if err != nil {
			respond.Fail(w, r, log, err, "set session status")
			return
		}

		log.Info("Session status changed", slog.String("session_id", id), slog.String("status", session.Status))

		render.JSON(w, r, Response{Session: *session})
	}
}
