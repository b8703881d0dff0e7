package create

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

type SessionCreator interface {
	CreateSession(ctx context.Context, req *api.SessionRequest) (*api.SessionResponse, error)
}

type Request struct {
	api.SessionRequest
}

type Response struct {
	response.Response
	Session api.SessionResponse `json:"session"`
}

func New(log *slog.Logger, creator SessionCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if !respond.Decode(w, r, log, &req) {
			return
		}

		session, err := creator.CreateSession(r.Context(), &req.SessionRequest)
		if err != nil {
			respond.Fail(w, r, log, err, "create session")
			return
		}

		log.Info("Session created", slog.String("session_id", session.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Session: *session})
	}
}
