package generate

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

type SessionGenerator interface {
	GenerateSessions(ctx context.Context, req *api.GenerateRequest) (*api.GenerateResult, error)
}

type Request struct {
	api.GenerateRequest
}

type Response struct {
	response.Response
	api.GenerateResult
}

func New(log *slog.Logger, generator SessionGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sessions.generate.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if !respond.Decode(w, r, log, &req) {
			return
		}

		result, err := generator.GenerateSessions(r.Context(), &req.GenerateRequest)
		if err != nil {
			respond.Fail(w, r, log, err, "generate sessions")
			return
		}

		log.Info("Sessions generated",
			slog.Int("created", result.Created),
			slog.Int("skipped_exists", result.SkippedExists),
			slog.Int("errors", result.Errors),
		)

		render.JSON(w, r, Response{GenerateResult: *result})
	}
}
