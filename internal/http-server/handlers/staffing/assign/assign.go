package assign

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

type CoachAssigner interface {
	AssignCoaches(ctx context.Context, sessionID string, req *api.AssignRequest) (*api.AssignResponse, error)
}

type Request struct {
	api.AssignRequest
}

type Response struct {
	response.Response
	api.AssignResponse
}

// New serves POST /sessions/{id}/coaches. Clash warnings never block the
// assignment; they are returned next to the updated staffing.
func New(log *slog.Logger, assigner CoachAssigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.staffing.assign.New"

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

		result, err := assigner.AssignCoaches(r.Context(), id, &req.AssignRequest)
		if err != nil {
			respond.Fail(w, r, log, err, "assign coaches")
			return
		}

		log.Info("Coaches assigned",
			slog.String("session_id", id),
			slog.Int("assigned", len(result.Staffing.Assigned)),
			slog.Int("warnings", len(result.Warnings)),
		)

		render.JSON(w, r, Response{AssignResponse: *result})
	}
}
