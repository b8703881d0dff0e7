package bulk

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

type BulkSetter interface {
	SetBulkAvailability(ctx context.Context, coachID string, req *api.BulkAvailabilityRequest) (*api.BulkAvailabilityResult, error)
}

type Request struct {
	api.BulkAvailabilityRequest
}

type Response struct {
	response.Response
	api.BulkAvailabilityResult
}

func New(log *slog.Logger, setter BulkSetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.bulk.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		coachID := auth.CoachID(r.Context())
		if !respond.Param(w, r, log, "coach_id", coachID) {
			return
		}

		var req Request
		if !respond.Decode(w, r, log, &req) {
			return
		}

		result, err := setter.SetBulkAvailability(r.Context(), coachID, &req.BulkAvailabilityRequest)
		if err != nil {
			respond.Fail(w, r, log, err, "set bulk availability")
			return
		}

		log.Info("Bulk availability set",
			slog.String("coach_id", coachID),
			slog.Int("updated", result.Updated),
			slog.Int("skipped_explicit", result.SkippedExplicit),
		)

		render.JSON(w, r, Response{BulkAvailabilityResult: *result})
	}
}
