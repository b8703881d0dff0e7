package set

import (
	"context"
	"log/slog"
	"net/http"

	"coach-schedule/api"
	"coach-schedule/internal/http-server/middleware/auth"
	"coach-schedule/internal/http-server/respond"
	"coach-schedule/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AvailabilitySetter interface {
	SetSessionAvailability(ctx context.Context, coachID, sessionID string, req *api.SessionAvailabilityRequest) (*api.AvailabilityResponse, error)
}

type Request struct {
	api.SessionAvailabilityRequest
}

type Response struct {
	response.Response
	Availability api.AvailabilityResponse `json:"availability"`
}

func New(log *slog.Logger, setter AvailabilitySetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.set.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		coachID := auth.CoachID(r.Context())
		if !respond.Param(w, r, log, "coach_id", coachID) {
			return
		}
		sessionID := chi.URLParam(r, "id")
		if !respond.Param(w, r, log, "id", sessionID) {
			return
		}

		var req Request
		if !respond.Decode(w, r, log, &req) {
			return
		}

		rec, err := setter.SetSessionAvailability(r.Context(), coachID, sessionID, &req.SessionAvailabilityRequest)
		if err != nil {
			respond.Fail(w, r, log, err, "set availability")
			return
		}

		log.Info("Availability set",
			slog.String("coach_id", coachID),
			slog.String("session_id", sessionID),
			slog.String("status", rec.Status),
		)

		render.JSON(w, r, Response{Availability: *rec})
	}
}
