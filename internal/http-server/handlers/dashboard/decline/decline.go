package decline

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

type SessionDecliner interface {
	DashboardDecline(ctx context.Context, coachID, sessionID, reason string) (*api.AvailabilityResponse, error)
}

type Request struct {
	api.DeclineRequest
}

type Response struct {
	response.Response
	Availability api.AvailabilityResponse `json:"availability"`
}

// New serves POST /me/sessions/{id}/decline. The body and its reason are optional.
func New(log *slog.Logger, decliner SessionDecliner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.decline.New"

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
		if !respond.DecodeOptional(w, r, log, &req) {
			return
		}

		rec, err := decliner.DashboardDecline(r.Context(), coachID, sessionID, req.Reason)
		if err != nil {
			respond.Fail(w, r, log, err, "decline session")
			return
		}

		log.Info("Session declined", slog.String("coach_id", coachID), slog.String("session_id", sessionID))

		render.JSON(w, r, Response{Availability: *rec})
	}
}
