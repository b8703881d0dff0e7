package confirm

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

type SessionConfirmer interface {
	DashboardConfirm(ctx context.Context, coachID, sessionID string) (*api.AvailabilityResponse, error)
}

type Response struct {
	response.Response
	Availability api.AvailabilityResponse `json:"availability"`
}

func New(log *slog.Logger, confirmer SessionConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.confirm.New"

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

		rec, err := confirmer.DashboardConfirm(r.Context(), coachID, sessionID)
		if err != nil {
			respond.Fail(w, r, log, err, "confirm session")
			return
		}

		log.Info("Session confirmed", slog.String("coach_id", coachID), slog.String("session_id", sessionID))

		render.JSON(w, r, Response{Availability: *rec})
	}
}
