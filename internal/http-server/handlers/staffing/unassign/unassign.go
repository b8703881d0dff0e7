package unassign

import (
	"context"
	"log/slog"
	"net/http"

	"coach-schedule/internal/http-server/respond"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type CoachUnassigner interface {
	UnassignCoach(ctx context.Context, sessionID, coachID string) error
}

func New(log *slog.Logger, unassigner CoachUnassigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.staffing.unassign.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if !respond.Param(w, r, log, "id", id) {
			return
		}
		coachID := chi.URLParam(r, "coachID")
		if !respond.Param(w, r, log, "coach_id", coachID) {
			return
		}

		if err := unassigner.UnassignCoach(r.Context(), id, coachID); err != nil {
			respond.Fail(w, r, log, err, "unassign coach")
			return
		}

		log.Info("Coach unassigned", slog.String("session_id", id), slog.String("coach_id", coachID))

		render.NoContent(w, r)
	}
}
