package headcoach

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

type HeadCoachSetter interface {
	SetHeadCoach(ctx context.Context, sessionID string, coachID *string) (*api.SessionStaffing, error)
}

type Request struct {
	api.HeadCoachRequest
}

type Response struct {
	response.Response
	Staffing api.SessionStaffing `json:"staffing"`
}

// New serves PUT /sessions/{id}/head-coach. A null coach_id clears the head coach.
func New(log *slog.Logger, setter HeadCoachSetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.staffing.headcoach.New"

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

		staffing, err := setter.SetHeadCoach(r.Context(), id, req.CoachID)
		if err != nil {
			respond.Fail(w, r, log, err, "set head coach")
			return
		}

		log.Info("Head coach set", slog.String("session_id", id))

		render.JSON(w, r, Response{Staffing: *staffing})
	}
}
