package week

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

type CoachWeeker interface {
	CoachWeek(ctx context.Context, coachID, week string) (*api.CoachWeek, error)
}

type Response struct {
	response.Response
	api.CoachWeek
}

func New(log *slog.Logger, weeker CoachWeeker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.week.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		coachID := auth.CoachID(r.Context())
		if !respond.Param(w, r, log, "coach_id", coachID) {
			return
		}

		week, err := weeker.CoachWeek(r.Context(), coachID, r.URL.Query().Get("week"))
		if err != nil {
			respond.Fail(w, r, log, err, "get availability")
			return
		}

		render.JSON(w, r, Response{CoachWeek: *week})
	}
}
