package get

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

type DashboardGetter interface {
	Dashboard(ctx context.Context, coachID string) (*api.Dashboard, error)
}

type Response struct {
	response.Response
	api.Dashboard
}

func New(log *slog.Logger, getter DashboardGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.dashboard.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		coachID := auth.CoachID(r.Context())
		if !respond.Param(w, r, log, "coach_id", coachID) {
			return
		}

		dashboard, err := getter.Dashboard(r.Context(), coachID)
		if err != nil {
			respond.Fail(w, r, log, err, "get dashboard")
			return
		}

		render.JSON(w, r, Response{Dashboard: *dashboard})
	}
}
