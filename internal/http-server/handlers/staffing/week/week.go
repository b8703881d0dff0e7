package week

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

type WeekStaffer interface {
	StaffingWeek(ctx context.Context, week string) (*api.StaffingWeek, error)
}

type Response struct {
	response.Response
	api.StaffingWeek
}

func New(log *slog.Logger, staffer WeekStaffer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.staffing.week.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		week, err := staffer.StaffingWeek(r.Context(), r.URL.Query().Get("week"))
		if err != nil {
			respond.Fail(w, r, log, err, "get staffing week")
			return
		}

		render.JSON(w, r, Response{StaffingWeek: *week})
	}
}
