package get

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

type StaffingGetter interface {
	GetSessionStaffing(ctx context.Context, sessionID string) (*api.SessionStaffing, error)
}

type Response struct {
	response.Response
	Staffing api.SessionStaffing `json:"staffing"`
}

func New(log *slog.Logger, getter StaffingGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.staffing.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if !respond.Param(w, r, log, "id", id) {
			return
		}

		staffing, err := getter.GetSessionStaffing(r.Context(), id)
		if err != nil {
			respond.Fail(w, r, log, err, "get staffing")
			return
		}

		render.JSON(w, r, Response{Staffing: *staffing})
	}
}
