package rules

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"coach-schedule/api"
	"coach-schedule/internal/http-server/middleware/auth"
	"coach-schedule/internal/http-server/respond"
	"coach-schedule/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type RuleAvailabilityGetter interface {
	RuleAvailability(ctx context.Context, coachID string, year, month int) (*api.RuleAvailabilityMonth, error)
}

type Response struct {
	response.Response
	api.RuleAvailabilityMonth
}

func New(log *slog.Logger, getter RuleAvailabilityGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.rules.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		coachID := auth.CoachID(r.Context())
		if !respond.Param(w, r, log, "coach_id", coachID) {
			return
		}

		query := r.URL.Query()
		year, err := strconv.Atoi(query.Get("year"))
		if err != nil {
			respond.Fail(w, r, log, response.NewFieldError("year", "must be a number"), "get rule availability")
			return
		}
		month, err := strconv.Atoi(query.Get("month"))
		if err != nil {
			respond.Fail(w, r, log, response.NewFieldError("month", "must be a number"), "get rule availability")
			return
		}

		out, err := getter.RuleAvailability(r.Context(), coachID, year, month)
		if err != nil {
			respond.Fail(w, r, log, err, "get rule availability")
			return
		}

		render.JSON(w, r, Response{RuleAvailabilityMonth: *out})
	}
}
