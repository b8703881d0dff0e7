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

type RuleGetter interface {
	GetRule(ctx context.Context, id string) (*api.RuleResponse, error)
}

type Response struct {
	response.Response
	Rule api.RuleResponse `json:"rule"`
}

func New(log *slog.Logger, getter RuleGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")
		if !respond.Param(w, r, log, "id", id) {
			return
		}

		rule, err := getter.GetRule(r.Context(), id)
		if err != nil {
			respond.Fail(w, r, log, err, "get rule")
			return
		}

		render.JSON(w, r, Response{Rule: *rule})
	}
}
