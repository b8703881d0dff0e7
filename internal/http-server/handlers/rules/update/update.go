package update

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

type RuleUpdater interface {
	UpdateRule(ctx context.Context, id string, req *api.RuleRequest) (*api.RuleResponse, error)
}

type Request struct {
	api.RuleRequest
}

type Response struct {
	response.Response
	Rule api.RuleResponse `json:"rule"`
}

func New(log *slog.Logger, updater RuleUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.update.New"

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

		rule, err := updater.UpdateRule(r.Context(), id, &req.RuleRequest)
		if err != nil {
			respond.Fail(w, r, log, err, "update rule")
			return
		}

		log.Info("Rule updated", slog.String("rule_id", rule.ID))

		render.JSON(w, r, Response{Rule: *rule})
	}
}
