package create

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

type RuleCreator interface {
	CreateRule(ctx context.Context, req *api.RuleRequest) (*api.RuleResponse, error)
}

type Request struct {
	api.RuleRequest
}

type Response struct {
	response.Response
	Rule api.RuleResponse `json:"rule"`
}

func New(log *slog.Logger, creator RuleCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if !respond.Decode(w, r, log, &req) {
			return
		}

		rule, err := creator.CreateRule(r.Context(), &req.RuleRequest)
		if err != nil {
			respond.Fail(w, r, log, err, "create rule")
			return
		}

		log.Info("Rule created", slog.String("rule_id", rule.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{Rule: *rule})
	}
}
