package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"coach-schedule/api"
	"coach-schedule/internal/http-server/respond"
	"coach-schedule/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type RuleLister interface {
	ListRules(ctx context.Context, activeOnly bool) ([]api.RuleResponse, error)
}

type Response struct {
	response.Response
	Rules []api.RuleResponse `json:"rules"`
}

// New serves GET /rules. ?active=true limits the list to active rules.
func New(log *slog.Logger, lister RuleLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.rules.list.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		activeOnly := false
		if v := r.URL.Query().Get("active"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				respond.Fail(w, r, log, response.NewFieldError("active", "must be true or false"), "list rules")
				return
			}
			activeOnly = parsed
		}

		rules, err := lister.ListRules(r.Context(), activeOnly)
		if err != nil {
			respond.Fail(w, r, log, err, "list rules")
			return
		}

		render.JSON(w, r, Response{Rules: rules})
	}
}
