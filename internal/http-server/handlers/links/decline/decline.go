package decline

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

type SessionLinkDecliner interface {
	DeclineSessionLink(ctx context.Context, sessionID, raw, reason string) (*api.LinkResult, error)
}

type DayLinkDecliner interface {
	DeclineDayLink(ctx context.Context, day, raw, reason string) (*api.LinkResult, error)
}

type Request struct {
	api.DeclineRequest
}

type Response struct {
	response.Response
	api.LinkResult
}

// NewSession serves /links/sessions/{id}/decline/{token}.
func NewSession(log *slog.Logger, decliner SessionLinkDecliner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.links.decline.NewSession"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		reason, ok := readReason(w, r, log)
		if !ok {
			return
		}

		result, err := decliner.DeclineSessionLink(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "token"), reason)
		if err != nil {
			respond.Fail(w, r, log, err, "decline session")
			return
		}

		log.Info("Session declined from link")

		render.JSON(w, r, Response{LinkResult: *result})
	}
}

// NewDay serves /links/days/{date}/decline/{token}.
func NewDay(log *slog.Logger, decliner DayLinkDecliner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.links.decline.NewDay"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		reason, ok := readReason(w, r, log)
		if !ok {
			return
		}

		result, err := decliner.DeclineDayLink(r.Context(), chi.URLParam(r, "date"), chi.URLParam(r, "token"), reason)
		if err != nil {
			respond.Fail(w, r, log, err, "decline day")
			return
		}

		log.Info("Day declined from link", slog.Int("sessions", result.Sessions))

		render.JSON(w, r, Response{LinkResult: *result})
	}
}

// readReason takes the reason from a JSON body on POST, or from ?reason= on GET.
func readReason(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	var req Request

	if r.Method == http.MethodGet {
		req.Reason = r.URL.Query().Get("reason")
		return req.Reason, respond.Validate(w, r, log, &req)
	}

	if !respond.DecodeOptional(w, r, log, &req) {
		return "", false
	}

	return req.Reason, true
}
