// Package confirm serves the confirm links sent in reminder emails. The token
// in the path is the only credential.
package confirm

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

type SessionLinkConfirmer interface {
	ConfirmSessionLink(ctx context.Context, sessionID, raw string) (*api.LinkResult, error)
}

type DayLinkConfirmer interface {
	ConfirmDayLink(ctx context.Context, day, raw string) (*api.LinkResult, error)
}

type Response struct {
	response.Response
	api.LinkResult
}

// NewSession serves GET /links/sessions/{id}/confirm/{token}.
func NewSession(log *slog.Logger, confirmer SessionLinkConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.links.confirm.NewSession"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := confirmer.ConfirmSessionLink(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "token"))
		if err != nil {
			respond.Fail(w, r, log, err, "confirm session")
			return
		}

		log.Info("Session confirmed from link")

		render.JSON(w, r, Response{LinkResult: *result})
	}
}

// NewDay serves GET /links/days/{date}/confirm/{token}.
func NewDay(log *slog.Logger, confirmer DayLinkConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.links.confirm.NewDay"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := confirmer.ConfirmDayLink(r.Context(), chi.URLParam(r, "date"), chi.URLParam(r, "token"))
		if err != nil {
			respond.Fail(w, r, log, err, "confirm day")
			return
		}

		log.Info("Day confirmed from link", slog.Int("sessions", result.Sessions))

		render.JSON(w, r, Response{LinkResult: *result})
	}
}
