// Package auth trusts the identity headers set by the upstream gateway and
// enforces the role a route needs.
package auth

import (
	"context"
	"log/slog"
	"net/http"

	"coach-schedule/pkg/response"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const (
	HeaderCoachID = "X-Coach-ID"
	HeaderRole    = "X-Role"

	RoleAdmin = "admin"
	RoleCoach = "coach"
)

type ctxKey struct{}

type Identity struct {
	CoachID string
	Role    string
}

// Require admits requests whose role is one of roles and stores the identity
// in the request context.
func Require(log *slog.Logger, roles ...string) func(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		log := log.With(slog.String("component", "middleware/auth"))

		fn := func(w http.ResponseWriter, r *http.Request) {
			id := Identity{
				CoachID: r.Header.Get(HeaderCoachID),
				Role:    r.Header.Get(HeaderRole),
			}

			if id.CoachID == "" || id.Role == "" {
				log.Warn("missing identity", slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error(string(response.UNAUTHORIZED), "authentication required"))
				return
			}

			if _, ok := allowed[id.Role]; !ok {
				log.Warn("role not allowed",
					slog.String("role", id.Role),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error(string(response.FORBIDDEN), "forbidden"))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		}

		return http.HandlerFunc(fn)
	}
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// CoachID returns the authenticated coach, or "" outside Require.
func CoachID(ctx context.Context) string {
	id, _ := FromContext(ctx)
	return id.CoachID
}

// WithIdentity is used by tests to call handlers without the middleware.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}
