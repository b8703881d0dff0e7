package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequire(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen string
	h := Require(log, RoleCoach, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CoachID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	admin := Require(log, RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		handler http.Handler
		coach   string
		role    string
		status  int
	}{
		{"coach allowed", h, "c1", RoleCoach, http.StatusNoContent},
		{"admin allowed on coach route", h, "a1", RoleAdmin, http.StatusNoContent},
		{"missing identity", h, "", "", http.StatusUnauthorized},
		{"missing role", h, "c1", "", http.StatusUnauthorized},
		{"coach on admin route", admin, "c1", RoleCoach, http.StatusForbidden},
		{"unknown role", h, "c1", "parent", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me/dashboard", nil)
			if tt.coach != "" {
				req.Header.Set(HeaderCoachID, tt.coach)
			}
			if tt.role != "" {
				req.Header.Set(HeaderRole, tt.role)
			}
			rec := httptest.NewRecorder()

			tt.handler.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
		})
	}

	require.Equal(t, "a1", seen)
}
