package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimit(t *testing.T) {
	rl := New(1, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/calendar/x", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, call("10.0.0.1:1000"))
	require.Equal(t, http.StatusNoContent, call("10.0.0.1:1001"))
	require.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:1002"))

	// other clients have their own budget
	require.Equal(t, http.StatusNoContent, call("10.0.0.2:1000"))

	now = now.Add(time.Second)
	require.Equal(t, http.StatusNoContent, call("10.0.0.1:1003"))
}

func TestIdleVisitorsDropped(t *testing.T) {
	rl := New(1, 1, slog.New(slog.NewTextHandler(io.Discard, nil)))
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("a")
	require.Len(t, rl.visitors, 1)

	now = now.Add(idleTTL + time.Second)
	rl.getLimiter("b")
	require.Len(t, rl.visitors, 1)
	require.Contains(t, rl.visitors, "b")
}
