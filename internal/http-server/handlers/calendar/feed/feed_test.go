package feed

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"coach-schedule/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct{ got string }

func (f *fakeFeed) CalendarFeed(_ context.Context, raw string) (string, error) {
	f.got = raw
	if raw != "good.token.sig" {
		return "", response.ErrToken
	}
	return "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", nil
}

func TestFeed(t *testing.T) {
	f := &fakeFeed{}
	r := chi.NewRouter()
	r.Get("/calendar/{token}", New(slog.New(slog.NewTextHandler(io.Discard, nil)), f))

	for _, path := range []string{"/calendar/good.token.sig", "/calendar/good.token.sig.ics"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, rec.Code, path)
		require.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
		require.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")
		require.Equal(t, "good.token.sig", f.got)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/calendar/forged", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
