package assign

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coach-schedule/api"
	"coach-schedule/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type fakeAssigner struct {
	req *api.AssignRequest
	err error
}

func (f *fakeAssigner) AssignCoaches(_ context.Context, sessionID string, req *api.AssignRequest) (*api.AssignResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &api.AssignResponse{
		Staffing: api.SessionStaffing{
			Session:  api.SessionResponse{ID: sessionID},
			Assigned: []api.AssignedCoach{{CoachID: "c1"}},
		},
		Warnings: []api.Warning{{CoachID: "c1", Kind: "clash", SessionID: "s2"}},
	}, nil
}

func serve(a *fakeAssigner, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Post("/sessions/{id}/coaches", New(slog.New(slog.NewTextHandler(io.Discard, nil)), a))

	req := httptest.NewRequest(http.MethodPost, "/sessions/s1/coaches", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAssign(t *testing.T) {
	a := &fakeAssigner{}
	rec := serve(a, `{"coach_ids":["c1"],"planned_duration_minutes":45}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"c1"}, a.req.CoachIDs)
	require.Equal(t, 45, *a.req.PlannedDurationMinutes)

	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "s1", body.Staffing.Session.ID)
	require.Len(t, body.Warnings, 1)
}

func TestAssign_Invalid(t *testing.T) {
	rec := serve(&fakeAssigner{}, `{"coach_ids":["c1"],"planned_duration_minutes":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(&fakeAssigner{}, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssign_UnknownSession(t *testing.T) {
	rec := serve(&fakeAssigner{err: fmt.Errorf("service.AssignCoaches: %w", response.ErrNotFound)}, `{"coach_ids":["c1"]}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
