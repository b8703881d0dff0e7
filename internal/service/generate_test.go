package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"coach-schedule/api"
	"coach-schedule/internal/lock"
	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"

	"github.com/stretchr/testify/require"
)

func ruleSessions(t *testing.T, h *harness, ruleID string) []*models.Session {
	t.Helper()

	from := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions, err := h.store.ListRuleSessions(context.Background(), []string{ruleID}, from, to)
	require.NoError(t, err)

	return sessions
}

func TestGenerate_MondaysOfJanuary(t *testing.T) {
	h := newHarness(t)
	r := h.rule(t, groupX, 0, "10:00", nil)

	res := h.generate(t, "2026-01-01", "2026-01-31", false)

	require.Equal(t, 4, res.Created)
	require.Zero(t, res.SkippedExists)
	require.Zero(t, res.Errors)

	sessions := ruleSessions(t, h, r)
	var dates []string
	for _, s := range sessions {
		dates = append(dates, s.Date.Format(models.DateLayout))
		require.Equal(t, r, *s.SourceRuleID)
		require.Equal(t, "10:00", s.StartTime)
		require.Equal(t, 60, s.DurationMinutes)
		require.Equal(t, models.SESSION_PLANNED, s.Status)
	}
	require.Equal(t, []string{"2026-01-05", "2026-01-12", "2026-01-19", "2026-01-26"}, dates)
}

func TestGenerate_Idempotent(t *testing.T) {
	h := newHarness(t)
	r := h.rule(t, groupX, 0, "10:00", ptr(north), "c1")
	h.rule(t, groupX, 2, "17:30", nil)

	first := h.generate(t, "2026-01-01", "2026-01-31", false)
	require.Equal(t, 8, first.Created)

	before := ruleSessions(t, h, r)
	writes := h.store.assignWrites

	second := h.generate(t, "2026-01-01", "2026-01-31", false)
	require.Zero(t, second.Created)
	require.Equal(t, 8, second.SkippedExists)
	require.Zero(t, second.Errors)
	require.Empty(t, second.Details)

	require.Equal(t, before, ruleSessions(t, h, r))
	require.Equal(t, writes, h.store.assignWrites)
	require.Len(t, h.store.sessions, 8)
}

func TestGenerate_CopiesDefaultsAndRoster(t *testing.T) {
	h := newHarness(t)
	r := h.rule(t, groupX, 0, "10:00", ptr(north), "c1", "c2", "c1")

	h.generate(t, "2026-01-05", "2026-01-05", false)

	s := h.sessionOn(t, r, "2026-01-05")
	require.Equal(t, north, *s.VenueRef)
	require.Equal(t, "North Courts", *s.VenueName)
	require.Equal(t, []string{"c1", "c2"}, h.store.assigned(s.ID))
	for _, a := range h.store.assignments {
		require.Equal(t, 60, a.PlannedDurationMinutes)
		require.False(t, a.IsHeadCoach)
	}
	require.ElementsMatch(t, []string{"p1", "p2"}, h.store.attendees[s.ID])
}

func TestGenerate_ManualClashUntouched(t *testing.T) {
	h := newHarness(t)
	r := h.rule(t, groupX, 0, "10:00", nil)
	manualID := h.manual(t, "2026-01-05", "10:00", ptr(groupX), ptr(east))

	res := h.generate(t, "2026-01-01", "2026-01-31", false)

	require.Equal(t, 3, res.Created)
	require.Equal(t, 1, res.SkippedExists)
	require.Len(t, res.Details, 1)
	require.Contains(t, res.Details[0], manualID)

	manual := h.store.sessions[manualID]
	require.Nil(t, manual.SourceRuleID)
	require.Equal(t, east, *manual.VenueRef)
	require.Len(t, ruleSessions(t, h, r), 3)
	require.Len(t, h.store.sessions, 4)
}

func TestGenerate_OverwriteLinksManual(t *testing.T) {
	h := newHarness(t)
	r := h.rule(t, groupX, 0, "10:00", nil)
	manualID := h.manual(t, "2026-01-05", "10:00", ptr(groupX), nil)

	res := h.generate(t, "2026-01-05", "2026-01-05", true)

	require.Equal(t, 1, res.Created)
	require.Len(t, h.store.sessions, 1)
	require.Equal(t, r, *h.store.sessions[manualID].SourceRuleID)

	again := h.generate(t, "2026-01-05", "2026-01-05", true)
	require.Zero(t, again.Created)
	require.Equal(t, 1, again.SkippedExists)
}

func TestGenerate_ManualOtherGroupIsNoClash(t *testing.T) {
	h := newHarness(t)
	h.rule(t, groupX, 0, "10:00", nil)
	h.manual(t, "2026-01-05", "10:00", ptr(groupY), nil)
	h.manual(t, "2026-01-05", "10:00", nil, nil)

	res := h.generate(t, "2026-01-05", "2026-01-05", false)
	require.Equal(t, 1, res.Created)
}

func TestGenerate_ItemErrorsDoNotAbort(t *testing.T) {
	h := newHarness(t)
	good := h.rule(t, groupX, 0, "10:00", nil)
	h.rule(t, groupY, 0, "11:00", nil)
	h.store.failCreate = groupY

	res := h.generate(t, "2026-01-01", "2026-01-31", false)

	require.Equal(t, 4, res.Created)
	require.Equal(t, 4, res.Errors)
	require.Len(t, res.Details, 4)
	require.Contains(t, res.Details[0], "Error generating Group Y on 2026-01-05")
	require.Len(t, ruleSessions(t, h, good), 4)
}

func TestGenerate_InactiveRuleSkipped(t *testing.T) {
	h := newHarness(t)
	r := h.rule(t, groupX, 0, "10:00", nil)
	h.generate(t, "2026-01-05", "2026-01-05", false)

	_, err := h.svc.UpdateRule(context.Background(), r, &api.RuleRequest{
		GroupRef:  groupX,
		Weekday:   ptr(0),
		StartTime: "10:00",
		IsActive:  ptr(false),
	})
	require.NoError(t, err)

	res := h.generate(t, "2026-01-01", "2026-01-31", false)
	require.Zero(t, res.Created)
	require.Len(t, ruleSessions(t, h, r), 1)
}

func TestGenerate_OnlyRequestedRules(t *testing.T) {
	h := newHarness(t)
	a := h.rule(t, groupX, 0, "10:00", nil)
	b := h.rule(t, groupY, 0, "10:00", nil)

	res, err := h.svc.GenerateSessions(context.Background(), &api.GenerateRequest{
		RuleIDs:   []string{b},
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
	})
	require.NoError(t, err)
	require.Equal(t, 4, res.Created)
	require.Empty(t, ruleSessions(t, h, a))
}

func TestGenerate_EndBeforeStart(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.GenerateSessions(context.Background(), &api.GenerateRequest{
		StartDate: "2026-01-31",
		EndDate:   "2026-01-01",
	})
	require.ErrorIs(t, err, response.ErrValidation)

	var fe *response.FieldError
	require.True(t, errors.As(err, &fe))
	require.Contains(t, fe.Fields, "end_date")
}

func TestGenerate_Locked(t *testing.T) {
	h := newHarness(t)
	h.rule(t, groupX, 0, "10:00", nil)

	_, ok, err := h.locker.Lock(context.Background(), lock.GenerateKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = h.svc.GenerateSessions(context.Background(), &api.GenerateRequest{
		StartDate: "2026-01-01",
		EndDate:   "2026-01-31",
	})
	require.ErrorIs(t, err, response.ErrLocked)
	require.Empty(t, h.store.sessions)
}

func TestCreateRule_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.rule(t, groupX, 0, "10:00", nil)

	_, err := h.svc.CreateRule(context.Background(), &api.RuleRequest{
		GroupRef:  groupX,
		Weekday:   ptr(0),
		StartTime: "10:00",
	})
	require.ErrorIs(t, err, response.ErrConflict)
}

func TestCreateRule_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		req   api.RuleRequest
		field string
	}{
		{"no group", api.RuleRequest{Weekday: ptr(0), StartTime: "10:00"}, "group_ref"},
		{"bad weekday", api.RuleRequest{GroupRef: groupX, Weekday: ptr(7), StartTime: "10:00"}, "weekday"},
		{"missing weekday", api.RuleRequest{GroupRef: groupX, StartTime: "10:00"}, "weekday"},
		{"bad time", api.RuleRequest{GroupRef: groupX, Weekday: ptr(1), StartTime: "25:00"}, "start_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.CreateRule(context.Background(), &tt.req)

			var fe *response.FieldError
			require.True(t, errors.As(err, &fe))
			require.Contains(t, fe.Fields, tt.field)
		})
	}
}
