package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"coach-schedule/api"
	"coach-schedule/internal/events"
	"coach-schedule/internal/lock"
	"coach-schedule/internal/models"
	"coach-schedule/internal/service"
	"coach-schedule/internal/token"

	"github.com/stretchr/testify/require"
)

const (
	groupX = "g-x"
	groupY = "g-y"
	north  = "v-north"
	east   = "v-east"
)

type recPublisher struct {
	mu       sync.Mutex
	declined []events.DeclinedEvent
	changed  []events.AssignmentChangedEvent
}

func (p *recPublisher) PublishDeclined(e events.DeclinedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.declined = append(p.declined, e)
	return nil
}

func (p *recPublisher) PublishAssignmentChanged(e events.AssignmentChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changed = append(p.changed, e)
	return nil
}

type harness struct {
	svc    *service.Service
	store  *memStore
	tokens *token.Service
	locker *lock.MemoryLock
	pub    *recPublisher
	now    time.Time
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newHarness starts the clock on Monday 15 December 2025, before every
// January 2026 session used in the tests.
func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:  newMemStore(),
		locker: lock.NewMemoryLock(),
		pub:    &recPublisher{},
		now:    time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return h.now }

	h.tokens = token.New(token.Options{
		Secret:        "test-secret",
		SessionMaxAge: 7 * 24 * time.Hour,
		DayMaxAge:     7 * 24 * time.Hour,
		Now:           clock,
	})

	h.svc = service.NewService(h.store, h.store, h.locker, h.tokens, h.pub, discard(), service.Options{
		Location:   time.UTC,
		SiteURL:    "https://app.test/",
		FeedDomain: "app.test",
		Now:        clock,
	})

	h.store.venues[north] = "North Courts"
	h.store.venues[east] = "East Hall"
	h.store.groups[groupX] = "Group X"
	h.store.groups[groupY] = "Group Y"
	h.store.members[groupX] = []string{"p1", "p2"}

	h.store.addCoach("c1", "Alex")
	h.store.addCoach("c2", "Blake")
	h.store.addCoach("c3", "Casey")
	h.store.addCoach("c4", "Drew")

	return h
}

func ptr[T any](v T) *T { return &v }

func (h *harness) rule(t *testing.T, group string, weekday int, start string, venue *string, coaches ...string) string {
	t.Helper()

	resp, err := h.svc.CreateRule(context.Background(), &api.RuleRequest{
		GroupRef:       group,
		Weekday:        ptr(weekday),
		StartTime:      start,
		VenueRef:       venue,
		DefaultCoaches: coaches,
	})
	require.NoError(t, err)

	return resp.ID
}

func (h *harness) generate(t *testing.T, start, end string, overwrite bool) *api.GenerateResult {
	t.Helper()

	res, err := h.svc.GenerateSessions(context.Background(), &api.GenerateRequest{
		StartDate: start,
		EndDate:   end,
		Overwrite: overwrite,
	})
	require.NoError(t, err)

	return res
}

func (h *harness) manual(t *testing.T, date, start string, group, venue *string) string {
	t.Helper()

	resp, err := h.svc.CreateSession(context.Background(), &api.SessionRequest{
		Date:      date,
		StartTime: start,
		GroupRef:  group,
		VenueRef:  venue,
	})
	require.NoError(t, err)

	return resp.ID
}

// sessionOn returns the only session generated from ruleID on date.
func (h *harness) sessionOn(t *testing.T, ruleID, date string) *models.Session {
	t.Helper()

	d, err := time.Parse(models.DateLayout, date)
	require.NoError(t, err)

	s, err := h.store.FindRuleSession(context.Background(), ruleID, d)
	require.NoError(t, err)
	require.NotNil(t, s, "no session for rule on %s", date)

	return s
}

func (h *harness) assign(t *testing.T, sessionID string, coaches ...string) *api.AssignResponse {
	t.Helper()

	resp, err := h.svc.AssignCoaches(context.Background(), sessionID, &api.AssignRequest{CoachIDs: coaches})
	require.NoError(t, err)

	return resp
}
