package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"coach-schedule/pkg/response"

	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newService(c *clock) *Service {
	return New(Options{
		Secret:        "test-secret",
		SessionMaxAge: 7 * 24 * time.Hour,
		DayMaxAge:     2 * 24 * time.Hour,
		Now:           c.Now,
	})
}

func TestSessionToken_RoundTrip(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(c)

	tok, err := svc.SessionToken("coach-1", "session-9")
	require.NoError(t, err)

	coachID, err := svc.VerifySession(tok, "session-9")
	require.NoError(t, err)
	require.Equal(t, "coach-1", coachID)
}

func TestSessionToken_Expiry(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := newService(c)

	tok, err := svc.SessionToken("coach-1", "session-9")
	require.NoError(t, err)

	c.t = c.t.Add(7*24*time.Hour - time.Minute)
	_, err = svc.VerifySession(tok, "session-9")
	require.NoError(t, err)

	c.t = c.t.Add(2 * time.Minute)
	_, err = svc.VerifySession(tok, "session-9")
	require.True(t, errors.Is(err, response.ErrToken))
}

func TestSessionToken_WrongSession(t *testing.T) {
	c := &clock{t: time.Now()}
	svc := newService(c)

	tok, err := svc.SessionToken("coach-1", "session-9")
	require.NoError(t, err)

	_, err = svc.VerifySession(tok, "session-10")
	require.True(t, errors.Is(err, response.ErrToken))
}

func TestDayToken(t *testing.T) {
	c := &clock{t: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)}
	svc := newService(c)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	tok, err := svc.DayToken("coach-1", day)
	require.NoError(t, err)

	coachID, err := svc.VerifyDay(tok, day)
	require.NoError(t, err)
	require.Equal(t, "coach-1", coachID)

	_, err = svc.VerifyDay(tok, day.AddDate(0, 0, 1))
	require.True(t, errors.Is(err, response.ErrToken))

	c.t = c.t.Add(49 * time.Hour)
	_, err = svc.VerifyDay(tok, day)
	require.True(t, errors.Is(err, response.ErrToken))
}

func TestScopesAreNotInterchangeable(t *testing.T) {
	c := &clock{t: time.Now()}
	svc := newService(c)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	sessionTok, err := svc.SessionToken("coach-1", "session-9")
	require.NoError(t, err)
	dayTok, err := svc.DayToken("coach-1", day)
	require.NoError(t, err)
	feedTok, err := svc.FeedToken("coach-1")
	require.NoError(t, err)

	_, err = svc.VerifyFeed(sessionTok)
	require.True(t, errors.Is(err, response.ErrToken))

	_, err = svc.VerifySession(feedTok, "session-9")
	require.True(t, errors.Is(err, response.ErrToken))

	_, err = svc.VerifyDay(feedTok, day)
	require.True(t, errors.Is(err, response.ErrToken))

	_, err = svc.VerifySession(dayTok, "session-9")
	require.True(t, errors.Is(err, response.ErrToken))

	_, err = svc.VerifyDay(sessionTok, day)
	require.True(t, errors.Is(err, response.ErrToken))
}

func TestFeedToken_NoExpiry(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := newService(c)

	tok, err := svc.FeedToken("coach-7")
	require.NoError(t, err)

	c.t = c.t.AddDate(2, 0, 0)
	coachID, err := svc.VerifyFeed(tok)
	require.NoError(t, err)
	require.Equal(t, "coach-7", coachID)
}

func TestActionTokens_ZeroMaxAgeFallsBackToDefault(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := New(Options{Secret: "test-secret", Now: c.Now})
	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	sessionTok, err := svc.SessionToken("coach-1", "session-9")
	require.NoError(t, err)
	dayTok, err := svc.DayToken("coach-1", day)
	require.NoError(t, err)

	c.t = c.t.Add(DefaultActionMaxAge + time.Minute)

	_, err = svc.VerifySession(sessionTok, "session-9")
	require.True(t, errors.Is(err, response.ErrToken))
	_, err = svc.VerifyDay(dayTok, day)
	require.True(t, errors.Is(err, response.ErrToken))
}

func TestTamperedAndForeignTokens(t *testing.T) {
	c := &clock{t: time.Now()}
	svc := newService(c)
	other := New(Options{Secret: "another-secret", SessionMaxAge: time.Hour, Now: c.Now})

	tok, err := svc.SessionToken("coach-1", "session-9")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	for _, raw := range []string{"", "not-a-token", tampered} {
		_, err := svc.VerifySession(raw, "session-9")
		require.True(t, errors.Is(err, response.ErrToken), raw)
	}

	foreign, err := other.SessionToken("coach-1", "session-9")
	require.NoError(t, err)
	_, err = svc.VerifySession(foreign, "session-9")
	require.True(t, errors.Is(err, response.ErrToken))
}
