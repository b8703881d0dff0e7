package reminder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"coach-schedule/internal/email"
	"coach-schedule/internal/models"
	"coach-schedule/internal/service"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	reminders []service.Reminder
	err       error
}

func (f *fakeSource) PendingReminders(context.Context, time.Time) ([]service.Reminder, error) {
	return f.reminders, f.err
}

func (f *fakeSource) SessionLinks(coachID, sessionID string) (string, string, error) {
	return "https://example.com/c/" + sessionID, "https://example.com/d/" + sessionID, nil
}

type recordingSender struct {
	sent []email.SendRequest
	fail map[string]bool
}

func (r *recordingSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	if r.fail[req.To[0]] {
		return email.SendResult{}, errors.New("provider down")
	}
	r.sent = append(r.sent, req)

	return email.SendResult{MessageID: "m1"}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func reminderFor(name, addr string) service.Reminder {
	venue := "North Courts"
	group := "Juniors"

	return service.Reminder{
		Coach: models.Coach{ID: name, Name: name, Email: addr, IsActive: true},
		Date:  time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Sessions: []*models.Session{
			{ID: "s1", StartTime: "10:00", GroupName: &group, VenueName: &venue},
		},
		ConfirmURL: "https://example.com/day/confirm",
		DeclineURL: "https://example.com/day/decline",
	}
}

func TestRun_SendsOnePerCoach(t *testing.T) {
	src := &fakeSource{reminders: []service.Reminder{reminderFor("Sam", "sam@example.com"), reminderFor("Lee", "lee@example.com")}}
	sender := &recordingSender{}

	sum, err := New(src, sender, discard()).Run(context.Background(), time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, Summary{Sent: 2}, sum)
	require.Len(t, sender.sent, 2)

	msg := sender.sent[0]
	require.Equal(t, []string{"sam@example.com"}, msg.To)
	require.Equal(t, "Please confirm your sessions on Mon 5 Jan", msg.Subject)
	require.Contains(t, msg.HTML, "Hi Sam")
	require.Contains(t, msg.HTML, "10:00, Juniors at North Courts")
	require.Contains(t, msg.HTML, `<a href="https://example.com/c/s1">confirm</a>`)
	require.Contains(t, msg.HTML, `<a href="https://example.com/day/confirm">Confirm all</a>`)
	require.Contains(t, msg.HTML, `<a href="https://example.com/day/decline">decline all</a>`)
}

func TestRun_FailedSendIsCounted(t *testing.T) {
	src := &fakeSource{reminders: []service.Reminder{reminderFor("Sam", "sam@example.com"), reminderFor("Lee", "lee@example.com")}}
	sender := &recordingSender{fail: map[string]bool{"sam@example.com": true}}

	sum, err := New(src, sender, discard()).Run(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, Summary{Sent: 1, Failed: 1}, sum)
	require.Equal(t, []string{"lee@example.com"}, sender.sent[0].To)
}

func TestRun_SourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("db gone")}

	_, err := New(src, &recordingSender{}, discard()).Run(context.Background(), time.Now())
	require.Error(t, err)
}
