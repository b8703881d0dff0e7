// Package reminder sends the daily "please confirm" emails to coaches who
// have not yet acted on tomorrow's sessions.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"coach-schedule/internal/email"
	"coach-schedule/internal/service"
	"coach-schedule/pkg/sl"
)

type Source interface {
	PendingReminders(ctx context.Context, day time.Time) ([]service.Reminder, error)
	SessionLinks(coachID, sessionID string) (confirm, decline string, err error)
}

type Summary struct {
	Sent   int
	Failed int
}

type Sweeper struct {
	source Source
	sender email.Sender
	log    *slog.Logger
}

func New(source Source, sender email.Sender, log *slog.Logger) *Sweeper {
	return &Sweeper{
		source: source,
		sender: sender,
		log:    log.With(slog.String("component", "reminder")),
	}
}

// Run emails every coach with unanswered sessions on day. A failed send is
// logged and counted; the sweep carries on with the next coach.
func (s *Sweeper) Run(ctx context.Context, day time.Time) (Summary, error) {
	const op = "reminder.Sweeper.Run"

	var sum Summary

	reminders, err := s.source.PendingReminders(ctx, day)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", op, err)
	}

	for _, r := range reminders {
		body, err := s.compose(r)
		if err != nil {
			return sum, fmt.Errorf("%s: %w", op, err)
		}

		html, err := email.RenderMarkdown(body)
		if err != nil {
			return sum, fmt.Errorf("%s: %w", op, err)
		}

		res, err := s.sender.Send(ctx, email.SendRequest{
			To:      []string{r.Coach.Email},
			Subject: fmt.Sprintf("Please confirm your sessions on %s", r.Date.Format("Mon 2 Jan")),
			HTML:    html,
		})
		if err != nil {
			sum.Failed++
			s.log.Error("Failed to send reminder", slog.String("coach_id", r.Coach.ID), sl.Err(err))
			continue
		}

		sum.Sent++
		s.log.Debug("Reminder sent",
			slog.String("coach_id", r.Coach.ID),
			slog.String("message_id", res.MessageID),
			slog.Int("sessions", len(r.Sessions)),
		)
	}

	s.log.Info("Reminder sweep finished",
		slog.String("date", day.Format("2006-01-02")),
		slog.Int("sent", sum.Sent),
		slog.Int("failed", sum.Failed),
	)

	return sum, nil
}

func (s *Sweeper) compose(r service.Reminder) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", r.Coach.Name)
	fmt.Fprintf(&b, "You are coaching on **%s**:\n\n", r.Date.Format("Monday 2 January"))

	for _, session := range r.Sessions {
		confirm, decline, err := s.source.SessionLinks(r.Coach.ID, session.ID)
		if err != nil {
			return "", err
		}

		line := fmt.Sprintf("- %s, %s", session.StartTime, session.GroupLabel())
		if venue := session.VenueLabel(); venue != "" {
			line += " at " + venue
		}
		fmt.Fprintf(&b, "%s ([confirm](%s) or [decline](%s))\n", line, confirm, decline)
	}

	fmt.Fprintf(&b, "\n[Confirm all](%s) or [decline all](%s) for the day.\n\n", r.ConfirmURL, r.DeclineURL)
	b.WriteString("Declining asks you for a short reason so the coordinator can find cover.\n")

	return b.String(), nil
}
