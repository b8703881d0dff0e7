package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"coach-schedule/internal/availability"
	"coach-schedule/internal/models"
)

// Reminder is one coach's outstanding sessions on a day, with the signed
// links that confirm or decline all of them.
type Reminder struct {
	Coach      models.Coach
	Date       time.Time
	Sessions   []*models.Session
	ConfirmURL string
	DeclineURL string
}

// PendingReminders lists coaches assigned to a non-cancelled session on day
// who have neither confirmed nor declined it yet.
func (s *Service) PendingReminders(ctx context.Context, day time.Time) ([]Reminder, error) {
	const op = "service.PendingReminders"

	date := dateOf(day)

	sessions, err := s.liveSessions(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	availability.SortSessions(sessions)

	ids := sessionIDs(sessions)

	assignments, err := s.store.ListAssignments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	records, err := s.store.ListSessionAvailability(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byKey := recordsByKey(records)

	byID := make(map[string]*models.Session, len(sessions))
	for _, session := range sessions {
		byID[session.ID] = session
	}

	pending := make(map[string][]*models.Session)
	for _, a := range assignments {
		rec := byKey[a.SessionID][a.CoachID]
		if rec != nil && rec.LastAction != models.ACTION_NONE {
			continue
		}
		pending[a.CoachID] = append(pending[a.CoachID], byID[a.SessionID])
	}
	if len(pending) == 0 {
		return nil, nil
	}

	coachIDs := make([]string, 0, len(pending))
	for id := range pending {
		coachIDs = append(coachIDs, id)
	}
	sort.Strings(coachIDs)

	coaches, err := s.store.ListCoaches(ctx, coachIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]Reminder, 0, len(coaches))
	for _, coach := range coaches {
		if !coach.IsActive || coach.Email == "" {
			continue
		}

		raw, err := s.tokens.DayToken(coach.ID, date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		dayStr := date.Format(models.DateLayout)
		list := pending[coach.ID]
		availability.SortSessions(list)

		out = append(out, Reminder{
			Coach:      *coach,
			Date:       date,
			Sessions:   list,
			ConfirmURL: fmt.Sprintf("%s/links/days/%s/confirm/%s", s.opts.SiteURL, dayStr, raw),
			DeclineURL: fmt.Sprintf("%s/links/days/%s/decline/%s", s.opts.SiteURL, dayStr, raw),
		})
	}

	return out, nil
}

// SessionLinks returns the confirm and decline URLs for one session.
func (s *Service) SessionLinks(coachID, sessionID string) (confirm, decline string, err error) {
	const op = "service.SessionLinks"

	raw, err := s.tokens.SessionToken(coachID, sessionID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	confirm = fmt.Sprintf("%s/links/sessions/%s/confirm/%s", s.opts.SiteURL, sessionID, raw)
	decline = fmt.Sprintf("%s/links/sessions/%s/decline/%s", s.opts.SiteURL, sessionID, raw)

	return confirm, decline, nil
}
