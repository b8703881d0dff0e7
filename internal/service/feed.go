package service

import (
	"context"
	"fmt"

	"coach-schedule/api"
	"coach-schedule/internal/ical"
)

// CalendarLink issues the coach's feed token and returns the subscription URL.
func (s *Service) CalendarLink(ctx context.Context, coachID string) (*api.CalendarLink, error) {
	const op = "service.CalendarLink"

	if _, err := s.store.GetCoach(ctx, coachID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	raw, err := s.tokens.FeedToken(coachID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.CalendarLink{URL: s.opts.SiteURL + "/calendar/" + raw}, nil
}

// CalendarFeed renders the coach's assigned sessions from the lookback
// window up to the horizon. Each session keeps the same UID across fetches.
func (s *Service) CalendarFeed(ctx context.Context, raw string) (string, error) {
	const op = "service.CalendarFeed"

	coachID, err := s.tokens.VerifyFeed(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	coach, err := s.store.GetCoach(ctx, coachID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, tokenErr(err))
	}

	today := s.today()
	from := today.Add(-s.opts.FeedLookback)
	to := today.Add(s.opts.FeedHorizon)

	sessions, err := s.store.CoachSessions(ctx, coachID, from, to)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	events := make([]ical.Event, 0, len(sessions))
	for _, session := range sessions {
		summary := session.GroupLabel()
		if session.IsCancelled {
			summary = "CANCELLED: " + summary
		}

		events = append(events, ical.Event{
			UID:         fmt.Sprintf("session_%s@%s", session.ID, s.opts.FeedDomain),
			Start:       session.StartAt(s.opts.Location),
			End:         session.EndAt(s.opts.Location),
			Summary:     summary,
			Location:    session.VenueLabel(),
			Description: session.Notes,
		})
	}

	return ical.Render(coach.Name+" coaching", events, today), nil
}
