package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coach-schedule/api"
	"coach-schedule/internal/availability"
	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"
)

// Email links arrive unauthenticated. Any failure that could reveal whether a
// coach or session exists is reported as response.ErrToken.

func (s *Service) ConfirmSessionLink(ctx context.Context, sessionID, raw string) (*api.LinkResult, error) {
	const op = "service.ConfirmSessionLink"

	session, coachID, err := s.verifySessionLink(ctx, sessionID, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ev := availability.Confirm(availability.EMAIL_CONFIRM, s.opts.Now())
	if _, _, err := s.apply(ctx, coachID, []string{session.ID}, func(string) availability.Event { return ev }); err != nil {
		return nil, fmt.Errorf("%s: %w", op, tokenErr(err))
	}

	return &api.LinkResult{
		Message:  fmt.Sprintf("Thanks, you are confirmed for %s on %s at %s.", session.GroupLabel(), session.Date.Format(models.DateLayout), session.StartTime),
		Sessions: 1,
	}, nil
}

// DeclineSessionLink requires a reason. The token is checked before the reason
// so an invalid link never reports a validation error.
func (s *Service) DeclineSessionLink(ctx context.Context, sessionID, raw, reason string) (*api.LinkResult, error) {
	const op = "service.DeclineSessionLink"

	session, coachID, err := s.verifySessionLink(ctx, sessionID, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ev := availability.Decline(availability.EMAIL_DECLINE, reason, s.opts.Now())
	recs, _, err := s.apply(ctx, coachID, []string{session.ID}, func(string) availability.Event { return ev })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, tokenErr(err))
	}

	s.publishDeclined(recs[0], session, "email")

	return &api.LinkResult{
		Message:  fmt.Sprintf("You have declined %s on %s at %s. The coordinator has been notified.", session.GroupLabel(), session.Date.Format(models.DateLayout), session.StartTime),
		Sessions: 1,
	}, nil
}

func (s *Service) ConfirmDayLink(ctx context.Context, day, raw string) (*api.LinkResult, error) {
	const op = "service.ConfirmDayLink"

	date, coachID, sessions, err := s.verifyDayLink(ctx, day, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(sessions) == 0 {
		return &api.LinkResult{Message: fmt.Sprintf("You have no sessions to confirm on %s.", date.Format(models.DateLayout))}, nil
	}

	ev := availability.Confirm(availability.EMAIL_CONFIRM, s.opts.Now())
	recs, _, err := s.apply(ctx, coachID, sessionIDs(sessions), func(string) availability.Event { return ev })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, tokenErr(err))
	}

	return &api.LinkResult{
		Message:  fmt.Sprintf("Thanks, you are confirmed for %d session(s) on %s.", len(recs), date.Format(models.DateLayout)),
		Sessions: len(recs),
	}, nil
}

func (s *Service) DeclineDayLink(ctx context.Context, day, raw, reason string) (*api.LinkResult, error) {
	const op = "service.DeclineDayLink"

	date, coachID, sessions, err := s.verifyDayLink(ctx, day, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(sessions) == 0 {
		return &api.LinkResult{Message: fmt.Sprintf("You have no sessions to decline on %s.", date.Format(models.DateLayout))}, nil
	}

	ev := availability.Decline(availability.EMAIL_DECLINE, reason, s.opts.Now())
	recs, _, err := s.apply(ctx, coachID, sessionIDs(sessions), func(string) availability.Event { return ev })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, tokenErr(err))
	}

	byID := make(map[string]*models.Session, len(sessions))
	for _, session := range sessions {
		byID[session.ID] = session
	}
	for _, rec := range recs {
		s.publishDeclined(rec, byID[rec.SessionID], "email")
	}

	return &api.LinkResult{
		Message:  fmt.Sprintf("You have declined %d session(s) on %s. The coordinator has been notified.", len(recs), date.Format(models.DateLayout)),
		Sessions: len(recs),
	}, nil
}

func (s *Service) verifySessionLink(ctx context.Context, sessionID, raw string) (*models.Session, string, error) {
	coachID, err := s.tokens.VerifySession(raw, sessionID)
	if err != nil {
		return nil, "", err
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, "", tokenErr(err)
	}

	return session, coachID, nil
}

// verifyDayLink resolves the coach's assigned, non-cancelled sessions on the
// token's day. The lookup is read-only.
func (s *Service) verifyDayLink(ctx context.Context, day, raw string) (time.Time, string, []*models.Session, error) {
	date, err := parseDate("date", day)
	if err != nil {
		return time.Time{}, "", nil, response.ErrToken
	}

	coachID, err := s.tokens.VerifyDay(raw, date)
	if err != nil {
		return time.Time{}, "", nil, err
	}

	all, err := s.store.CoachSessions(ctx, coachID, date, date)
	if err != nil {
		return time.Time{}, "", nil, err
	}

	sessions := make([]*models.Session, 0, len(all))
	for _, session := range all {
		if !session.IsCancelled {
			sessions = append(sessions, session)
		}
	}

	return date, coachID, sessions, nil
}

func tokenErr(err error) error {
	if errors.Is(err, response.ErrNotFound) {
		return response.ErrToken
	}

	return err
}
