package service

import (
	"context"
	"fmt"
	"time"

	"coach-schedule/api"
	"coach-schedule/internal/availability"
	"coach-schedule/internal/models"
)

const dashboardUpcoming = 5

// Dashboard returns the coach's next assigned sessions and, when a month
// still has no availability from them, a prompt to fill it in.
func (s *Service) Dashboard(ctx context.Context, coachID string) (*api.Dashboard, error) {
	const op = "service.Dashboard"

	if _, err := s.store.GetCoach(ctx, coachID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	upcoming, err := s.upcoming(ctx, coachID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prompt, err := s.bulkPrompt(ctx, coachID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.Dashboard{Upcoming: upcoming, BulkReminder: prompt}, nil
}

func (s *Service) upcoming(ctx context.Context, coachID string) ([]api.DashboardSession, error) {
	today := s.today()

	all, err := s.store.CoachSessions(ctx, coachID, today, today.Add(s.opts.FeedHorizon))
	if err != nil {
		return nil, err
	}

	sessions := make([]*models.Session, 0, dashboardUpcoming)
	for _, session := range all {
		if session.IsCancelled {
			continue
		}
		sessions = append(sessions, session)
		if len(sessions) == dashboardUpcoming {
			break
		}
	}

	ids := sessionIDs(sessions)

	assignments, err := s.store.ListAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListSessionAvailability(ctx, ids)
	if err != nil {
		return nil, err
	}
	byKey := recordsByKey(records)

	bySession := make(map[string][]models.Assignment)
	for _, a := range assignments {
		bySession[a.SessionID] = append(bySession[a.SessionID], a)
	}

	out := make([]api.DashboardSession, 0, len(sessions))
	for _, session := range sessions {
		mine := byKey[session.ID][coachID]
		if mine == nil {
			def := models.DefaultRecord(coachID, session.ID)
			mine = &def
		}

		item := api.DashboardSession{
			Session:          toSessionResponse(session),
			EffectiveStatus:  string(availability.Effective(mine, true)),
			LastAction:       string(mine.LastAction),
			ConfirmedCoaches: []api.ConfirmedCoach{},
		}

		for _, a := range bySession[session.ID] {
			if a.CoachID == coachID {
				item.IsHeadCoach = a.IsHeadCoach
			}

			rec := byKey[session.ID][a.CoachID]
			if rec == nil {
				continue
			}
			if rec.LastAction == models.ACTION_CONFIRM || availability.Effective(rec, true) == models.STATUS_AVAILABLE {
				item.ConfirmedCoaches = append(item.ConfirmedCoaches, api.ConfirmedCoach{
					CoachID:     a.CoachID,
					Name:        a.CoachName,
					IsHeadCoach: a.IsHeadCoach,
				})
			}
		}

		out = append(out, item)
	}

	return out, nil
}

// bulkPrompt picks the current month, else the next one, when it has
// upcoming rule sessions and the coach has not recorded anything for them.
func (s *Service) bulkPrompt(ctx context.Context, coachID string) (*api.AvailabilityPrompt, error) {
	rules, err := s.store.ListRules(ctx, nil, true)
	if err != nil {
		return nil, err
	}

	first := time.Date(s.today().Year(), s.today().Month(), 1, 0, 0, 0, 0, time.UTC)

	for _, m := range []time.Time{first, first.AddDate(0, 1, 0)} {
		sessions, err := s.bulkSessions(ctx, rules, m.Year(), int(m.Month()))
		if err != nil {
			return nil, err
		}
		if len(sessions) == 0 {
			continue
		}

		records, err := s.store.GetAvailability(ctx, coachID, sessionIDs(sessions))
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return &api.AvailabilityPrompt{Year: m.Year(), Month: int(m.Month()), MonthName: m.Month().String()}, nil
		}
	}

	return nil, nil
}
