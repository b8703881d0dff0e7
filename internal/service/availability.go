package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coach-schedule/api"
	"coach-schedule/internal/availability"
	"coach-schedule/internal/events"
	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"
	"coach-schedule/pkg/sl"
)

const noChange = "NO_CHANGE"

// CoachWeek lists every non-cancelled session of the week with the coach's
// own availability and assignment for each.
func (s *Service) CoachWeek(ctx context.Context, coachID, week string) (*api.CoachWeek, error) {
	const op = "service.CoachWeek"

	start, err := s.parseWeek(week)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	end := start.AddDate(0, 0, 6)

	sessions, err := s.liveSessions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	availability.SortSessions(sessions)

	views, err := s.coachViews(ctx, coachID, sessions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := &api.CoachWeek{
		WeekStart: start.Format(models.DateLayout),
		WeekEnd:   end.Format(models.DateLayout),
		Days:      make([]api.CoachDay, 7),
	}
	for i := range out.Days {
		out.Days[i] = api.CoachDay{
			Date:     start.AddDate(0, 0, i).Format(models.DateLayout),
			Weekday:  weekdayNames[i],
			Sessions: []api.CoachSession{},
		}
	}
	for i, session := range sessions {
		d := int(dateOf(session.Date).Sub(start).Hours() / 24)
		out.Days[d].Sessions = append(out.Days[d].Sessions, views[i])
	}

	return out, nil
}

func (s *Service) liveSessions(ctx context.Context, from, to time.Time) ([]*models.Session, error) {
	all, err := s.store.ListSessions(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Session, 0, len(all))
	for _, session := range all {
		if !session.IsCancelled {
			out = append(out, session)
		}
	}

	return out, nil
}

// coachViews joins sessions with one coach's assignments and records. The
// result is index-aligned with sessions.
func (s *Service) coachViews(ctx context.Context, coachID string, sessions []*models.Session) ([]api.CoachSession, error) {
	ids := sessionIDs(sessions)

	assignments, err := s.store.ListAssignments(ctx, ids)
	if err != nil {
		return nil, err
	}
	mine := make(map[string]models.Assignment)
	for _, a := range assignments {
		if a.CoachID == coachID {
			mine[a.SessionID] = a
		}
	}

	records, err := s.store.GetAvailability(ctx, coachID, ids)
	if err != nil {
		return nil, err
	}
	byKey := recordsByKey(records)

	out := make([]api.CoachSession, 0, len(sessions))
	for _, session := range sessions {
		a, assigned := mine[session.ID]
		rec := byKey[session.ID][coachID]
		if rec == nil {
			def := models.DefaultRecord(coachID, session.ID)
			rec = &def
		}

		out = append(out, api.CoachSession{
			Session:         toSessionResponse(session),
			IsAssigned:      assigned,
			IsHeadCoach:     assigned && a.IsHeadCoach,
			Status:          string(rec.Status),
			EffectiveStatus: string(availability.Effective(rec, assigned)),
			LastAction:      string(rec.LastAction),
			Notes:           rec.Notes,
		})
	}

	return out, nil
}

// SetSessionAvailability records a coach's declared availability for one session.
func (s *Service) SetSessionAvailability(ctx context.Context, coachID, sessionID string, req *api.SessionAvailabilityRequest) (*api.AvailabilityResponse, error) {
	const op = "service.SetSessionAvailability"

	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ev := availability.SessionSet(models.AvailabilityStatus(req.Status), req.Notes, s.opts.Now())

	recs, _, err := s.apply(ctx, coachID, []string{sessionID}, func(string) availability.Event { return ev })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.availabilityResponse(ctx, recs[0])
}

func (s *Service) DashboardConfirm(ctx context.Context, coachID, sessionID string) (*api.AvailabilityResponse, error) {
	const op = "service.DashboardConfirm"

	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ev := availability.Confirm(availability.DASHBOARD_CONFIRM, s.opts.Now())

	recs, _, err := s.apply(ctx, coachID, []string{sessionID}, func(string) availability.Event { return ev })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.availabilityResponse(ctx, recs[0])
}

// DashboardDecline declines a session from the dashboard. The reason is optional here.
func (s *Service) DashboardDecline(ctx context.Context, coachID, sessionID, reason string) (*api.AvailabilityResponse, error) {
	const op = "service.DashboardDecline"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ev := availability.Decline(availability.DASHBOARD_DECLINE, reason, s.opts.Now())

	recs, _, err := s.apply(ctx, coachID, []string{sessionID}, func(string) availability.Event { return ev })
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.publishDeclined(recs[0], session, "dashboard")

	return s.availabilityResponse(ctx, recs[0])
}

// RuleAvailability shows one aggregate status per active rule for the month,
// grouped by weekday. Only sessions a bulk update would touch are counted.
func (s *Service) RuleAvailability(ctx context.Context, coachID string, year, month int) (*api.RuleAvailabilityMonth, error) {
	const op = "service.RuleAvailability"

	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("month", "must be between 1 and 12"))
	}

	rules, err := s.store.ListRules(ctx, nil, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	availability.SortRules(rules)

	sessions, err := s.bulkSessions(ctx, rules, year, month)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ids := sessionIDs(sessions)

	assignments, err := s.store.ListAssignments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	assigned := make(map[string]bool)
	for _, a := range assignments {
		if a.CoachID == coachID {
			assigned[a.SessionID] = true
		}
	}

	records, err := s.store.GetAvailability(ctx, coachID, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	byKey := recordsByKey(records)

	entries := make(map[string][]availability.Entry)
	for _, session := range sessions {
		ruleID := *session.SourceRuleID
		entries[ruleID] = append(entries[ruleID], availability.Entry{
			Record:   byKey[session.ID][coachID],
			Assigned: assigned[session.ID],
		})
	}

	out := &api.RuleAvailabilityMonth{Year: year, Month: month, Days: make([]api.RuleAvailabilityDay, 7)}
	for i := range out.Days {
		out.Days[i] = api.RuleAvailabilityDay{Weekday: i, Name: weekdayNames[i], Rules: []api.RuleAvailability{}}
	}
	for _, rule := range rules {
		out.Days[rule.Weekday].Rules = append(out.Days[rule.Weekday].Rules, api.RuleAvailability{
			Rule:            toRuleResponse(rule),
			AggregateStatus: string(availability.Aggregate(entries[rule.ID])),
			Sessions:        len(entries[rule.ID]),
		})
	}

	return out, nil
}

// bulkSessions returns the rules' non-cancelled sessions in the month that
// fall strictly after today. Past sessions are never rewritten in bulk.
func (s *Service) bulkSessions(ctx context.Context, rules []*models.Rule, year, month int) ([]*models.Session, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	ruleIDs := make([]string, 0, len(rules))
	for _, r := range rules {
		ruleIDs = append(ruleIDs, r.ID)
	}

	first, last := monthBounds(year, month)
	all, err := s.store.ListRuleSessions(ctx, ruleIDs, first, last)
	if err != nil {
		return nil, err
	}

	today := s.today()
	out := make([]*models.Session, 0, len(all))
	for _, session := range all {
		if session.IsCancelled || session.SourceRuleID == nil || !dateOf(session.Date).After(today) {
			continue
		}
		out = append(out, session)
	}

	return out, nil
}

// SetBulkAvailability applies one status per rule to every upcoming session
// of that rule in the month. Sessions carrying an explicit confirm or
// decline keep it and are counted as skipped.
func (s *Service) SetBulkAvailability(ctx context.Context, coachID string, req *api.BulkAvailabilityRequest) (*api.BulkAvailabilityResult, error) {
	const op = "service.SetBulkAvailability"

	if req.Month < 1 || req.Month > 12 {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("month", "must be between 1 and 12"))
	}

	statuses := make(map[string]models.AvailabilityStatus)
	ruleIDs := make([]string, 0, len(req.Rules))
	for ruleID, status := range req.Rules {
		if status == noChange {
			continue
		}
		switch st := models.AvailabilityStatus(status); st {
		case models.STATUS_AVAILABLE, models.STATUS_UNAVAILABLE, models.STATUS_EMERGENCY:
			statuses[ruleID] = st
			ruleIDs = append(ruleIDs, ruleID)
		default:
			return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("rules", fmt.Sprintf("invalid status %q", status)))
		}
	}

	result := &api.BulkAvailabilityResult{}
	if len(ruleIDs) == 0 {
		return result, nil
	}

	rules, err := s.store.ListRules(ctx, ruleIDs, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(rules) != len(ruleIDs) {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("rules", "unknown rule"))
	}

	sessions, err := s.bulkSessions(ctx, rules, req.Year, req.Month)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(sessions) == 0 {
		return result, nil
	}

	ruleOf := make(map[string]string, len(sessions))
	for _, session := range sessions {
		ruleOf[session.ID] = *session.SourceRuleID
	}

	now := s.opts.Now()
	recs, skipped, err := s.apply(ctx, coachID, sessionIDs(sessions), func(sessionID string) availability.Event {
		return availability.BulkSet(statuses[ruleOf[sessionID]], now)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result.Updated = len(recs)
	result.SkippedExplicit = skipped

	s.log.Info("Bulk availability applied",
		slog.String("coach_id", coachID),
		slog.Int("updated", result.Updated),
		slog.Int("skipped_explicit", result.SkippedExplicit),
	)

	return result, nil
}

// apply runs the state machine for each session in one transaction, locking
// the coach's existing rows first. It returns the written records and how
// many events were ignored.
func (s *Service) apply(ctx context.Context, coachID string, ids []string, eventFor func(sessionID string) availability.Event) ([]models.AvailabilityRecord, int, error) {
	if _, err := s.store.GetCoach(ctx, coachID); err != nil {
		return nil, 0, err
	}

	var written []models.AvailabilityRecord
	skipped := 0

	err := s.store.InTx(ctx, func(ctx context.Context) error {
		written, skipped = nil, 0

		current, err := s.store.LockAvailability(ctx, coachID, ids)
		if err != nil {
			return err
		}
		existing := make(map[string]models.AvailabilityRecord, len(current))
		for _, r := range current {
			existing[r.SessionID] = r
		}

		for _, sessionID := range ids {
			rec, ok := existing[sessionID]
			if !ok {
				rec = models.DefaultRecord(coachID, sessionID)
			}

			ev := eventFor(sessionID)
			next, applied, err := availability.Apply(rec, ev)
			if err != nil {
				return err
			}
			if !applied {
				skipped++
				continue
			}

			if ev.Kind == availability.BULK_SET {
				// only existing rows are locked; a confirm may have landed since
				ok, err := s.store.UpsertUntouchedAvailability(ctx, &next)
				if err != nil {
					return err
				}
				if !ok {
					skipped++
					continue
				}
			} else if err := s.store.UpsertAvailability(ctx, &next); err != nil {
				return err
			}
			written = append(written, next)
		}

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	return written, skipped, nil
}

// availabilityResponse reads the assignment after the write has committed,
// only to compute the displayed status.
func (s *Service) availabilityResponse(ctx context.Context, rec models.AvailabilityRecord) (*api.AvailabilityResponse, error) {
	assignments, err := s.store.ListAssignments(ctx, []string{rec.SessionID})
	if err != nil {
		return nil, err
	}

	return &api.AvailabilityResponse{
		CoachID:         rec.CoachID,
		SessionID:       rec.SessionID,
		Status:          string(rec.Status),
		EffectiveStatus: string(availability.Effective(&rec, isAssigned(assignments, rec.CoachID))),
		LastAction:      string(rec.LastAction),
		Notes:           rec.Notes,
		StatusUpdatedAt: rec.StatusUpdatedAt,
	}, nil
}

func (s *Service) publishDeclined(rec models.AvailabilityRecord, session *models.Session, source string) {
	event := events.DeclinedEvent{
		CoachID:     rec.CoachID,
		SessionID:   rec.SessionID,
		SessionDate: session.Date.Format(models.DateLayout),
		StartTime:   session.StartTime,
		Reason:      rec.Notes,
		Source:      source,
		DeclinedAt:  s.opts.Now(),
	}

	if err := s.publisher.PublishDeclined(event); err != nil {
		s.log.Warn("Failed to publish decline",
			slog.String("session_id", rec.SessionID),
			slog.String("coach_id", rec.CoachID),
			sl.Err(err),
		)
	}
}
