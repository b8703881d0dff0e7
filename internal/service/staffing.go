package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"coach-schedule/api"
	"coach-schedule/internal/availability"
	"coach-schedule/internal/events"
	"coach-schedule/internal/lock"
	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"
	"coach-schedule/pkg/sl"
)

const (
	warningClash  = "clash"
	warningTravel = "travel"
)

// AssignCoaches adds coaches to a session. With Replace the assigned set
// becomes exactly req.CoachIDs. Availability records are never read or
// written here.
func (s *Service) AssignCoaches(ctx context.Context, sessionID string, req *api.AssignRequest) (*api.AssignResponse, error) {
	const op = "service.AssignCoaches"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	coachIDs := dedupe(req.CoachIDs)
	if len(coachIDs) == 0 && !req.Replace {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("coach_ids", "at least one coach is required"))
	}
	if err := s.checkCoaches(ctx, coachIDs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	planned := session.DurationMinutes
	if req.PlannedDurationMinutes != nil {
		planned = *req.PlannedDurationMinutes
	}

	var added, removed []string

	err = lock.Run(ctx, s.locker, lock.StaffingKey(sessionID), s.opts.LockTTL, func() error {
		return s.store.InTx(ctx, func(ctx context.Context) error {
			current, err := s.store.ListAssignments(ctx, []string{sessionID})
			if err != nil {
				return err
			}
			existing := make(map[string]struct{}, len(current))
			for _, a := range current {
				existing[a.CoachID] = struct{}{}
			}

			if req.Replace {
				if removed, err = s.store.RemoveAssignmentsExcept(ctx, sessionID, coachIDs); err != nil {
					return err
				}
			}

			items := make([]models.Assignment, 0, len(coachIDs))
			for _, coachID := range coachIDs {
				if _, ok := existing[coachID]; !ok {
					added = append(added, coachID)
				}
				items = append(items, models.Assignment{
					SessionID:              sessionID,
					CoachID:                coachID,
					PlannedDurationMinutes: planned,
				})
			}

			// a re-submitted coach keeps a custom duration unless one is given
			return s.store.UpsertAssignments(ctx, items, req.PlannedDurationMinutes != nil)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(added) > 0 || len(removed) > 0 {
		s.publishAssignment(events.AssignmentChangedEvent{SessionID: sessionID, Added: added, Removed: removed})
	}

	warnings, err := s.clashWarnings(ctx, session, added)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	staffing, err := s.GetSessionStaffing(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &api.AssignResponse{Staffing: *staffing, Warnings: warnings}, nil
}

func (s *Service) checkCoaches(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	coaches, err := s.store.ListCoaches(ctx, ids)
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(coaches))
	for _, c := range coaches {
		known[c.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return response.NewFieldError("coach_ids", fmt.Sprintf("unknown coach %s", id))
		}
	}

	return nil
}

// UnassignCoach removes one coach from a session. Their availability record
// for the session is kept.
func (s *Service) UnassignCoach(ctx context.Context, sessionID, coachID string) error {
	const op = "service.UnassignCoach"

	err := lock.Run(ctx, s.locker, lock.StaffingKey(sessionID), s.opts.LockTTL, func() error {
		return s.store.DeleteAssignment(ctx, sessionID, coachID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publishAssignment(events.AssignmentChangedEvent{SessionID: sessionID, Removed: []string{coachID}})

	return nil
}

// SetHeadCoach makes coachID the only head coach of the session, or clears
// the head coach when coachID is nil.
func (s *Service) SetHeadCoach(ctx context.Context, sessionID string, coachID *string) (*api.SessionStaffing, error) {
	const op = "service.SetHeadCoach"

	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	changed := false
	err := lock.Run(ctx, s.locker, lock.StaffingKey(sessionID), s.opts.LockTTL, func() error {
		return s.store.InTx(ctx, func(ctx context.Context) error {
			current, err := s.currentHeadCoach(ctx, sessionID)
			if err != nil {
				return err
			}
			if sameCoach(current, coachID) {
				return nil
			}
			changed = true

			if err := s.store.ClearHeadCoach(ctx, sessionID); err != nil {
				return err
			}
			if coachID == nil {
				return nil
			}

			err = s.store.MarkHeadCoach(ctx, sessionID, *coachID)
			if errors.Is(err, response.ErrNotFound) {
				return response.NewFieldError("coach_id", "coach is not assigned to this session")
			}

			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if changed {
		s.publishAssignment(events.AssignmentChangedEvent{SessionID: sessionID, HeadCoach: coachID})
	}

	return s.GetSessionStaffing(ctx, sessionID)
}

func (s *Service) currentHeadCoach(ctx context.Context, sessionID string) (*string, error) {
	assigned, err := s.store.ListAssignments(ctx, []string{sessionID})
	if err != nil {
		return nil, err
	}
	for _, a := range assigned {
		if a.IsHeadCoach {
			id := a.CoachID
			return &id, nil
		}
	}

	return nil, nil
}

func sameCoach(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func (s *Service) GetSessionStaffing(ctx context.Context, sessionID string) (*api.SessionStaffing, error) {
	const op = "service.GetSessionStaffing"

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	staffing, err := s.buildStaffing(ctx, []*models.Session{session})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := staffing[session.ID]

	return &out, nil
}

// StaffingWeek returns seven days of non-cancelled sessions starting on the
// Monday of week, each with its coaches, volunteers and tallies.
func (s *Service) StaffingWeek(ctx context.Context, week string) (*api.StaffingWeek, error) {
	const op = "service.StaffingWeek"

	start, err := s.parseWeek(week)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	end := start.AddDate(0, 0, 6)

	all, err := s.store.ListSessions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sessions := make([]*models.Session, 0, len(all))
	for _, session := range all {
		if !session.IsCancelled {
			sessions = append(sessions, session)
		}
	}
	availability.SortSessions(sessions)

	staffing, err := s.buildStaffing(ctx, sessions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := &api.StaffingWeek{
		WeekStart: start.Format(models.DateLayout),
		WeekEnd:   end.Format(models.DateLayout),
		Days:      make([]api.StaffingDay, 7),
	}
	for i := range out.Days {
		d := start.AddDate(0, 0, i)
		out.Days[i] = api.StaffingDay{
			Date:     d.Format(models.DateLayout),
			Weekday:  weekdayNames[i],
			Sessions: []api.SessionStaffing{},
		}
	}
	for _, session := range sessions {
		i := int(dateOf(session.Date).Sub(start).Hours() / 24)
		out.Days[i].Sessions = append(out.Days[i].Sessions, staffing[session.ID])
	}

	return out, nil
}

func (s *Service) buildStaffing(ctx context.Context, sessions []*models.Session) (map[string]api.SessionStaffing, error) {
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

	assigned := make(map[string][]models.Assignment)
	for _, a := range assignments {
		assigned[a.SessionID] = append(assigned[a.SessionID], a)
	}

	// volunteers are coaches with a record but no assignment
	var volunteerIDs []string
	seen := make(map[string]struct{})
	for _, r := range records {
		if isAssigned(assigned[r.SessionID], r.CoachID) {
			continue
		}
		if _, ok := seen[r.CoachID]; !ok {
			seen[r.CoachID] = struct{}{}
			volunteerIDs = append(volunteerIDs, r.CoachID)
		}
	}

	names := make(map[string]string)
	if len(volunteerIDs) > 0 {
		coaches, err := s.store.ListCoaches(ctx, volunteerIDs)
		if err != nil {
			return nil, err
		}
		for _, c := range coaches {
			names[c.ID] = c.Name
		}
	}

	out := make(map[string]api.SessionStaffing, len(sessions))
	for _, session := range sessions {
		recs := byKey[session.ID]

		st := api.SessionStaffing{
			Session:    toSessionResponse(session),
			Assigned:   []api.AssignedCoach{},
			Volunteers: []api.VolunteerCoach{},
		}

		coachIDs := make([]string, 0, len(assigned[session.ID]))
		for _, a := range assigned[session.ID] {
			rec := recs[a.CoachID]
			coach := api.AssignedCoach{
				CoachID:                a.CoachID,
				Name:                   a.CoachName,
				IsHeadCoach:            a.IsHeadCoach,
				PlannedDurationMinutes: a.PlannedDurationMinutes,
				State:                  string(availability.StateOf(rec)),
				EffectiveStatus:        string(availability.Effective(rec, true)),
			}
			if rec != nil {
				coach.Notes = rec.Notes
			}
			st.Assigned = append(st.Assigned, coach)
			coachIDs = append(coachIDs, a.CoachID)
		}

		for coachID, rec := range recs {
			if isAssigned(assigned[session.ID], coachID) {
				continue
			}
			eff := availability.Effective(rec, false)
			if eff != models.STATUS_AVAILABLE && eff != models.STATUS_EMERGENCY {
				continue
			}
			st.Volunteers = append(st.Volunteers, api.VolunteerCoach{
				CoachID: coachID,
				Name:    names[coachID],
				Status:  string(eff),
				Notes:   rec.Notes,
			})
		}
		sort.Slice(st.Volunteers, func(i, j int) bool {
			a, b := st.Volunteers[i], st.Volunteers[j]
			ea, eb := a.Status == string(models.STATUS_EMERGENCY), b.Status == string(models.STATUS_EMERGENCY)
			if ea != eb {
				return eb
			}
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.CoachID < b.CoachID
		})

		t := availability.Count(coachIDs, recs)
		st.Tally = api.Tally{Confirmed: t.Confirmed, Declined: t.Declined, Pending: t.Pending, Total: t.Total}

		out[session.ID] = st
	}

	return out, nil
}

func isAssigned(assignments []models.Assignment, coachID string) bool {
	for _, a := range assignments {
		if a.CoachID == coachID {
			return true
		}
	}

	return false
}

// clashWarnings reports, for each newly added coach, other sessions that day
// which overlap the session or leave too little time to travel between venues.
func (s *Service) clashWarnings(ctx context.Context, session *models.Session, coachIDs []string) ([]api.Warning, error) {
	var warnings []api.Warning

	loc := s.opts.Location
	start, end := session.StartAt(loc), session.EndAt(loc)

	for _, coachID := range coachIDs {
		others, err := s.store.CoachSessions(ctx, coachID, session.Date, session.Date)
		if err != nil {
			return nil, err
		}

		for _, other := range others {
			if other.ID == session.ID || other.IsCancelled {
				continue
			}

			oStart, oEnd := other.StartAt(loc), other.EndAt(loc)

			if start.Before(oEnd) && oStart.Before(end) {
				warnings = append(warnings, api.Warning{
					CoachID:   coachID,
					Kind:      warningClash,
					SessionID: other.ID,
					Message:   fmt.Sprintf("Overlaps %s at %s", other.GroupLabel(), other.StartTime),
				})
				continue
			}

			if !differentVenues(session, other) {
				continue
			}

			gap := oStart.Sub(end)
			if oStart.Before(start) {
				gap = start.Sub(oEnd)
			}
			if gap < s.opts.TravelTime {
				warnings = append(warnings, api.Warning{
					CoachID:   coachID,
					Kind:      warningTravel,
					SessionID: other.ID,
					Message: fmt.Sprintf("Only %d minutes to travel between %s and %s",
						int(gap/time.Minute), session.VenueLabel(), other.VenueLabel()),
				})
			}
		}
	}

	return warnings, nil
}

func differentVenues(a, b *models.Session) bool {
	if a.VenueRef == nil || b.VenueRef == nil {
		return false
	}

	return *a.VenueRef != *b.VenueRef
}

func (s *Service) publishAssignment(event events.AssignmentChangedEvent) {
	event.ChangedAt = s.opts.Now()

	if err := s.publisher.PublishAssignmentChanged(event); err != nil {
		s.log.Warn("Failed to publish assignment change",
			slog.String("session_id", event.SessionID),
			sl.Err(err),
		)
	}
}
