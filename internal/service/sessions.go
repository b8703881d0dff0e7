package service

import (
	"context"
	"fmt"

	"coach-schedule/api"
	"coach-schedule/internal/availability"
	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"

	"github.com/google/uuid"
)

// CreateSession adds a one-off session that no rule owns.
func (s *Service) CreateSession(ctx context.Context, req *api.SessionRequest) (*api.SessionResponse, error) {
	const op = "service.CreateSession"

	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	start, err := parseClock("start_time", req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = defaultDurationMinutes
	}
	if duration < 0 {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("duration_minutes", "must be positive"))
	}

	session := &models.Session{
		ID:              uuid.NewString(),
		Date:            date,
		StartTime:       start,
		DurationMinutes: duration,
		GroupRef:        req.GroupRef,
		VenueRef:        req.VenueRef,
		Status:          models.SESSION_PLANNED,
		Notes:           req.Notes,
	}

	err = s.store.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.CreateSession(ctx, session); err != nil {
			return err
		}
		if req.GroupRef == nil {
			return nil
		}

		players, err := s.roster.ActiveMembers(ctx, *req.GroupRef)
		if err != nil {
			return err
		}

		return s.store.AddAttendees(ctx, session.ID, players)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetSession(ctx, session.ID)
}

func (s *Service) GetSession(ctx context.Context, id string) (*api.SessionResponse, error) {
	const op = "service.GetSession"

	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toSessionResponse(session)

	return &resp, nil
}

// ListDay returns a day's sessions in venue, then start time order.
func (s *Service) ListDay(ctx context.Context, day string) ([]api.SessionResponse, error) {
	const op = "service.ListDay"

	date := s.today()
	if day != "" {
		var err error
		if date, err = parseDate("date", day); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	sessions, err := s.store.ListSessions(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	availability.SortSessions(sessions)

	assignments, err := s.store.ListAssignments(ctx, sessionIDs(sessions))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bySession := make(map[string][]api.AssignedCoach)
	for _, a := range assignments {
		bySession[a.SessionID] = append(bySession[a.SessionID], api.AssignedCoach{
			CoachID:                a.CoachID,
			Name:                   a.CoachName,
			IsHeadCoach:            a.IsHeadCoach,
			PlannedDurationMinutes: a.PlannedDurationMinutes,
		})
	}

	out := make([]api.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp := toSessionResponse(session)
		resp.Coaches = bySession[session.ID]
		out = append(out, resp)
	}

	return out, nil
}

func (s *Service) CancelSession(ctx context.Context, id string, cancelled bool) (*api.SessionResponse, error) {
	const op = "service.CancelSession"

	if err := s.store.SetSessionCancelled(ctx, id, cancelled); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetSession(ctx, id)
}

func (s *Service) SetSessionStatus(ctx context.Context, id string, status string) (*api.SessionResponse, error) {
	const op = "service.SetSessionStatus"

	st := models.SessionStatus(status)
	if !st.Valid() {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("status", "must be planned, active or finished"))
	}

	if err := s.store.SetSessionStatus(ctx, id, st); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetSession(ctx, id)
}

// DeleteSession removes a session with its assignments and availability.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	const op = "service.DeleteSession"

	if err := s.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
