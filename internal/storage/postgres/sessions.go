package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"

	"github.com/lib/pq"
)

const selectSessions = `
	SELECT s.id, s.session_date, s.start_time, s.duration_minutes, s.group_ref, g.name AS group_name,
		s.venue_ref, v.name AS venue_name, s.source_rule_id, s.is_cancelled, s.status, s.notes
	FROM sessions s
	LEFT JOIN groups g ON g.id = s.group_ref
	LEFT JOIN venues v ON v.id = s.venue_ref`

const sessionsOrder = ` ORDER BY s.session_date, s.start_time, s.id`

// FindRuleSession returns the session generated from ruleID on date, or nil.
func (s *Storage) FindRuleSession(ctx context.Context, ruleID string, date time.Time) (*models.Session, error) {
	const op = "storage.postgres.FindRuleSession"

	return s.findOne(ctx, op,
		selectSessions+` WHERE s.source_rule_id = $1 AND s.session_date = $2`,
		ruleID, date,
	)
}

// FindManualClash returns a manual session occupying the same group slot, or nil.
func (s *Storage) FindManualClash(ctx context.Context, groupRef string, date time.Time, startTime string) (*models.Session, error) {
	const op = "storage.postgres.FindManualClash"

	return s.findOne(ctx, op,
		selectSessions+` WHERE s.source_rule_id IS NULL AND s.group_ref = $1 AND s.session_date = $2 AND s.start_time = $3
		ORDER BY s.id LIMIT 1`,
		groupRef, date, startTime,
	)
}

func (s *Storage) findOne(ctx context.Context, op, query string, args ...any) (*models.Session, error) {
	var session models.Session

	err := s.q(ctx).GetContext(ctx, &session, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &session, nil
}

func (s *Storage) LinkSessionToRule(ctx context.Context, sessionID, ruleID string) error {
	const op = "storage.postgres.LinkSessionToRule"

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE sessions SET source_rule_id = $2 WHERE id = $1 AND source_rule_id IS NULL`,
		sessionID, ruleID,
	)
	if err != nil {
		return mapErr(op, err)
	}

	return expectOne(op, res)
}

// CreateSession inserts a session. A rule-generated session that already
// exists for the same date is left alone and reported as not created.
func (s *Storage) CreateSession(ctx context.Context, session *models.Session) (bool, error) {
	const op = "storage.postgres.CreateSession"

	res, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO sessions (id, session_date, start_time, duration_minutes, group_ref, venue_ref, source_rule_id, is_cancelled, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (source_rule_id, session_date) WHERE source_rule_id IS NOT NULL DO NOTHING`,
		session.ID,
		session.Date,
		session.StartTime,
		session.DurationMinutes,
		session.GroupRef,
		session.VenueRef,
		session.SourceRuleID,
		session.IsCancelled,
		string(session.Status),
		session.Notes,
	)
	if err != nil {
		return false, mapErr(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n == 1, nil
}

func (s *Storage) GetSession(ctx context.Context, id string) (*models.Session, error) {
	const op = "storage.postgres.GetSession"

	var session models.Session
	if err := s.q(ctx).GetContext(ctx, &session, selectSessions+` WHERE s.id = $1`, id); err != nil {
		return nil, mapErr(op, err)
	}

	return &session, nil
}

// ListSessions returns sessions with from <= date <= to.
func (s *Storage) ListSessions(ctx context.Context, from, to time.Time) ([]*models.Session, error) {
	const op = "storage.postgres.ListSessions"

	var sessions []*models.Session
	err := s.q(ctx).SelectContext(ctx, &sessions,
		selectSessions+` WHERE s.session_date BETWEEN $1 AND $2`+sessionsOrder,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

// ListRuleSessions returns generated sessions in the window. Empty ruleIDs
// means every rule.
func (s *Storage) ListRuleSessions(ctx context.Context, ruleIDs []string, from, to time.Time) ([]*models.Session, error) {
	const op = "storage.postgres.ListRuleSessions"

	var sessions []*models.Session
	var err error

	if len(ruleIDs) > 0 {
		err = s.q(ctx).SelectContext(ctx, &sessions,
			selectSessions+` WHERE s.source_rule_id = ANY($1) AND s.session_date BETWEEN $2 AND $3`+sessionsOrder,
			pq.Array(ruleIDs), from, to,
		)
	} else {
		err = s.q(ctx).SelectContext(ctx, &sessions,
			selectSessions+` WHERE s.source_rule_id IS NOT NULL AND s.session_date BETWEEN $1 AND $2`+sessionsOrder,
			from, to,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

// CoachSessions returns the sessions coachID is assigned to with from <= date <= to.
func (s *Storage) CoachSessions(ctx context.Context, coachID string, from, to time.Time) ([]*models.Session, error) {
	const op = "storage.postgres.CoachSessions"

	var sessions []*models.Session
	err := s.q(ctx).SelectContext(ctx, &sessions,
		selectSessions+`
		JOIN assignments a ON a.session_id = s.id
		WHERE a.coach_id = $1 AND s.session_date BETWEEN $2 AND $3`+sessionsOrder,
		coachID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return sessions, nil
}

func (s *Storage) SetSessionCancelled(ctx context.Context, id string, cancelled bool) error {
	const op = "storage.postgres.SetSessionCancelled"

	res, err := s.q(ctx).ExecContext(ctx, `UPDATE sessions SET is_cancelled = $2 WHERE id = $1`, id, cancelled)
	if err != nil {
		return mapErr(op, err)
	}

	return expectOne(op, res)
}

func (s *Storage) SetSessionStatus(ctx context.Context, id string, status models.SessionStatus) error {
	const op = "storage.postgres.SetSessionStatus"

	res, err := s.q(ctx).ExecContext(ctx, `UPDATE sessions SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return mapErr(op, err)
	}

	return expectOne(op, res)
}

func (s *Storage) DeleteSession(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteSession"

	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return mapErr(op, err)
	}

	return expectOne(op, res)
}

func (s *Storage) AddAttendees(ctx context.Context, sessionID string, playerIDs []string) error {
	const op = "storage.postgres.AddAttendees"

	if len(playerIDs) == 0 {
		return nil
	}

	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO session_attendees (session_id, player_id)
		SELECT $1, unnest($2::text[])
		ON CONFLICT DO NOTHING`,
		sessionID, pq.Array(playerIDs),
	)
	if err != nil {
		return mapErr(op, err)
	}

	return nil
}

func expectOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}
