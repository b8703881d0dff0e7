package postgres

import (
	"context"
	"fmt"

	"coach-schedule/internal/models"

	"github.com/lib/pq"
)

const (
	insertAssignment = `
		INSERT INTO assignments (session_id, coach_id, planned_duration_minutes)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, coach_id)`
	keepDuration      = ` DO NOTHING`
	overwriteDuration = ` DO UPDATE SET planned_duration_minutes = EXCLUDED.planned_duration_minutes`
)

// UpsertAssignments adds coaches to a session. Coaches already assigned keep
// their planned duration unless overwrite is set. The head-coach flag is never
// touched here.
func (s *Storage) UpsertAssignments(ctx context.Context, items []models.Assignment, overwrite bool) error {
	const op = "storage.postgres.UpsertAssignments"

	query := insertAssignment + keepDuration
	if overwrite {
		query = insertAssignment + overwriteDuration
	}

	for _, a := range items {
		_, err := s.q(ctx).ExecContext(ctx, query, a.SessionID, a.CoachID, a.PlannedDurationMinutes)
		if err != nil {
			return mapErr(op, err)
		}
	}

	return nil
}

// RemoveAssignmentsExcept deletes every assignment on the session whose coach
// is not in keep, returning the removed coach ids.
func (s *Storage) RemoveAssignmentsExcept(ctx context.Context, sessionID string, keep []string) ([]string, error) {
	const op = "storage.postgres.RemoveAssignmentsExcept"

	if keep == nil {
		keep = []string{}
	}

	var removed []string
	err := s.q(ctx).SelectContext(ctx, &removed, `
		DELETE FROM assignments
		WHERE session_id = $1 AND NOT (coach_id = ANY($2))
		RETURNING coach_id`,
		sessionID, pq.Array(keep),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return removed, nil
}

func (s *Storage) DeleteAssignment(ctx context.Context, sessionID, coachID string) error {
	const op = "storage.postgres.DeleteAssignment"

	res, err := s.q(ctx).ExecContext(ctx,
		`DELETE FROM assignments WHERE session_id = $1 AND coach_id = $2`,
		sessionID, coachID,
	)
	if err != nil {
		return mapErr(op, err)
	}

	return expectOne(op, res)
}

func (s *Storage) ClearHeadCoach(ctx context.Context, sessionID string) error {
	const op = "storage.postgres.ClearHeadCoach"

	_, err := s.q(ctx).ExecContext(ctx,
		`UPDATE assignments SET is_head_coach = FALSE WHERE session_id = $1 AND is_head_coach`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MarkHeadCoach flags an existing assignment. ErrNotFound means the coach is
// not assigned to the session.
func (s *Storage) MarkHeadCoach(ctx context.Context, sessionID, coachID string) error {
	const op = "storage.postgres.MarkHeadCoach"

	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE assignments SET is_head_coach = TRUE WHERE session_id = $1 AND coach_id = $2`,
		sessionID, coachID,
	)
	if err != nil {
		return mapErr(op, err)
	}

	return expectOne(op, res)
}

func (s *Storage) ListAssignments(ctx context.Context, sessionIDs []string) ([]models.Assignment, error) {
	const op = "storage.postgres.ListAssignments"

	if len(sessionIDs) == 0 {
		return nil, nil
	}

	var items []models.Assignment
	err := s.q(ctx).SelectContext(ctx, &items, `
		SELECT a.session_id, a.coach_id, c.name AS coach_name, a.planned_duration_minutes, a.is_head_coach
		FROM assignments a
		JOIN coaches c ON c.id = a.coach_id
		WHERE a.session_id = ANY($1)
		ORDER BY a.session_id, a.is_head_coach DESC, c.name`,
		pq.Array(sessionIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}
