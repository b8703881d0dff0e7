package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"coach-schedule/internal/models"

	"github.com/lib/pq"
)

const selectAvailability = `
	SELECT coach_id, session_id, status, last_action, notes, status_updated_at, updated_at
	FROM coach_availability`

// GetAvailability returns the stored records of one coach. Sessions the coach
// never touched are simply absent.
func (s *Storage) GetAvailability(ctx context.Context, coachID string, sessionIDs []string) ([]models.AvailabilityRecord, error) {
	const op = "storage.postgres.GetAvailability"

	return s.selectAvailability(ctx, op,
		selectAvailability+` WHERE coach_id = $1 AND session_id = ANY($2)`,
		coachID, sessionIDs,
	)
}

// LockAvailability is GetAvailability with row locks, for read-modify-write
// inside a transaction.
func (s *Storage) LockAvailability(ctx context.Context, coachID string, sessionIDs []string) ([]models.AvailabilityRecord, error) {
	const op = "storage.postgres.LockAvailability"

	return s.selectAvailability(ctx, op,
		selectAvailability+` WHERE coach_id = $1 AND session_id = ANY($2) FOR UPDATE`,
		coachID, sessionIDs,
	)
}

// ListSessionAvailability returns every coach's records for the sessions.
func (s *Storage) ListSessionAvailability(ctx context.Context, sessionIDs []string) ([]models.AvailabilityRecord, error) {
	const op = "storage.postgres.ListSessionAvailability"

	if len(sessionIDs) == 0 {
		return nil, nil
	}

	var records []models.AvailabilityRecord
	err := s.q(ctx).SelectContext(ctx, &records,
		selectAvailability+` WHERE session_id = ANY($1) ORDER BY session_id, coach_id`,
		pq.Array(sessionIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

func (s *Storage) selectAvailability(ctx context.Context, op, query, coachID string, sessionIDs []string) ([]models.AvailabilityRecord, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}

	var records []models.AvailabilityRecord
	if err := s.q(ctx).SelectContext(ctx, &records, query, coachID, pq.Array(sessionIDs)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

const upsertAvailability = `
	INSERT INTO coach_availability (coach_id, session_id, status, last_action, notes, status_updated_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (coach_id, session_id)
	DO UPDATE SET status = EXCLUDED.status,
		last_action = EXCLUDED.last_action,
		notes = EXCLUDED.notes,
		status_updated_at = EXCLUDED.status_updated_at,
		updated_at = EXCLUDED.updated_at`

func (s *Storage) UpsertAvailability(ctx context.Context, rec *models.AvailabilityRecord) error {
	const op = "storage.postgres.UpsertAvailability"

	if _, err := s.execAvailability(ctx, upsertAvailability, rec); err != nil {
		return mapErr(op, err)
	}

	return nil
}

// UpsertUntouchedAvailability is the bulk write. A row that gained an
// explicit action after it was read, including one inserted by a concurrent
// confirm, is left alone and false is returned.
func (s *Storage) UpsertUntouchedAvailability(ctx context.Context, rec *models.AvailabilityRecord) (bool, error) {
	const op = "storage.postgres.UpsertUntouchedAvailability"

	res, err := s.execAvailability(ctx, upsertAvailability+`
	WHERE coach_availability.last_action = 'NONE'`, rec)
	if err != nil {
		return false, mapErr(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return n > 0, nil
}

func (s *Storage) execAvailability(ctx context.Context, query string, rec *models.AvailabilityRecord) (sql.Result, error) {
	return s.q(ctx).ExecContext(ctx, query,
		rec.CoachID,
		rec.SessionID,
		string(rec.Status),
		string(rec.LastAction),
		rec.Notes,
		rec.StatusUpdatedAt,
		rec.UpdatedAt,
	)
}
