package postgres

import (
	"context"
	"fmt"
)

// schema is applied statement by statement. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS coaches (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		email     TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS venues (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS groups (
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		group_id  TEXT NOT NULL REFERENCES groups(id) ON DELETE CASCADE,
		player_id TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (group_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS rules (
		id               TEXT PRIMARY KEY,
		group_ref        TEXT NOT NULL REFERENCES groups(id),
		weekday          SMALLINT NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		start_time       TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 60 CHECK (duration_minutes > 0),
		venue_ref        TEXT REFERENCES venues(id) ON DELETE SET NULL,
		is_active        BOOLEAN NOT NULL DEFAULT TRUE,
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT rules_slot_uq UNIQUE (group_ref, weekday, start_time)
	)`,
	`CREATE TABLE IF NOT EXISTS rule_coaches (
		rule_id  TEXT NOT NULL REFERENCES rules(id) ON DELETE CASCADE,
		coach_id TEXT NOT NULL REFERENCES coaches(id) ON DELETE CASCADE,
		PRIMARY KEY (rule_id, coach_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id               TEXT PRIMARY KEY,
		session_date     DATE NOT NULL,
		start_time       TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 60 CHECK (duration_minutes > 0),
		group_ref        TEXT REFERENCES groups(id) ON DELETE SET NULL,
		venue_ref        TEXT REFERENCES venues(id) ON DELETE SET NULL,
		source_rule_id   TEXT REFERENCES rules(id) ON DELETE SET NULL,
		is_cancelled     BOOLEAN NOT NULL DEFAULT FALSE,
		status           TEXT NOT NULL DEFAULT 'planned',
		notes            TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS sessions_rule_date_uq
		ON sessions (source_rule_id, session_date) WHERE source_rule_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS sessions_date_idx ON sessions (session_date)`,
	`CREATE TABLE IF NOT EXISTS session_attendees (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		player_id  TEXT NOT NULL,
		PRIMARY KEY (session_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		session_id               TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		coach_id                 TEXT NOT NULL REFERENCES coaches(id) ON DELETE CASCADE,
		planned_duration_minutes INTEGER NOT NULL CHECK (planned_duration_minutes > 0),
		is_head_coach            BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (session_id, coach_id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS assignments_head_coach_uq
		ON assignments (session_id) WHERE is_head_coach`,
	`CREATE INDEX IF NOT EXISTS assignments_coach_idx ON assignments (coach_id)`,
	`CREATE TABLE IF NOT EXISTS coach_availability (
		coach_id          TEXT NOT NULL REFERENCES coaches(id) ON DELETE CASCADE,
		session_id        TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		status            TEXT NOT NULL DEFAULT 'PENDING',
		last_action       TEXT NOT NULL DEFAULT 'NONE',
		notes             TEXT NOT NULL DEFAULT '',
		status_updated_at TIMESTAMPTZ,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (coach_id, session_id),
		CONSTRAINT availability_action_consistent CHECK (
			(last_action <> 'CONFIRM' OR status IN ('AVAILABLE', 'EMERGENCY')) AND
			(last_action <> 'DECLINE' OR status = 'UNAVAILABLE')
		)
	)`,
}

func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	return s.InTx(ctx, func(ctx context.Context) error {
		for i, stmt := range schema {
			if _, err := s.q(ctx).ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: statement %d: %w", op, i, err)
			}
		}
		return nil
	})
}
