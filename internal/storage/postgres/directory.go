package postgres

import (
	"context"
	"fmt"

	"coach-schedule/internal/models"

	"github.com/lib/pq"
)

// The coach, venue and roster tables belong to the identity and venue
// collaborators. This service only reads them.

func (s *Storage) GetCoach(ctx context.Context, id string) (*models.Coach, error) {
	const op = "storage.postgres.GetCoach"

	var coach models.Coach
	if err := s.q(ctx).GetContext(ctx, &coach, `SELECT id, name, email, is_active FROM coaches WHERE id = $1`, id); err != nil {
		return nil, mapErr(op, err)
	}

	return &coach, nil
}

func (s *Storage) ListCoaches(ctx context.Context, ids []string) ([]*models.Coach, error) {
	const op = "storage.postgres.ListCoaches"

	var coaches []*models.Coach
	var err error

	if len(ids) > 0 {
		err = s.q(ctx).SelectContext(ctx, &coaches,
			`SELECT id, name, email, is_active FROM coaches WHERE id = ANY($1) ORDER BY name`,
			pq.Array(ids),
		)
	} else {
		err = s.q(ctx).SelectContext(ctx, &coaches,
			`SELECT id, name, email, is_active FROM coaches WHERE is_active ORDER BY name`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return coaches, nil
}

// ActiveMembers lists the active players of a group.
func (s *Storage) ActiveMembers(ctx context.Context, groupRef string) ([]string, error) {
	const op = "storage.postgres.ActiveMembers"

	var players []string
	err := s.q(ctx).SelectContext(ctx, &players,
		`SELECT player_id FROM group_members WHERE group_id = $1 AND is_active ORDER BY player_id`,
		groupRef,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return players, nil
}
