package postgres

import (
	"context"
	"fmt"

	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"

	"github.com/lib/pq"
)

const selectRules = `
	SELECT r.id, r.group_ref, g.name AS group_name, r.weekday, r.start_time, r.duration_minutes,
		r.venue_ref, v.name AS venue_name, r.is_active, r.notes, r.created_at
	FROM rules r
	JOIN groups g ON g.id = r.group_ref
	LEFT JOIN venues v ON v.id = r.venue_ref`

const rulesOrder = ` ORDER BY r.group_ref, r.weekday, r.start_time`

func (s *Storage) CreateRule(ctx context.Context, rule *models.Rule) error {
	const op = "storage.postgres.CreateRule"

	return s.InTx(ctx, func(ctx context.Context) error {
		_, err := s.q(ctx).ExecContext(ctx, `
			INSERT INTO rules (id, group_ref, weekday, start_time, duration_minutes, venue_ref, is_active, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rule.ID,
			rule.GroupRef,
			rule.Weekday,
			rule.StartTime,
			rule.DurationMinutes,
			rule.VenueRef,
			rule.IsActive,
			rule.Notes,
		)
		if err != nil {
			return mapErr(op, err)
		}

		return s.replaceRuleCoaches(ctx, rule.ID, rule.DefaultCoaches)
	})
}

func (s *Storage) UpdateRule(ctx context.Context, rule *models.Rule) error {
	const op = "storage.postgres.UpdateRule"

	return s.InTx(ctx, func(ctx context.Context) error {
		res, err := s.q(ctx).ExecContext(ctx, `
			UPDATE rules
			SET group_ref = $2, weekday = $3, start_time = $4, duration_minutes = $5,
				venue_ref = $6, is_active = $7, notes = $8
			WHERE id = $1`,
			rule.ID,
			rule.GroupRef,
			rule.Weekday,
			rule.StartTime,
			rule.DurationMinutes,
			rule.VenueRef,
			rule.IsActive,
			rule.Notes,
		)
		if err != nil {
			return mapErr(op, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if n == 0 {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}

		return s.replaceRuleCoaches(ctx, rule.ID, rule.DefaultCoaches)
	})
}

func (s *Storage) replaceRuleCoaches(ctx context.Context, ruleID string, coachIDs []string) error {
	const op = "storage.postgres.replaceRuleCoaches"

	if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM rule_coaches WHERE rule_id = $1`, ruleID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, coachID := range coachIDs {
		_, err := s.q(ctx).ExecContext(ctx,
			`INSERT INTO rule_coaches (rule_id, coach_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			ruleID, coachID,
		)
		if err != nil {
			return mapErr(op, err)
		}
	}

	return nil
}

func (s *Storage) GetRule(ctx context.Context, id string) (*models.Rule, error) {
	const op = "storage.postgres.GetRule"

	var rule models.Rule
	if err := s.q(ctx).GetContext(ctx, &rule, selectRules+` WHERE r.id = $1`, id); err != nil {
		return nil, mapErr(op, err)
	}

	if err := s.loadRuleCoaches(ctx, []*models.Rule{&rule}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &rule, nil
}

// ListRules returns rules in generation order. Empty ids means all rules.
func (s *Storage) ListRules(ctx context.Context, ids []string, activeOnly bool) ([]*models.Rule, error) {
	const op = "storage.postgres.ListRules"

	var rules []*models.Rule
	var err error

	switch {
	case len(ids) > 0:
		err = s.q(ctx).SelectContext(ctx, &rules,
			selectRules+` WHERE r.id = ANY($1) AND (NOT $2 OR r.is_active)`+rulesOrder,
			pq.Array(ids), activeOnly,
		)
	default:
		err = s.q(ctx).SelectContext(ctx, &rules,
			selectRules+` WHERE (NOT $1 OR r.is_active)`+rulesOrder,
			activeOnly,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.loadRuleCoaches(ctx, rules); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rules, nil
}

func (s *Storage) loadRuleCoaches(ctx context.Context, rules []*models.Rule) error {
	if len(rules) == 0 {
		return nil
	}

	byID := make(map[string]*models.Rule, len(rules))
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	var links []struct {
		RuleID  string `db:"rule_id"`
		CoachID string `db:"coach_id"`
	}

	err := s.q(ctx).SelectContext(ctx, &links,
		`SELECT rule_id, coach_id FROM rule_coaches WHERE rule_id = ANY($1) ORDER BY rule_id, coach_id`,
		pq.Array(ids),
	)
	if err != nil {
		return err
	}

	for _, l := range links {
		if r, ok := byID[l.RuleID]; ok {
			r.DefaultCoaches = append(r.DefaultCoaches, l.CoachID)
		}
	}

	return nil
}
