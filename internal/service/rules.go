package service

import (
	"context"
	"errors"
	"fmt"

	"coach-schedule/api"
	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"

	"github.com/google/uuid"
)

const defaultDurationMinutes = 60

func ruleFromRequest(req *api.RuleRequest) (*models.Rule, error) {
	if req.GroupRef == "" {
		return nil, response.NewFieldError("group_ref", "is required")
	}
	if req.Weekday == nil || *req.Weekday < 0 || *req.Weekday > 6 {
		return nil, response.NewFieldError("weekday", "must be between 0 (Monday) and 6 (Sunday)")
	}

	start, err := parseClock("start_time", req.StartTime)
	if err != nil {
		return nil, err
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = defaultDurationMinutes
	}
	if duration < 0 {
		return nil, response.NewFieldError("duration_minutes", "must be positive")
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	return &models.Rule{
		GroupRef:        req.GroupRef,
		Weekday:         *req.Weekday,
		StartTime:       start,
		DurationMinutes: duration,
		VenueRef:        req.VenueRef,
		IsActive:        active,
		Notes:           req.Notes,
		DefaultCoaches:  dedupe(req.DefaultCoaches),
	}, nil
}

func (s *Service) CreateRule(ctx context.Context, req *api.RuleRequest) (*api.RuleResponse, error) {
	const op = "service.CreateRule"

	rule, err := ruleFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rule.ID = uuid.NewString()

	if err := s.store.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetRule(ctx, rule.ID)
}

func (s *Service) GetRule(ctx context.Context, id string) (*api.RuleResponse, error) {
	const op = "service.GetRule"

	rule, err := s.store.GetRule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := toRuleResponse(rule)

	return &resp, nil
}

func (s *Service) ListRules(ctx context.Context, activeOnly bool) ([]api.RuleResponse, error) {
	const op = "service.ListRules"

	rules, err := s.store.ListRules(ctx, nil, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]api.RuleResponse, 0, len(rules))
	for _, r := range rules {
		out = append(out, toRuleResponse(r))
	}

	return out, nil
}

// UpdateRule replaces a rule's definition. Deactivating a rule stops future
// generation and leaves existing sessions untouched.
func (s *Service) UpdateRule(ctx context.Context, id string, req *api.RuleRequest) (*api.RuleResponse, error) {
	const op = "service.UpdateRule"

	if _, err := s.store.GetRule(ctx, id); err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rule, err := ruleFromRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rule.ID = id

	if err := s.store.UpdateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetRule(ctx, id)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
