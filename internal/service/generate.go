package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coach-schedule/api"
	"coach-schedule/internal/lock"
	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"
	"coach-schedule/pkg/sl"

	"github.com/google/uuid"
)

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeLinked
	outcomeExists
	outcomeManualClash
)

// GenerateSessions materialises sessions for every active rule (or the given
// rules) on each matching date in [start, end]. Re-running over the same range
// creates nothing new.
func (s *Service) GenerateSessions(ctx context.Context, req *api.GenerateRequest) (*api.GenerateResult, error) {
	const op = "service.GenerateSessions"

	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%s: %w", op, response.NewFieldError("end_date", "must not be before start_date"))
	}

	result := &api.GenerateResult{Details: []string{}}

	err = lock.Run(ctx, s.locker, lock.GenerateKey, s.opts.LockTTL, func() error {
		return s.store.InTx(ctx, func(ctx context.Context) error {
			rules, err := s.store.ListRules(ctx, req.RuleIDs, true)
			if err != nil {
				return err
			}

			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				wd := weekdayIndex(d)

				for _, rule := range rules {
					if rule.Weekday != wd {
						continue
					}

					var res outcome
					var clashID string

					err := s.store.Savepoint(ctx, func(ctx context.Context) error {
						var err error
						res, clashID, err = s.generateOne(ctx, rule, d, req.Overwrite)
						return err
					})

					day := d.Format(models.DateLayout)

					if err != nil {
						result.Errors++
						result.Details = append(result.Details, fmt.Sprintf("Error generating %s on %s: %v", rule.GroupName, day, err))
						s.log.Warn("Failed to generate session",
							slog.String("rule_id", rule.ID),
							slog.String("date", day),
							sl.Err(err),
						)
						continue
					}

					switch res {
					case outcomeCreated:
						result.Created++
					case outcomeLinked:
						result.Created++
						result.Details = append(result.Details, fmt.Sprintf("Linked existing session %s on %s to rule %s", clashID, day, rule.ID))
					case outcomeManualClash:
						result.SkippedExists++
						result.Details = append(result.Details, fmt.Sprintf("Skipped %s on %s at %s: manual session %s already occupies the slot", rule.GroupName, day, rule.StartTime, clashID))
					default:
						result.SkippedExists++
					}
				}
			}

			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("Sessions generated",
		slog.Int("created", result.Created),
		slog.Int("skipped_exists", result.SkippedExists),
		slog.Int("errors", result.Errors),
	)

	return result, nil
}

func (s *Service) generateOne(ctx context.Context, rule *models.Rule, date time.Time, overwrite bool) (outcome, string, error) {
	existing, err := s.store.FindRuleSession(ctx, rule.ID, date)
	if err != nil {
		return 0, "", err
	}
	if existing != nil {
		return outcomeExists, existing.ID, nil
	}

	clash, err := s.store.FindManualClash(ctx, rule.GroupRef, date, rule.StartTime)
	if err != nil {
		return 0, "", err
	}
	if clash != nil {
		if !overwrite {
			return outcomeManualClash, clash.ID, nil
		}
		if err := s.store.LinkSessionToRule(ctx, clash.ID, rule.ID); err != nil {
			return 0, "", err
		}
		return outcomeLinked, clash.ID, nil
	}

	groupRef := rule.GroupRef
	ruleID := rule.ID
	session := &models.Session{
		ID:              uuid.NewString(),
		Date:            date,
		StartTime:       rule.StartTime,
		DurationMinutes: rule.DurationMinutes,
		GroupRef:        &groupRef,
		VenueRef:        rule.VenueRef,
		SourceRuleID:    &ruleID,
		Status:          models.SESSION_PLANNED,
	}

	created, err := s.store.CreateSession(ctx, session)
	if err != nil {
		return 0, "", err
	}
	if !created {
		// lost a race with a concurrent generator
		return outcomeExists, "", nil
	}

	if len(rule.DefaultCoaches) > 0 {
		items := make([]models.Assignment, 0, len(rule.DefaultCoaches))
		for _, coachID := range rule.DefaultCoaches {
			items = append(items, models.Assignment{
				SessionID:              session.ID,
				CoachID:                coachID,
				PlannedDurationMinutes: rule.DurationMinutes,
			})
		}
		if err := s.store.UpsertAssignments(ctx, items, false); err != nil {
			return 0, "", err
		}
	}

	players, err := s.roster.ActiveMembers(ctx, rule.GroupRef)
	if err != nil {
		return 0, "", err
	}
	if err := s.store.AddAttendees(ctx, session.ID, players); err != nil {
		return 0, "", err
	}

	return outcomeCreated, session.ID, nil
}
