package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"coach-schedule/api"
	"coach-schedule/internal/events"
	"coach-schedule/internal/lock"
	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"
)

type Service struct {
	store     Store
	roster    Roster
	locker    lock.Locker
	tokens    Tokens
	publisher events.Publisher
	log       *slog.Logger
	opts      Options
}

// Options carries every tunable the service reads. Nothing is taken from
// globals or the environment.
type Options struct {
	Location     *time.Location
	TravelTime   time.Duration
	FeedLookback time.Duration
	FeedHorizon  time.Duration
	FeedDomain   string
	SiteURL      string
	LockTTL      time.Duration
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.TravelTime == 0 {
		o.TravelTime = 30 * time.Minute
	}
	if o.FeedLookback == 0 {
		o.FeedLookback = 90 * 24 * time.Hour
	}
	if o.FeedHorizon == 0 {
		o.FeedHorizon = 365 * 24 * time.Hour
	}
	if o.FeedDomain == "" {
		o.FeedDomain = "squashsync.com"
	}
	if o.LockTTL == 0 {
		o.LockTTL = 2 * time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	o.SiteURL = strings.TrimRight(o.SiteURL, "/")

	return o
}

func NewService(store Store, roster Roster, locker lock.Locker, tokens Tokens, publisher events.Publisher, log *slog.Logger, opts Options) *Service {
	return &Service{
		store:     store,
		roster:    roster,
		locker:    locker,
		tokens:    tokens,
		publisher: publisher,
		log:       log,
		opts:      opts.withDefaults(),
	}
}

type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Savepoint(ctx context.Context, fn func(ctx context.Context) error) error

	// Rules
	CreateRule(ctx context.Context, rule *models.Rule) error
	UpdateRule(ctx context.Context, rule *models.Rule) error
	GetRule(ctx context.Context, id string) (*models.Rule, error)
	ListRules(ctx context.Context, ids []string, activeOnly bool) ([]*models.Rule, error)

	// Sessions
	FindRuleSession(ctx context.Context, ruleID string, date time.Time) (*models.Session, error)
	FindManualClash(ctx context.Context, groupRef string, date time.Time, startTime string) (*models.Session, error)
	LinkSessionToRule(ctx context.Context, sessionID, ruleID string) error
	CreateSession(ctx context.Context, session *models.Session) (bool, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, from, to time.Time) ([]*models.Session, error)
	ListRuleSessions(ctx context.Context, ruleIDs []string, from, to time.Time) ([]*models.Session, error)
	CoachSessions(ctx context.Context, coachID string, from, to time.Time) ([]*models.Session, error)
	SetSessionCancelled(ctx context.Context, id string, cancelled bool) error
	SetSessionStatus(ctx context.Context, id string, status models.SessionStatus) error
	DeleteSession(ctx context.Context, id string) error
	AddAttendees(ctx context.Context, sessionID string, playerIDs []string) error

	// Assignments
	UpsertAssignments(ctx context.Context, items []models.Assignment, overwrite bool) error
	RemoveAssignmentsExcept(ctx context.Context, sessionID string, keep []string) ([]string, error)
	DeleteAssignment(ctx context.Context, sessionID, coachID string) error
	ClearHeadCoach(ctx context.Context, sessionID string) error
	MarkHeadCoach(ctx context.Context, sessionID, coachID string) error
	ListAssignments(ctx context.Context, sessionIDs []string) ([]models.Assignment, error)

	// Availability
	GetAvailability(ctx context.Context, coachID string, sessionIDs []string) ([]models.AvailabilityRecord, error)
	LockAvailability(ctx context.Context, coachID string, sessionIDs []string) ([]models.AvailabilityRecord, error)
	ListSessionAvailability(ctx context.Context, sessionIDs []string) ([]models.AvailabilityRecord, error)
	UpsertAvailability(ctx context.Context, rec *models.AvailabilityRecord) error
	// UpsertUntouchedAvailability writes rec unless the stored record already
	// carries an explicit action. It reports whether rec was written.
	UpsertUntouchedAvailability(ctx context.Context, rec *models.AvailabilityRecord) (bool, error)

	// Directory
	GetCoach(ctx context.Context, id string) (*models.Coach, error)
	ListCoaches(ctx context.Context, ids []string) ([]*models.Coach, error)
}

// Roster resolves the active players of a group.
type Roster interface {
	ActiveMembers(ctx context.Context, groupRef string) ([]string, error)
}

type Tokens interface {
	SessionToken(coachID, sessionID string) (string, error)
	DayToken(coachID string, day time.Time) (string, error)
	FeedToken(coachID string) (string, error)
	VerifySession(raw, sessionID string) (string, error)
	VerifyDay(raw string, day time.Time) (string, error)
	VerifyFeed(raw string) (string, error)
}

// today is the current calendar date in the academy's timezone.
func (s *Service) today() time.Time {
	return dateOf(s.opts.Now().In(s.opts.Location))
}

// dateOf drops the clock part. Dates are carried as UTC midnights.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// weekdayIndex maps a date to 0 = Monday ... 6 = Sunday.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func weekStart(t time.Time) time.Time {
	d := dateOf(t)
	return d.AddDate(0, 0, -weekdayIndex(d))
}

func monthBounds(year, month int) (time.Time, time.Time) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.ParseInLocation(models.DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, response.NewFieldError(field, "must be a date in YYYY-MM-DD format")
	}

	return d, nil
}

func parseClock(field, value string) (string, error) {
	t, err := time.Parse(models.TimeLayout, value)
	if err != nil {
		return "", response.NewFieldError(field, "must be a time in HH:MM format")
	}

	return t.Format(models.TimeLayout), nil
}

// parseWeek accepts any date in the week, or empty for the current week.
func (s *Service) parseWeek(value string) (time.Time, error) {
	if value == "" {
		return weekStart(s.today()), nil
	}

	d, err := parseDate("week", value)
	if err != nil {
		return time.Time{}, err
	}

	return weekStart(d), nil
}

func toSessionResponse(session *models.Session) api.SessionResponse {
	return api.SessionResponse{
		ID:              session.ID,
		Date:            session.Date.Format(models.DateLayout),
		StartTime:       session.StartTime,
		DurationMinutes: session.DurationMinutes,
		GroupRef:        session.GroupRef,
		GroupName:       session.GroupLabel(),
		VenueRef:        session.VenueRef,
		VenueName:       session.VenueLabel(),
		SourceRuleID:    session.SourceRuleID,
		IsCancelled:     session.IsCancelled,
		Status:          string(session.Status),
		Notes:           session.Notes,
	}
}

func toRuleResponse(rule *models.Rule) api.RuleResponse {
	coaches := rule.DefaultCoaches
	if coaches == nil {
		coaches = []string{}
	}

	return api.RuleResponse{
		ID:              rule.ID,
		GroupRef:        rule.GroupRef,
		GroupName:       rule.GroupName,
		Weekday:         rule.Weekday,
		StartTime:       rule.StartTime,
		DurationMinutes: rule.DurationMinutes,
		VenueRef:        rule.VenueRef,
		VenueName:       rule.VenueName,
		DefaultCoaches:  coaches,
		IsActive:        rule.IsActive,
		Notes:           rule.Notes,
	}
}

func sessionIDs(sessions []*models.Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}

	return ids
}

func recordsByKey(records []models.AvailabilityRecord) map[string]map[string]*models.AvailabilityRecord {
	out := make(map[string]map[string]*models.AvailabilityRecord)
	for i := range records {
		r := &records[i]
		if out[r.SessionID] == nil {
			out[r.SessionID] = make(map[string]*models.AvailabilityRecord)
		}
		out[r.SessionID][r.CoachID] = r
	}

	return out
}
