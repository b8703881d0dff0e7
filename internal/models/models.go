package models

import "time"

// DateLayout and TimeLayout are the wire and storage formats for session dates and start times.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type AvailabilityStatus string

const (
	STATUS_PENDING     AvailabilityStatus = "PENDING"
	STATUS_AVAILABLE   AvailabilityStatus = "AVAILABLE"
	STATUS_UNAVAILABLE AvailabilityStatus = "UNAVAILABLE"
	STATUS_EMERGENCY   AvailabilityStatus = "EMERGENCY"

	// STATUS_MIXED is display-only, produced by rule aggregation. It is never stored.
	STATUS_MIXED AvailabilityStatus = "MIXED"
)

func (s AvailabilityStatus) Valid() bool {
	switch s {
	case STATUS_PENDING, STATUS_AVAILABLE, STATUS_UNAVAILABLE, STATUS_EMERGENCY:
		return true
	}

	return false
}

type LastAction string

const (
	ACTION_NONE    LastAction = "NONE"
	ACTION_CONFIRM LastAction = "CONFIRM"
	ACTION_DECLINE LastAction = "DECLINE"
)

type SessionStatus string

const (
	SESSION_PLANNED  SessionStatus = "planned"
	SESSION_ACTIVE   SessionStatus = "active"
	SESSION_FINISHED SessionStatus = "finished"
)

func (s SessionStatus) Valid() bool {
	return s == SESSION_PLANNED || s == SESSION_ACTIVE || s == SESSION_FINISHED
}

// Rule is a weekly recurrence. Weekday 0 is Monday.
type Rule struct {
	ID              string    `db:"id"`
	GroupRef        string    `db:"group_ref"`
	GroupName       string    `db:"group_name"`
	Weekday         int       `db:"weekday"`
	StartTime       string    `db:"start_time"`
	DurationMinutes int       `db:"duration_minutes"`
	VenueRef        *string   `db:"venue_ref"`
	VenueName       *string   `db:"venue_name"`
	IsActive        bool      `db:"is_active"`
	Notes           string    `db:"notes"`
	CreatedAt       time.Time `db:"created_at"`
	DefaultCoaches  []string  `db:"-"`
}

type Session struct {
	ID              string        `db:"id"`
	Date            time.Time     `db:"session_date"`
	StartTime       string        `db:"start_time"`
	DurationMinutes int           `db:"duration_minutes"`
	GroupRef        *string       `db:"group_ref"`
	GroupName       *string       `db:"group_name"`
	VenueRef        *string       `db:"venue_ref"`
	VenueName       *string       `db:"venue_name"`
	SourceRuleID    *string       `db:"source_rule_id"`
	IsCancelled     bool          `db:"is_cancelled"`
	Status          SessionStatus `db:"status"`
	Notes           string        `db:"notes"`
}

// StartAt combines the session date and start time in loc.
func (s *Session) StartAt(loc *time.Location) time.Time {
	t, err := time.Parse(TimeLayout, s.StartTime)
	if err != nil {
		return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, loc)
	}

	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

func (s *Session) EndAt(loc *time.Location) time.Time {
	return s.StartAt(loc).Add(time.Duration(s.DurationMinutes) * time.Minute)
}

func (s *Session) VenueLabel() string {
	if s.VenueName == nil {
		return ""
	}

	return *s.VenueName
}

func (s *Session) GroupLabel() string {
	if s.GroupName != nil && *s.GroupName != "" {
		return *s.GroupName
	}
	if s.GroupRef != nil {
		return *s.GroupRef
	}

	return "General session"
}

type Assignment struct {
	SessionID              string `db:"session_id"`
	CoachID                string `db:"coach_id"`
	CoachName              string `db:"coach_name"`
	PlannedDurationMinutes int    `db:"planned_duration_minutes"`
	IsHeadCoach            bool   `db:"is_head_coach"`
}

// AvailabilityRecord is absent until a coach first touches a session.
type AvailabilityRecord struct {
	CoachID         string             `db:"coach_id"`
	SessionID       string             `db:"session_id"`
	Status          AvailabilityStatus `db:"status"`
	LastAction      LastAction         `db:"last_action"`
	Notes           string             `db:"notes"`
	StatusUpdatedAt *time.Time         `db:"status_updated_at"`
	UpdatedAt       time.Time          `db:"updated_at"`
}

// DefaultRecord is what a missing record reads as.
func DefaultRecord(coachID, sessionID string) AvailabilityRecord {
	return AvailabilityRecord{
		CoachID:    coachID,
		SessionID:  sessionID,
		Status:     STATUS_PENDING,
		LastAction: ACTION_NONE,
	}
}

type Coach struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Email    string `db:"email"`
	IsActive bool   `db:"is_active"`
}

type Venue struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}
