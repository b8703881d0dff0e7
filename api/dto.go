package api

import "time"

// Rules

type RuleRequest struct {
	GroupRef        string   `json:"group_ref" validate:"required"`
	Weekday         *int     `json:"weekday" validate:"required,min=0,max=6"`
	StartTime       string   `json:"start_time" validate:"required,datetime=15:04"`
	DurationMinutes int      `json:"duration_minutes" validate:"omitempty,min=1,max=600"`
	VenueRef        *string  `json:"venue_ref,omitempty"`
	DefaultCoaches  []string `json:"default_coaches,omitempty" validate:"dive,required"`
	IsActive        *bool    `json:"is_active,omitempty"`
	Notes           string   `json:"notes,omitempty" validate:"max=1000"`
}

type RuleResponse struct {
	ID              string   `json:"id"`
	GroupRef        string   `json:"group_ref"`
	GroupName       string   `json:"group_name,omitempty"`
	Weekday         int      `json:"weekday"`
	StartTime       string   `json:"start_time"`
	DurationMinutes int      `json:"duration_minutes"`
	VenueRef        *string  `json:"venue_ref,omitempty"`
	VenueName       *string  `json:"venue_name,omitempty"`
	DefaultCoaches  []string `json:"default_coaches"`
	IsActive        bool     `json:"is_active"`
	Notes           string   `json:"notes,omitempty"`
}

// Generation

type GenerateRequest struct {
	RuleIDs   []string `json:"rule_ids,omitempty"`
	StartDate string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Overwrite bool     `json:"overwrite"`
}

type GenerateResult struct {
	Created       int      `json:"created"`
	SkippedExists int      `json:"skipped_exists"`
	Errors        int      `json:"errors"`
	Details       []string `json:"details"`
}

// Sessions

type SessionRequest struct {
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string  `json:"start_time" validate:"required,datetime=15:04"`
	DurationMinutes int     `json:"duration_minutes" validate:"omitempty,min=1,max=600"`
	GroupRef        *string `json:"group_ref,omitempty"`
	VenueRef        *string `json:"venue_ref,omitempty"`
	Notes           string  `json:"notes,omitempty" validate:"max=1000"`
}

type SessionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=planned active finished"`
}

type CancelRequest struct {
	Cancelled *bool `json:"cancelled" validate:"required"`
}

type SessionResponse struct {
	ID              string          `json:"id"`
	Date            string          `json:"date"`
	StartTime       string          `json:"start_time"`
	DurationMinutes int             `json:"duration_minutes"`
	GroupRef        *string         `json:"group_ref,omitempty"`
	GroupName       string          `json:"group_name"`
	VenueRef        *string         `json:"venue_ref,omitempty"`
	VenueName       string          `json:"venue_name,omitempty"`
	SourceRuleID    *string         `json:"source_rule_id,omitempty"`
	IsCancelled     bool            `json:"is_cancelled"`
	Status          string          `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	Coaches         []AssignedCoach `json:"coaches,omitempty"`
}

// Staffing

type AssignRequest struct {
	CoachIDs               []string `json:"coach_ids" validate:"required_without=Replace,dive,required"`
	PlannedDurationMinutes *int     `json:"planned_duration_minutes,omitempty" validate:"omitempty,min=1,max=600"`
	Replace                bool     `json:"replace"`
}

type HeadCoachRequest struct {
	CoachID *string `json:"coach_id"`
}

type AssignedCoach struct {
	CoachID                string `json:"coach_id"`
	Name                   string `json:"name"`
	IsHeadCoach            bool   `json:"is_head_coach"`
	PlannedDurationMinutes int    `json:"planned_duration_minutes"`
	State                  string `json:"state"`
	EffectiveStatus        string `json:"effective_status"`
	Notes                  string `json:"notes,omitempty"`
}

type VolunteerCoach struct {
	CoachID string `json:"coach_id"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Notes   string `json:"notes,omitempty"`
}

type Tally struct {
	Confirmed int `json:"confirmed"`
	Declined  int `json:"declined"`
	Pending   int `json:"pending"`
	Total     int `json:"total"`
}

type SessionStaffing struct {
	Session    SessionResponse  `json:"session"`
	Assigned   []AssignedCoach  `json:"assigned"`
	Volunteers []VolunteerCoach `json:"volunteers"`
	Tally      Tally            `json:"tally"`
}

type Warning struct {
	CoachID   string `json:"coach_id"`
	Kind      string `json:"kind"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type AssignResponse struct {
	Staffing SessionStaffing `json:"staffing"`
	Warnings []Warning       `json:"warnings,omitempty"`
}

type StaffingDay struct {
	Date     string            `json:"date"`
	Weekday  string            `json:"weekday"`
	Sessions []SessionStaffing `json:"sessions"`
}

type StaffingWeek struct {
	WeekStart string        `json:"week_start"`
	WeekEnd   string        `json:"week_end"`
	Days      []StaffingDay `json:"days"`
}

// Coach availability

type SessionAvailabilityRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING AVAILABLE UNAVAILABLE EMERGENCY"`
	Notes  string `json:"notes,omitempty" validate:"max=1000"`
}

type BulkAvailabilityRequest struct {
	Year  int               `json:"year" validate:"required,min=2000,max=2100"`
	Month int               `json:"month" validate:"required,min=1,max=12"`
	Rules map[string]string `json:"rules" validate:"required,min=1,dive,keys,required,endkeys,oneof=AVAILABLE UNAVAILABLE EMERGENCY NO_CHANGE"`
}

type BulkAvailabilityResult struct {
	Updated         int `json:"updated"`
	SkippedExplicit int `json:"skipped_explicit"`
}

type DeclineRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

type AvailabilityResponse struct {
	CoachID         string     `json:"coach_id"`
	SessionID       string     `json:"session_id"`
	Status          string     `json:"status"`
	EffectiveStatus string     `json:"effective_status"`
	LastAction      string     `json:"last_action"`
	Notes           string     `json:"notes,omitempty"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
}

type CoachSession struct {
	Session         SessionResponse `json:"session"`
	IsAssigned      bool            `json:"is_assigned"`
	IsHeadCoach     bool            `json:"is_head_coach"`
	Status          string          `json:"status"`
	EffectiveStatus string          `json:"effective_status"`
	LastAction      string          `json:"last_action"`
	Notes           string          `json:"notes,omitempty"`
}

type CoachDay struct {
	Date     string         `json:"date"`
	Weekday  string         `json:"weekday"`
	Sessions []CoachSession `json:"sessions"`
}

type CoachWeek struct {
	WeekStart string     `json:"week_start"`
	WeekEnd   string     `json:"week_end"`
	Days      []CoachDay `json:"days"`
}

type RuleAvailability struct {
	Rule            RuleResponse `json:"rule"`
	AggregateStatus string       `json:"aggregate_status"`
	Sessions        int          `json:"sessions"`
}

type RuleAvailabilityDay struct {
	Weekday int                `json:"weekday"`
	Name    string             `json:"name"`
	Rules   []RuleAvailability `json:"rules"`
}

type RuleAvailabilityMonth struct {
	Year  int                   `json:"year"`
	Month int                   `json:"month"`
	Days  []RuleAvailabilityDay `json:"days"`
}

// Dashboard

type ConfirmedCoach struct {
	CoachID     string `json:"coach_id"`
	Name        string `json:"name"`
	IsHeadCoach bool   `json:"is_head_coach"`
}

type DashboardSession struct {
	Session          SessionResponse  `json:"session"`
	EffectiveStatus  string           `json:"effective_status"`
	LastAction       string           `json:"last_action"`
	IsHeadCoach      bool             `json:"is_head_coach"`
	ConfirmedCoaches []ConfirmedCoach `json:"confirmed_coaches"`
}

type AvailabilityPrompt struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
}

type Dashboard struct {
	Upcoming     []DashboardSession  `json:"upcoming"`
	BulkReminder *AvailabilityPrompt `json:"bulk_reminder,omitempty"`
}

// Links and feed

type LinkResult struct {
	Message  string `json:"message"`
	Sessions int    `json:"sessions"`
}

type CalendarLink struct {
	URL string `json:"url"`
}
