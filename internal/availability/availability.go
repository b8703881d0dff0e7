// Package availability holds the coach availability state machine and the
// read-side reconciliation between self-declared availability and staffing.
// Nothing here performs I/O.
package availability

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"
)

type EventKind string

const (
	BULK_SET          EventKind = "BULK_SET"
	SESSION_SET       EventKind = "SESSION_SET"
	DASHBOARD_CONFIRM EventKind = "DASHBOARD_CONFIRM"
	DASHBOARD_DECLINE EventKind = "DASHBOARD_DECLINE"
	EMAIL_CONFIRM     EventKind = "EMAIL_CONFIRM"
	EMAIL_DECLINE     EventKind = "EMAIL_DECLINE"
)

const dashboardDeclineNote = "Declined via dashboard."

// Event is a single change to a coach's availability for one session.
// Status is read by BULK_SET and SESSION_SET. Notes carries the session
// note or the decline reason.
type Event struct {
	Kind   EventKind
	Status models.AvailabilityStatus
	Notes  string
	At     time.Time
}

func BulkSet(status models.AvailabilityStatus, at time.Time) Event {
	return Event{Kind: BULK_SET, Status: status, At: at}
}

func SessionSet(status models.AvailabilityStatus, notes string, at time.Time) Event {
	return Event{Kind: SESSION_SET, Status: status, Notes: notes, At: at}
}

func Confirm(kind EventKind, at time.Time) Event {
	return Event{Kind: kind, At: at}
}

func Decline(kind EventKind, reason string, at time.Time) Event {
	return Event{Kind: kind, Notes: reason, At: at}
}

// Apply moves rec through ev. The returned bool is false when the event was
// deliberately ignored, which only happens for a bulk sweep over a session
// that already carries an explicit confirm or decline.
func Apply(rec models.AvailabilityRecord, ev Event) (models.AvailabilityRecord, bool, error) {
	const op = "availability.Apply"

	next := rec
	if next.Status == "" {
		next.Status = models.STATUS_PENDING
	}
	if next.LastAction == "" {
		next.LastAction = models.ACTION_NONE
	}

	switch ev.Kind {
	case BULK_SET:
		switch ev.Status {
		case models.STATUS_AVAILABLE, models.STATUS_UNAVAILABLE, models.STATUS_EMERGENCY:
		default:
			return rec, false, fmt.Errorf("%s: %w", op, response.NewFieldError("status", "must be AVAILABLE, UNAVAILABLE or EMERGENCY"))
		}
		if next.LastAction != models.ACTION_NONE {
			return rec, false, nil
		}
		next.Status = ev.Status

	case SESSION_SET:
		if !ev.Status.Valid() {
			return rec, false, fmt.Errorf("%s: %w", op, response.NewFieldError("status", "unknown availability status"))
		}
		next.Status = ev.Status
		next.Notes = ev.Notes
		if !consistent(next.Status, next.LastAction) {
			next.LastAction = models.ACTION_NONE
		}

	case DASHBOARD_CONFIRM, EMAIL_CONFIRM:
		next.Status = models.STATUS_AVAILABLE
		next.LastAction = models.ACTION_CONFIRM
		at := ev.At
		next.StatusUpdatedAt = &at

	case DASHBOARD_DECLINE, EMAIL_DECLINE:
		reason := strings.TrimSpace(ev.Notes)
		if reason == "" {
			if ev.Kind == EMAIL_DECLINE {
				return rec, false, fmt.Errorf("%s: %w", op, response.NewFieldError("reason", "a reason is required to decline"))
			}
			reason = dashboardDeclineNote
		}
		next.Status = models.STATUS_UNAVAILABLE
		next.LastAction = models.ACTION_DECLINE
		next.Notes = reason
		at := ev.At
		next.StatusUpdatedAt = &at

	default:
		return rec, false, fmt.Errorf("%s: unknown event %q", op, ev.Kind)
	}

	next.UpdatedAt = ev.At

	return next, true, nil
}

// consistent reports whether an explicit action agrees with a status.
func consistent(status models.AvailabilityStatus, action models.LastAction) bool {
	switch action {
	case models.ACTION_CONFIRM:
		return status == models.STATUS_AVAILABLE || status == models.STATUS_EMERGENCY
	case models.ACTION_DECLINE:
		return status == models.STATUS_UNAVAILABLE
	}

	return true
}

// Effective is the status shown for a coach on a session. A missing record
// reads as PENDING. An unassigned coach who marked UNAVAILABLE shows PENDING
// because nothing binding is being declined.
func Effective(rec *models.AvailabilityRecord, assigned bool) models.AvailabilityStatus {
	if rec == nil || rec.Status == "" {
		return models.STATUS_PENDING
	}

	if !assigned && rec.Status == models.STATUS_UNAVAILABLE {
		return models.STATUS_PENDING
	}

	return rec.Status
}

// Entry is one underlying session of a rule within the aggregation window.
type Entry struct {
	Record   *models.AvailabilityRecord
	Assigned bool
}

// Aggregate collapses a rule's sessions into one displayed status. The
// override is applied per session first. No sessions reads as PENDING and
// disagreement reads as MIXED.
func Aggregate(entries []Entry) models.AvailabilityStatus {
	if len(entries) == 0 {
		return models.STATUS_PENDING
	}

	first := Effective(entries[0].Record, entries[0].Assigned)
	for _, e := range entries[1:] {
		if Effective(e.Record, e.Assigned) != first {
			return models.STATUS_MIXED
		}
	}

	return first
}

type Tally struct {
	Confirmed int `json:"confirmed"`
	Declined  int `json:"declined"`
	Pending   int `json:"pending"`
	Total     int `json:"total"`
}

type CoachState string

const (
	STATE_CONFIRMED CoachState = "Confirmed"
	STATE_DECLINED  CoachState = "Declined"
	STATE_PENDING   CoachState = "Pending"
)

// StateOf classifies an assigned coach for the staffing view.
func StateOf(rec *models.AvailabilityRecord) CoachState {
	if rec == nil {
		return STATE_PENDING
	}

	if rec.LastAction == models.ACTION_CONFIRM {
		return STATE_CONFIRMED
	}

	if Effective(rec, true) == models.STATUS_UNAVAILABLE {
		return STATE_DECLINED
	}

	return STATE_PENDING
}

// Count tallies the assigned coaches of one session. records is keyed by coach id.
func Count(assigned []string, records map[string]*models.AvailabilityRecord) Tally {
	t := Tally{Total: len(assigned)}

	for _, coachID := range assigned {
		switch StateOf(records[coachID]) {
		case STATE_CONFIRMED:
			t.Confirmed++
		case STATE_DECLINED:
			t.Declined++
		default:
			t.Pending++
		}
	}

	return t
}

// SortByVenueAndTime orders items by venue name, then start time. Items
// without a venue go last. The sort is stable so ties keep their input order.
func SortByVenueAndTime[T any](items []T, key func(T) (venue *string, start string)) {
	sort.SliceStable(items, func(i, j int) bool {
		vi, si := key(items[i])
		vj, sj := key(items[j])

		switch {
		case vi == nil && vj != nil:
			return false
		case vi != nil && vj == nil:
			return true
		case vi != nil && vj != nil && *vi != *vj:
			return *vi < *vj
		}

		return si < sj
	})
}

func SortSessions(sessions []*models.Session) {
	SortByVenueAndTime(sessions, func(s *models.Session) (*string, string) {
		return s.VenueName, s.StartTime
	})
}

func SortRules(rules []*models.Rule) {
	SortByVenueAndTime(rules, func(r *models.Rule) (*string, string) {
		return r.VenueName, r.StartTime
	})
}
