package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"coach-schedule/internal/models"
	"coach-schedule/pkg/response"
)

type pair struct{ a, b string }

// memStore is an in-memory Store. Names are resolved from the venue and
// group directories the way the SQL joins do.
type memStore struct {
	mu sync.Mutex

	rules     map[string]*models.Rule
	sessions  map[string]*models.Session
	attendees map[string][]string

	// keyed by session, coach
	assignments map[pair]models.Assignment

	// keyed by coach, session
	avail map[pair]models.AvailabilityRecord

	coaches map[string]*models.Coach
	venues  map[string]string
	groups  map[string]string
	members map[string][]string

	// failCreate makes CreateSession fail for sessions of this group.
	failCreate string
	// availWrites counts availability upserts that were written.
	availWrites int
	// beforeBulkWrite runs ahead of each guarded bulk write, outside the
	// store mutex, to stage a concurrent writer.
	beforeBulkWrite func(rec models.AvailabilityRecord)
	// assignWrites counts every call that changes assignments.
	assignWrites int
}

func newMemStore() *memStore {
	return &memStore{
		rules:       make(map[string]*models.Rule),
		sessions:    make(map[string]*models.Session),
		assignments: make(map[pair]models.Assignment),
		avail:       make(map[pair]models.AvailabilityRecord),
		attendees:   make(map[string][]string),
		coaches:     make(map[string]*models.Coach),
		venues:      make(map[string]string),
		groups:      make(map[string]string),
		members:     make(map[string][]string),
	}
}

func (m *memStore) addCoach(id, name string) {
	m.coaches[id] = &models.Coach{ID: id, Name: name, Email: id + "@example.com", IsActive: true}
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *memStore) CreateRule(_ context.Context, rule *models.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rules {
		if r.GroupRef == rule.GroupRef && r.Weekday == rule.Weekday && r.StartTime == rule.StartTime {
			return response.ErrConflict
		}
	}
	cp := *rule
	cp.DefaultCoaches = append([]string(nil), rule.DefaultCoaches...)
	m.rules[rule.ID] = &cp

	return nil
}

func (m *memStore) UpdateRule(_ context.Context, rule *models.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rules[rule.ID]; !ok {
		return response.ErrNotFound
	}
	cp := *rule
	cp.DefaultCoaches = append([]string(nil), rule.DefaultCoaches...)
	m.rules[rule.ID] = &cp

	return nil
}

func (m *memStore) ruleView(r *models.Rule) *models.Rule {
	cp := *r
	cp.DefaultCoaches = append([]string(nil), r.DefaultCoaches...)
	cp.GroupName = m.groups[r.GroupRef]
	if r.VenueRef != nil {
		if name, ok := m.venues[*r.VenueRef]; ok {
			cp.VenueName = &name
		}
	}

	return &cp
}

func (m *memStore) GetRule(_ context.Context, id string) (*models.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rules[id]
	if !ok {
		return nil, response.ErrNotFound
	}

	return m.ruleView(r), nil
}

func (m *memStore) ListRules(_ context.Context, ids []string, activeOnly bool) ([]*models.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []*models.Rule
	for _, r := range m.rules {
		if len(ids) > 0 && !want[r.ID] {
			continue
		}
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, m.ruleView(r))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.GroupRef != b.GroupRef {
			return a.GroupRef < b.GroupRef
		}
		if a.Weekday != b.Weekday {
			return a.Weekday < b.Weekday
		}
		return a.StartTime < b.StartTime
	})

	return out, nil
}

func (m *memStore) sessionView(s *models.Session) *models.Session {
	cp := *s
	if s.GroupRef != nil {
		if name, ok := m.groups[*s.GroupRef]; ok {
			cp.GroupName = &name
		}
	}
	if s.VenueRef != nil {
		if name, ok := m.venues[*s.VenueRef]; ok {
			cp.VenueName = &name
		}
	}

	return &cp
}

func (m *memStore) selectSessions(match func(*models.Session) bool) []*models.Session {
	var out []*models.Session
	for _, s := range m.sessions {
		if match(s) {
			out = append(out, m.sessionView(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})

	return out
}

func between(d, from, to time.Time) bool {
	return !d.Before(from) && !d.After(to)
}

func (m *memStore) FindRuleSession(_ context.Context, ruleID string, date time.Time) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := m.selectSessions(func(s *models.Session) bool {
		return s.SourceRuleID != nil && *s.SourceRuleID == ruleID && s.Date.Equal(date)
	})
	if len(found) == 0 {
		return nil, nil
	}

	return found[0], nil
}

func (m *memStore) FindManualClash(_ context.Context, groupRef string, date time.Time, startTime string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := m.selectSessions(func(s *models.Session) bool {
		return s.SourceRuleID == nil && s.GroupRef != nil && *s.GroupRef == groupRef &&
			s.Date.Equal(date) && s.StartTime == startTime
	})
	if len(found) == 0 {
		return nil, nil
	}

	return found[0], nil
}

func (m *memStore) LinkSessionToRule(_ context.Context, sessionID, ruleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok || s.SourceRuleID != nil {
		return response.ErrNotFound
	}
	id := ruleID
	s.SourceRuleID = &id

	return nil
}

func (m *memStore) CreateSession(_ context.Context, session *models.Session) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session.GroupRef != nil && m.failCreate != "" && *session.GroupRef == m.failCreate {
		return false, errors.New("insert failed")
	}
	if session.SourceRuleID != nil {
		for _, s := range m.sessions {
			if s.SourceRuleID != nil && *s.SourceRuleID == *session.SourceRuleID && s.Date.Equal(session.Date) {
				return false, nil
			}
		}
	}
	cp := *session
	cp.GroupName, cp.VenueName = nil, nil
	m.sessions[session.ID] = &cp

	return true, nil
}

func (m *memStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, response.ErrNotFound
	}

	return m.sessionView(s), nil
}

func (m *memStore) ListSessions(_ context.Context, from, to time.Time) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.selectSessions(func(s *models.Session) bool { return between(s.Date, from, to) }), nil
}

func (m *memStore) ListRuleSessions(_ context.Context, ruleIDs []string, from, to time.Time) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]bool, len(ruleIDs))
	for _, id := range ruleIDs {
		want[id] = true
	}

	return m.selectSessions(func(s *models.Session) bool {
		if s.SourceRuleID == nil || !between(s.Date, from, to) {
			return false
		}
		return len(ruleIDs) == 0 || want[*s.SourceRuleID]
	}), nil
}

func (m *memStore) CoachSessions(_ context.Context, coachID string, from, to time.Time) ([]*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.selectSessions(func(s *models.Session) bool {
		_, ok := m.assignments[pair{s.ID, coachID}]
		return ok && between(s.Date, from, to)
	}), nil
}

func (m *memStore) SetSessionCancelled(_ context.Context, id string, cancelled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return response.ErrNotFound
	}
	s.IsCancelled = cancelled

	return nil
}

func (m *memStore) SetSessionStatus(_ context.Context, id string, status models.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return response.ErrNotFound
	}
	s.Status = status

	return nil
}

func (m *memStore) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return response.ErrNotFound
	}
	delete(m.sessions, id)
	delete(m.attendees, id)
	for k := range m.assignments {
		if k.a == id {
			delete(m.assignments, k)
		}
	}
	for k := range m.avail {
		if k.b == id {
			delete(m.avail, k)
		}
	}

	return nil
}

func (m *memStore) AddAttendees(_ context.Context, sessionID string, playerIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attendees[sessionID] = append(m.attendees[sessionID], playerIDs...)

	return nil
}

func (m *memStore) UpsertAssignments(_ context.Context, items []models.Assignment, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range items {
		if _, ok := m.coaches[a.CoachID]; !ok {
			return response.ErrNotFound
		}
		k := pair{a.SessionID, a.CoachID}
		cur, ok := m.assignments[k]
		if ok {
			if overwrite {
				cur.PlannedDurationMinutes = a.PlannedDurationMinutes
				m.assignments[k] = cur
			}
		} else {
			m.assignments[k] = models.Assignment{
				SessionID:              a.SessionID,
				CoachID:                a.CoachID,
				PlannedDurationMinutes: a.PlannedDurationMinutes,
			}
		}
		m.assignWrites++
	}

	return nil
}

func (m *memStore) RemoveAssignmentsExcept(_ context.Context, sessionID string, keep []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}

	var removed []string
	for k := range m.assignments {
		if k.a == sessionID && !kept[k.b] {
			delete(m.assignments, k)
			removed = append(removed, k.b)
			m.assignWrites++
		}
	}
	sort.Strings(removed)

	return removed, nil
}

func (m *memStore) DeleteAssignment(_ context.Context, sessionID, coachID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := pair{sessionID, coachID}
	if _, ok := m.assignments[k]; !ok {
		return response.ErrNotFound
	}
	delete(m.assignments, k)
	m.assignWrites++

	return nil
}

func (m *memStore) ClearHeadCoach(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, a := range m.assignments {
		if k.a == sessionID && a.IsHeadCoach {
			a.IsHeadCoach = false
			m.assignments[k] = a
			m.assignWrites++
		}
	}

	return nil
}

func (m *memStore) MarkHeadCoach(_ context.Context, sessionID, coachID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := pair{sessionID, coachID}
	a, ok := m.assignments[k]
	if !ok {
		return response.ErrNotFound
	}
	for other, b := range m.assignments {
		if other.a == sessionID && b.IsHeadCoach && other != k {
			return errors.New("second head coach")
		}
	}
	a.IsHeadCoach = true
	m.assignments[k] = a
	m.assignWrites++

	return nil
}

func (m *memStore) ListAssignments(_ context.Context, sessionIDs []string) ([]models.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}

	var out []models.Assignment
	for _, a := range m.assignments {
		if !want[a.SessionID] {
			continue
		}
		a.CoachName = m.coaches[a.CoachID].Name
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		if a.IsHeadCoach != b.IsHeadCoach {
			return a.IsHeadCoach
		}
		return a.CoachName < b.CoachName
	})

	return out, nil
}

func (m *memStore) GetAvailability(_ context.Context, coachID string, sessionIDs []string) ([]models.AvailabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.AvailabilityRecord
	for _, id := range sessionIDs {
		if r, ok := m.avail[pair{coachID, id}]; ok {
			out = append(out, r)
		}
	}

	return out, nil
}

func (m *memStore) LockAvailability(ctx context.Context, coachID string, sessionIDs []string) ([]models.AvailabilityRecord, error) {
	return m.GetAvailability(ctx, coachID, sessionIDs)
}

func (m *memStore) ListSessionAvailability(_ context.Context, sessionIDs []string) ([]models.AvailabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	want := make(map[string]bool, len(sessionIDs))
	for _, id := range sessionIDs {
		want[id] = true
	}

	var out []models.AvailabilityRecord
	for k, r := range m.avail {
		if want[k.b] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SessionID != out[j].SessionID {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].CoachID < out[j].CoachID
	})

	return out, nil
}

func (m *memStore) UpsertAvailability(_ context.Context, rec *models.AvailabilityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.avail[pair{rec.CoachID, rec.SessionID}] = *rec
	m.availWrites++

	return nil
}

func (m *memStore) UpsertUntouchedAvailability(_ context.Context, rec *models.AvailabilityRecord) (bool, error) {
	if m.beforeBulkWrite != nil {
		m.beforeBulkWrite(*rec)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := pair{rec.CoachID, rec.SessionID}
	if cur, ok := m.avail[k]; ok && cur.LastAction != models.ACTION_NONE {
		return false, nil
	}
	m.avail[k] = *rec
	m.availWrites++

	return true, nil
}

func (m *memStore) GetCoach(_ context.Context, id string) (*models.Coach, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.coaches[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	cp := *c

	return &cp, nil
}

func (m *memStore) ListCoaches(_ context.Context, ids []string) ([]*models.Coach, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.Coach
	for _, c := range m.coaches {
		if len(ids) == 0 && !c.IsActive {
			continue
		}
		if len(ids) > 0 {
			found := false
			for _, id := range ids {
				found = found || id == c.ID
			}
			if !found {
				continue
			}
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

// ActiveMembers serves as the Roster.
func (m *memStore) ActiveMembers(_ context.Context, groupRef string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.members[groupRef]...), nil
}

func (m *memStore) record(coachID, sessionID string) (models.AvailabilityRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.avail[pair{coachID, sessionID}]
	return r, ok
}

func (m *memStore) assigned(sessionID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for k := range m.assignments {
		if k.a == sessionID {
			out = append(out, k.b)
		}
	}
	sort.Strings(out)

	return out
}
