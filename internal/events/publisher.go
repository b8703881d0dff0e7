package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"coach-schedule/pkg/sl"

	"github.com/nats-io/nats.go"
)

const (
	SubjectAvailabilityDeclined = "availability.declined"
	SubjectAssignmentChanged    = "staffing.assignment.changed"
)

// Publisher delivers post-commit notifications to downstream consumers.
type Publisher interface {
	PublishDeclined(event DeclinedEvent) error
	PublishAssignmentChanged(event AssignmentChangedEvent) error
}

type DeclinedEvent struct {
	EventType   string    `json:"event_type"`
	CoachID     string    `json:"coach_id"`
	SessionID   string    `json:"session_id"`
	SessionDate string    `json:"session_date"`
	StartTime   string    `json:"start_time"`
	Reason      string    `json:"reason"`
	Source      string    `json:"source"`
	DeclinedAt  time.Time `json:"declined_at"`
}

type AssignmentChangedEvent struct {
	EventType string    `json:"event_type"`
	SessionID string    `json:"session_id"`
	Added     []string  `json:"added,omitempty"`
	Removed   []string  `json:"removed,omitempty"`
	HeadCoach *string   `json:"head_coach,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type NatsPublisher struct {
	conn *nats.Conn
	log  *slog.Logger
}

func NewNatsPublisher(natsURL string, log *slog.Logger) (*NatsPublisher, error) {
	const op = "events.NewNatsPublisher"

	nc, err := nats.Connect(natsURL, nats.Name("coach-schedule"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &NatsPublisher{conn: nc, log: log.With(slog.String("component", "events/nats"))}, nil
}

func (p *NatsPublisher) PublishDeclined(event DeclinedEvent) error {
	event.EventType = SubjectAvailabilityDeclined

	return p.publish(SubjectAvailabilityDeclined, event)
}

func (p *NatsPublisher) PublishAssignmentChanged(event AssignmentChangedEvent) error {
	event.EventType = SubjectAssignmentChanged

	return p.publish(SubjectAssignmentChanged, event)
}

func (p *NatsPublisher) publish(subject string, event any) error {
	const op = "events.NatsPublisher.publish"

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: marshal: %w", op, err)
	}

	if err := p.conn.Publish(subject, payload); err != nil {
		p.log.Error("Failed to publish event", slog.String("subject", subject), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	p.log.Debug("Published event", slog.String("subject", subject))

	return nil
}

func (p *NatsPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}

	return p.conn.Drain()
}

// NoopPublisher logs events without delivering them. Used when no broker is configured.
type NoopPublisher struct {
	log *slog.Logger
}

func NewNoopPublisher(log *slog.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) PublishDeclined(event DeclinedEvent) error {
	p.log.Info("noop_event", slog.String("subject", SubjectAvailabilityDeclined), slog.String("session_id", event.SessionID))
	return nil
}

func (p *NoopPublisher) PublishAssignmentChanged(event AssignmentChangedEvent) error {
	p.log.Info("noop_event", slog.String("subject", SubjectAssignmentChanged), slog.String("session_id", event.SessionID))
	return nil
}
