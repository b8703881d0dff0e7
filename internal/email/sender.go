package email

import (
	"context"
	"time"
)

// SendRequest contains the data needed to send an email via an external provider.
type SendRequest struct {
	To      []string
	From    string // falls back to the sender's default
	Subject string
	HTML    string
	ReplyTo string
}

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
