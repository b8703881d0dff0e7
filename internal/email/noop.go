package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NoopSender logs sends but does not deliver them.
type NoopSender struct {
	log *slog.Logger
}

func NewNoopSender(log *slog.Logger) *NoopSender {
	return &NoopSender{log: log}
}

func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	s.log.Info("noop_email_send", slog.Any("to", req.To), slog.String("subject", req.Subject))

	return SendResult{
		MessageID: fmt.Sprintf("noop-%d", time.Now().UnixNano()),
		SentAt:    time.Now(),
	}, nil
}
