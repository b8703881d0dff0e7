package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"coach-schedule/pkg/sl"

	"github.com/resend/resend-go/v2"
)

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
	log    *slog.Logger
}

func NewResendSender(apiKey, from string, log *slog.Logger) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
		log:    log.With(slog.String("component", "email/resend")),
	}
}

func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	const op = "email.ResendSender.Send"

	from := req.From
	if from == "" {
		from = s.from
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
	}
	if req.ReplyTo != "" {
		params.ReplyTo = req.ReplyTo
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		s.log.Error("Failed to send email", slog.Any("to", req.To), slog.String("subject", req.Subject), sl.Err(err))
		return SendResult{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("Email sent", slog.String("message_id", sent.Id), slog.Any("to", req.To))

	return SendResult{
		MessageID: sent.Id,
		SentAt:    time.Now(),
	}, nil
}
