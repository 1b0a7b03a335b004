package dispatch

import (
	"context"
	"log/slog"
)

// Message is a rendered notification email.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Mailer delivers notification emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	if m.Logger != nil {
		m.Logger.InfoContext(ctx, "Email notification", "to", msg.To, "subject", msg.Subject, "body_bytes", len(msg.Body))
	}
	return nil
}
