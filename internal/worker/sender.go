package worker

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Sender delivers a notification to a recipient address.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender delivers notifications over plain SMTP.
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// Send sends one message. Auth is skipped when no user is configured
// (local relay).
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	msg := []byte("From: " + s.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	if err := smtp.SendMail(addr, auth, s.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes notifications to the log instead of sending them. Used
// when no SMTP host is configured.
type LogSender struct {
	Logger *zap.Logger
}

// Send logs the message.
func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.Logger.Info("notification delivered (log sender)",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
