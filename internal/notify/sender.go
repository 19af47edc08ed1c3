package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/agrimech/portal/config"
)

// Message is one outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Name() string
}

// NewSender picks the transport from configuration: SendGrid when an API key is present,
// SMTP when a host is configured, otherwise a sender that only logs.
func NewSender(cfg config.EmailConfig, logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Transport() {
	case "sendgrid":
		return NewSendGridSender(cfg.SendGridAPIKey, cfg.FromAddress, cfg.FromName)
	case "smtp":
		return NewSMTPSender(cfg)
	default:
		logger.Warn("no email transport configured; emails will only be logged")
		return NewLogSender(logger)
	}
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string { return "log" }

// Send logs the recipient and subject. Bodies carry tokens and are not logged.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (log transport)", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
