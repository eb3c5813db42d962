package notifications

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/angelmondragon/servicehub-backend/pkg/config"
	"github.com/angelmondragon/servicehub-backend/pkg/logger"
)

// Mailer delivers a rendered message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through an SMTP relay.
type SMTPMailer struct {
	from   string
	dialer dialer
}

func NewSMTPMailer(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("smtp from address required")
	}
	return &SMTPMailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	email := gomail.NewMessage()
	email.SetHeader("From", m.from)
	email.SetHeader("To", msg.To)
	email.SetHeader("Subject", msg.Subject)
	email.SetBody("text/plain", msg.Body)
	return m.dialer.DialAndSend(email)
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logg *logger.Logger
}

func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logg.Info(m.logg.WithFields(ctx, map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
	}), "email suppressed (smtp disabled)")
	return nil
}

// NewMailer picks SMTP when enabled and the logging mailer otherwise.
func NewMailer(cfg config.SMTPConfig, logg *logger.Logger) (Mailer, error) {
	if !cfg.Enabled {
		return NewLogMailer(logg), nil
	}
	return NewSMTPMailer(cfg)
}
