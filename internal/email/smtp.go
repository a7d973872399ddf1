package email

import (
	"context"
	"fmt"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"gopkg.in/gomail.v2"
)

type smtpTransport struct {
	dialer *gomail.Dialer
}

func newSMTPTransport(cfg config.SMTPConfig) *smtpTransport {
	return &smtpTransport{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// Send dials per message. SMTP has no message id, so a local one is returned.
func (t *smtpTransport) Send(ctx context.Context, msg *message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	m.SetHeader("Subject", msg.Subject)
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	if err := t.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return types.GenerateUUID(), nil
}
