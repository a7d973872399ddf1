package email

import (
	"context"
	"fmt"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/resend/resend-go/v2"
)

// transport is the provider-specific delivery of one rendered message
type transport interface {
	Send(ctx context.Context, msg *message) (string, error)
}

type message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// EmailClient represents an email client wrapper
type EmailClient struct {
	transport   transport
	enabled     bool
	provider    string
	fromAddress string
	replyTo     string
}

// NewEmailClient selects the provider from config. The client is disabled
// when email is turned off or the provider credentials are missing.
func NewEmailClient(cfg *config.Configuration) *EmailClient {
	ec := cfg.Email
	if !ec.Enabled {
		return &EmailClient{enabled: false}
	}

	var t transport
	switch ec.Provider {
	case ProviderSMTP:
		if ec.SMTP.Host == "" {
			return &EmailClient{enabled: false}
		}
		t = newSMTPTransport(ec.SMTP)
	default:
		if ec.APIKey == "" {
			return &EmailClient{enabled: false}
		}
		t = &resendTransport{client: resend.NewClient(ec.APIKey)}
	}

	return &EmailClient{
		transport:   t,
		enabled:     true,
		provider:    ec.Provider,
		fromAddress: ec.FromAddress,
		replyTo:     ec.ReplyTo,
	}
}

// IsEnabled returns whether the email client is enabled
func (c *EmailClient) IsEnabled() bool {
	return c.enabled
}

// GetFromAddress returns the default from address
func (c *EmailClient) GetFromAddress() string {
	return c.fromAddress
}

// SendEmail sends an HTML email with an optional plain text alternative
func (c *EmailClient) SendEmail(ctx context.Context, from, to, subject, htmlContent, textContent string) (string, error) {
	if !c.enabled {
		return "", fmt.Errorf("email client is disabled")
	}

	return c.transport.Send(ctx, &message{
		From:    from,
		To:      to,
		ReplyTo: c.replyTo,
		Subject: subject,
		HTML:    htmlContent,
		Text:    textContent,
	})
}

type resendTransport struct {
	client *resend.Client
}

func (t *resendTransport) Send(ctx context.Context, msg *message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.ReplyTo != "" {
		params.ReplyTo = msg.ReplyTo
	}

	sent, err := t.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return sent.Id, nil
}
