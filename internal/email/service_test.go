package email

import (
	"context"
	"errors"
	"testing"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/stretchr/testify/suite"
)

type recordingTransport struct {
	sent []*message
	err  error
}

func (t *recordingTransport) Send(_ context.Context, msg *message) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	t.sent = append(t.sent, msg)
	return "msg_1", nil
}

type EmailServiceSuite struct {
	suite.Suite
	ctx       context.Context
	transport *recordingTransport
	svc       *Email
}

func TestEmailService(t *testing.T) {
	suite.Run(t, new(EmailServiceSuite))
}

func (s *EmailServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.transport = &recordingTransport{}
	cfg := config.GetDefaultConfig()
	cfg.Email.AppBaseURL = "https://masseurmatch.com/"

	client := &EmailClient{
		transport:   s.transport,
		enabled:     true,
		fromAddress: "MasseurMatch <noreply@masseurmatch.com>",
		replyTo:     "support@masseurmatch.com",
	}
	s.svc = NewEmail(client, cfg, logger.NewNopLogger())
}

func (s *EmailServiceSuite) TestSendTemplateRendersPlaceholders() {
	resp, err := s.svc.SendTemplate(s.ctx, SendTemplateRequest{
		ToAddress: "jane.doe@example.com",
		Template:  TemplatePaymentPastDue,
		Data: map[string]interface{}{
			"amount":              "$29.99",
			"days_past_due_label": "3 days",
			"action_url":          "/dashboard/billing",
		},
	})
	s.Require().NoError(err)
	s.True(resp.Success)
	s.Equal("msg_1", resp.MessageID)

	s.Require().Len(s.transport.sent, 1)
	msg := s.transport.sent[0]
	s.Equal("jane.doe@example.com", msg.To)
	s.Equal("support@masseurmatch.com", msg.ReplyTo)
	s.Equal("Action Required: Payment 3 days Past Due", msg.Subject)
	s.Contains(msg.HTML, "Hi jane.doe,")
	s.Contains(msg.HTML, "$29.99")
	s.Contains(msg.HTML, "https://masseurmatch.com/dashboard/billing")
	s.NotContains(msg.HTML, "{{")
	s.Contains(msg.Text, "3 days past due")
}

func (s *EmailServiceSuite) TestSendTemplateUnknownTemplate() {
	_, err := s.svc.SendTemplate(s.ctx, SendTemplateRequest{
		ToAddress: "a@example.com",
		Template:  TemplateName("nope"),
	})
	s.Error(err)
	s.Empty(s.transport.sent)
}

func (s *EmailServiceSuite) TestSendTemplateTransportError() {
	s.transport.err = errors.New("smtp down")
	resp, err := s.svc.SendTemplate(s.ctx, SendTemplateRequest{
		ToAddress: "a@example.com",
		Template:  TemplatePaymentFailed,
		Data:      map[string]interface{}{"amount": "$10.00"},
	})
	s.Error(err)
	s.False(resp.Success)
}

func (s *EmailServiceSuite) TestDisabledClientSkips() {
	svc := NewEmail(&EmailClient{enabled: false}, config.GetDefaultConfig(), logger.NewNopLogger())
	resp, err := svc.SendTemplate(s.ctx, SendTemplateRequest{
		ToAddress: "a@example.com",
		Template:  TemplatePaymentFailed,
	})
	s.NoError(err)
	s.False(resp.Success)
}

func (s *EmailServiceSuite) TestEveryTemplateLoads() {
	for name := range templates {
		_, html, err := loadTemplate(name)
		s.Require().NoError(err, name)
		s.Contains(html, "{{user_name}}", name)
	}
}

func (s *EmailServiceSuite) TestNewEmailClientDisabledWithoutCredentials() {
	cfg := config.GetDefaultConfig()
	cfg.Email.Enabled = true
	cfg.Email.Provider = ProviderResend
	s.False(NewEmailClient(cfg).IsEnabled())

	cfg.Email.Provider = ProviderSMTP
	s.False(NewEmailClient(cfg).IsEnabled())

	cfg.Email.SMTP.Host = "localhost"
	cfg.Email.SMTP.Port = 1025
	s.True(NewEmailClient(cfg).IsEnabled())
}

func (s *EmailServiceSuite) TestExtractNameFromEmail() {
	s.Equal("john.doe", ExtractNameFromEmail("john.doe@example.com"))
	s.Equal("there", ExtractNameFromEmail("@example.com"))
}
