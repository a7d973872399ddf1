package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
)

// Sender delivers templated emails. Callers treat delivery as best effort.
type Sender interface {
	SendTemplate(ctx context.Context, req SendTemplateRequest) (*SendEmailResponse, error)
}

// Email renders and sends emails through the configured client
type Email struct {
	client     *EmailClient
	appBaseURL string
	logger     *logger.Logger
}

var _ Sender = (*Email)(nil)

func NewEmail(client *EmailClient, cfg *config.Configuration, logger *logger.Logger) *Email {
	return &Email{
		client:     client,
		appBaseURL: strings.TrimRight(cfg.Email.AppBaseURL, "/"),
		logger:     logger,
	}
}

// SendEmail sends a plain text email
func (s *Email) SendEmail(ctx context.Context, req SendEmailRequest) (*SendEmailResponse, error) {
	if !s.client.IsEnabled() {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", req.ToAddress,
			"subject", req.Subject,
		)
		return &SendEmailResponse{
			Success: false,
			Error:   "email client is disabled",
		}, nil
	}

	fromAddress := req.FromAddress
	if fromAddress == "" {
		fromAddress = s.client.GetFromAddress()
	}

	messageID, err := s.client.SendEmail(ctx, fromAddress, req.ToAddress, req.Subject, "", req.Text)
	if err != nil {
		s.logger.Errorw("failed to send email",
			"error", err,
			"to", req.ToAddress,
			"subject", req.Subject,
		)
		return &SendEmailResponse{
			Success: false,
			Error:   err.Error(),
		}, err
	}

	s.logger.Infow("email sent successfully",
		"message_id", messageID,
		"to", req.ToAddress,
		"subject", req.Subject,
	)

	return &SendEmailResponse{
		MessageID: messageID,
		Success:   true,
	}, nil
}

// SendTemplate renders an embedded template and sends it
func (s *Email) SendTemplate(ctx context.Context, req SendTemplateRequest) (*SendEmailResponse, error) {
	if !s.client.IsEnabled() {
		s.logger.Warnw("email client is disabled, skipping email send",
			"to", req.ToAddress,
			"template", req.Template,
		)
		return &SendEmailResponse{
			Success: false,
			Error:   "email client is disabled",
		}, nil
	}

	tmpl, html, err := loadTemplate(req.Template)
	if err != nil {
		s.logger.Errorw("failed to read email template",
			"error", err,
			"template", req.Template,
		)
		return &SendEmailResponse{Success: false, Error: err.Error()}, err
	}

	data := s.BuildTemplateData(req.Data, req.ToAddress)
	subject := replacePlaceholders(tmpl.subject, data)
	html = replacePlaceholders(html, data)
	text := replacePlaceholders(tmpl.text, data)

	messageID, err := s.client.SendEmail(ctx, s.client.GetFromAddress(), req.ToAddress, subject, html, text)
	if err != nil {
		s.logger.Errorw("failed to send templated email",
			"error", err,
			"to", req.ToAddress,
			"template", req.Template,
		)
		return &SendEmailResponse{Success: false, Error: err.Error()}, err
	}

	s.logger.Infow("templated email sent successfully",
		"message_id", messageID,
		"to", req.ToAddress,
		"template", req.Template,
	)

	return &SendEmailResponse{
		MessageID: messageID,
		Success:   true,
	}, nil
}

// BuildTemplateData fills the defaults every template may reference.
// Relative action urls are resolved against the app base url.
func (s *Email) BuildTemplateData(data map[string]interface{}, toAddress string) map[string]interface{} {
	out := make(map[string]interface{}, len(data)+2)
	for k, v := range data {
		out[k] = v
	}

	out["app_base_url"] = s.appBaseURL
	if name, ok := out["user_name"].(string); !ok || name == "" {
		out["user_name"] = ExtractNameFromEmail(toAddress)
	}
	if action, ok := out["action_url"].(string); ok && strings.HasPrefix(action, "/") {
		out["action_url"] = s.appBaseURL + action
	}

	return out
}

func replacePlaceholders(template string, data map[string]interface{}) string {
	result := template
	for key, value := range data {
		placeholder := fmt.Sprintf("{{%s}}", key)
		result = strings.ReplaceAll(result, placeholder, fmt.Sprintf("%v", value))
	}
	return result
}

// ExtractNameFromEmail extracts the name part from an email address
// e.g., "john.doe@example.com" -> "john.doe"
func ExtractNameFromEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "there"
}
