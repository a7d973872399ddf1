package email

const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

// SendEmailRequest represents a request to send a plain text email
type SendEmailRequest struct {
	FromAddress string `json:"from_address" validate:"omitempty,email"`
	ToAddress   string `json:"to_address" validate:"required,email"`
	Subject     string `json:"subject" validate:"required"`
	Text        string `json:"text" validate:"required"`
}

// SendEmailResponse represents the response from sending an email
type SendEmailResponse struct {
	MessageID string
	Success   bool
	Error     string
}

// SendTemplateRequest renders one of the embedded templates for a recipient.
// Data fills the {{placeholder}} markers in subject, html and text.
type SendTemplateRequest struct {
	ToAddress string                 `json:"to_address" validate:"required,email"`
	Template  TemplateName           `json:"template" validate:"required"`
	Data      map[string]interface{} `json:"data"`
}
