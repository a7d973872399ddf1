package email

import (
	"embed"
	"fmt"
)

//go:embed templates/*.html
var templateFS embed.FS

type TemplateName string

const (
	TemplatePaymentPastDue        TemplateName = "payment_past_due"
	TemplatePaymentFailed         TemplateName = "payment_failed"
	TemplateSubscriptionRenewed   TemplateName = "subscription_renewed"
	TemplateSubscriptionCancelled TemplateName = "subscription_cancelled"
	TemplateIdentityVerified      TemplateName = "identity_verified"
)

type template struct {
	subject string
	file    string
	text    string
}

var templates = map[TemplateName]template{
	TemplatePaymentPastDue: {
		subject: "Action Required: Payment {{days_past_due_label}} Past Due",
		file:    "templates/payment_past_due.html",
		text:    "Hi {{user_name}},\n\nYour payment of {{amount}} is {{days_past_due_label}} past due.\n\nTo avoid service interruption, please update your payment method: {{action_url}}\n\nMasseurMatch",
	},
	TemplatePaymentFailed: {
		subject: "Payment Failed - Action Required",
		file:    "templates/payment_failed.html",
		text:    "Hi {{user_name}},\n\nWe were unable to process your payment of {{amount}}.\n\nPlease update your payment method: {{action_url}}\n\nMasseurMatch",
	},
	TemplateSubscriptionRenewed: {
		subject: "Payment Received - {{plan}} Subscription Renewed",
		file:    "templates/subscription_renewed.html",
		text:    "Hi {{user_name}},\n\nYour {{plan}} subscription has been renewed. Amount charged: {{amount}}.\n\nThank you for being a MasseurMatch member!\n\nMasseurMatch",
	},
	TemplateSubscriptionCancelled: {
		subject: "Your subscription has been cancelled",
		file:    "templates/subscription_cancelled.html",
		text:    "Hi {{user_name}},\n\nYour subscription has been cancelled. You'll have access until {{end_date}}.\n\nYou can resubscribe at any time: {{action_url}}\n\nMasseurMatch",
	},
	TemplateIdentityVerified: {
		subject: "Your identity has been verified",
		file:    "templates/identity_verified.html",
		text:    "Hi {{user_name}},\n\nYour identity verification is complete and your profile now shows the verified badge.\n\n{{action_url}}\n\nMasseurMatch",
	},
}

// HasTemplate reports whether an embedded template exists for name
func HasTemplate(name TemplateName) bool {
	_, ok := templates[name]
	return ok
}

func loadTemplate(name TemplateName) (template, string, error) {
	t, ok := templates[name]
	if !ok {
		return template{}, "", fmt.Errorf("unknown email template %q", name)
	}

	content, err := templateFS.ReadFile(t.file)
	if err != nil {
		return template{}, "", fmt.Errorf("failed to read template file: %w", err)
	}

	return t, string(content), nil
}
