package stripe

import (
	"strings"

	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader carries the provider signature on webhook deliveries
const SignatureHeader = "Stripe-Signature"

// WebhookVerifier authenticates a raw webhook delivery and decodes the event
type WebhookVerifier interface {
	ParseWebhookEvent(payload []byte, signature string, webhookSecret string) (*stripe.Event, error)
}

type webhookVerifier struct {
	logger *logger.Logger
}

func NewWebhookVerifier(logger *logger.Logger) WebhookVerifier {
	return &webhookVerifier{logger: logger}
}

// ParseWebhookEvent verifies the signature, ignoring API version mismatch.
// Nothing about the payload is trusted until this returns nil.
func (v *webhookVerifier) ParseWebhookEvent(payload []byte, signature string, webhookSecret string) (*stripe.Event, error) {
	if webhookSecret == "" {
		return nil, ierr.NewError("webhook secret not configured").
			WithHint("Webhook processing is not configured").
			Mark(ierr.ErrNotConfigured)
	}
	if strings.TrimSpace(signature) == "" {
		return nil, ierr.NewError("missing webhook signature").
			WithHint("Missing signature").
			Mark(ierr.ErrInvalidSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		v.logger.Warnw("stripe webhook verification failed", "error", err)
		return nil, ierr.WithError(err).
			WithHint("Invalid signature").
			Mark(ierr.ErrInvalidSignature)
	}
	return &event, nil
}
