package service

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/domain/webhookevent"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/integration/stripe"
	"github.com/masseurmatch/masseurmatch/internal/sentry"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

const providerStripe = "stripe"

// WebhookService authenticates inbound provider deliveries and hands them to
// the reconciler exactly once per provider event id.
type WebhookService interface {
	HandleStripeEvent(ctx context.Context, payload []byte, signature string, source types.WebhookSource) error
}

type webhookService struct {
	ServiceParams
	reconciler SubscriptionReconciler
}

func NewWebhookService(params ServiceParams, reconciler SubscriptionReconciler) WebhookService {
	return &webhookService{
		ServiceParams: params,
		reconciler:    reconciler,
	}
}

func (s *webhookService) secretFor(source types.WebhookSource) string {
	if source == types.WebhookSourceIdentity {
		return s.Config.Stripe.IdentitySecret()
	}
	return s.Config.Stripe.WebhookSecret
}

func (s *webhookService) HandleStripeEvent(ctx context.Context, payload []byte, signature string, source types.WebhookSource) error {
	raw, err := s.WebhookVerifier.ParseWebhookEvent(payload, signature, s.secretFor(source))
	if err != nil {
		if ierr.IsNotConfigured(err) {
			s.Logger.Errorw("stripe webhook secret not configured",
				"source", source,
			)
		}
		return err
	}

	event, err := stripe.NormalizeEvent(raw)
	if err != nil {
		s.Logger.Warnw("malformed stripe event",
			"event_id", raw.ID,
			"event_type", raw.Type,
			"error", err,
		)
		return err
	}

	if s.Sentry != nil {
		span, spanCtx := s.Sentry.MonitorWebhookProcessing(ctx, event.ProviderType, event.CreatedAt, map[string]interface{}{
			"event_id": event.ID,
			"source":   string(source),
		})
		ctx = spanCtx
		defer sentry.FinishSpan(span)
	}

	stored, err := s.WebhookEventRepo.Begin(ctx, &webhookevent.Event{
		ID:         event.ID,
		Provider:   providerStripe,
		Type:       event.ProviderType,
		ReceivedAt: s.Clock.Now(),
	})
	if err != nil {
		return err
	}
	if stored.Status == types.WebhookEventStatusProcessed {
		s.Logger.Infow("duplicate stripe event, already processed",
			"event_id", event.ID,
			"event_type", event.ProviderType,
			"attempts", stored.Attempts,
		)
		return nil
	}

	s.Logger.Infow("processing stripe event",
		"event_id", event.ID,
		"event_type", event.ProviderType,
		"kind", event.Kind,
		"source", source,
		"livemode", event.Livemode,
		"attempt", stored.Attempts,
	)

	if err := s.reconciler.Reconcile(ctx, event); err != nil {
		s.Logger.Errorw("failed to reconcile stripe event",
			"event_id", event.ID,
			"event_type", event.ProviderType,
			"attempt", stored.Attempts,
			"error", err,
		)
		if s.Sentry != nil && !ierr.IsClientError(err) {
			s.Sentry.CaptureException(err)
		}
		if markErr := s.WebhookEventRepo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
			s.Logger.Errorw("failed to record webhook failure",
				"event_id", event.ID,
				"error", markErr,
			)
		}
		return err
	}

	if err := s.WebhookEventRepo.MarkProcessed(ctx, event.ID, s.Clock.Now()); err != nil {
		// the state change is already durable; a redelivery is absorbed by the upserts
		s.Logger.Errorw("failed to mark stripe event processed",
			"event_id", event.ID,
			"error", err,
		)
	}
	return nil
}
