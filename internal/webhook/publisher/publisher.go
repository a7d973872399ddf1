package publisher

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/pubsub"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

// WebhookPublisher publishes system events for outbound delivery
type WebhookPublisher interface {
	PublishWebhook(ctx context.Context, event *types.SystemEvent) error
	Close() error
}

type webhookPublisher struct {
	pubSub pubsub.PubSub
	config *config.Webhook
	logger *logger.Logger
}

func NewPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) WebhookPublisher {
	return &webhookPublisher{
		pubSub: pubSub,
		config: &cfg.Webhook,
		logger: logger,
	}
}

// PublishWebhook is a no-op while outbound webhooks are disabled
func (p *webhookPublisher) PublishWebhook(ctx context.Context, event *types.SystemEvent) error {
	if !p.config.Enabled {
		p.logger.Debugw("outbound webhooks disabled, dropping event",
			"event_id", event.ID,
			"event_name", event.EventName,
		)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	messageID := event.ID
	if messageID == "" {
		messageID = watermill.NewUUID()
	}

	msg := message.NewMessage(messageID, payload)
	msg.Metadata.Set("user_id", event.UserID)
	msg.Metadata.Set("event_name", string(event.EventName))

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish system event",
			"error", err,
			"event_id", event.ID,
			"event_name", event.EventName,
		)
		return err
	}

	p.logger.Debugw("published system event",
		"event_id", event.ID,
		"event_name", event.EventName,
		"user_id", event.UserID,
		"topic", p.config.Topic,
	)

	return nil
}

func (p *webhookPublisher) Close() error {
	return p.pubSub.Close()
}
