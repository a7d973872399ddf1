package handler

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/pubsub"
	pubsubRouter "github.com/masseurmatch/masseurmatch/internal/pubsub/router"
	"github.com/masseurmatch/masseurmatch/internal/svix"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/webhook/payload"
)

// Handler consumes system events and delivers them to subscribed endpoints
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

// Deliverer sends a built payload to its destination
type Deliverer interface {
	IsEnabled() bool
	GetOrCreateApplication(ctx context.Context) (string, error)
	SendMessage(ctx context.Context, applicationID string, eventType string, payload json.RawMessage) error
}

type handler struct {
	pubSub    pubsub.PubSub
	config    *config.Webhook
	factory   payload.PayloadBuilderFactory
	deliverer Deliverer
	logger    *logger.Logger
}

func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	factory payload.PayloadBuilderFactory,
	svixClient *svix.Client,
	logger *logger.Logger,
) Handler {
	return newHandler(pubSub, &cfg.Webhook, factory, svixClient, logger)
}

func newHandler(
	pubSub pubsub.PubSub,
	cfg *config.Webhook,
	factory payload.PayloadBuilderFactory,
	deliverer Deliverer,
	logger *logger.Logger,
) *handler {
	return &handler{
		pubSub:    pubSub,
		config:    cfg,
		factory:   factory,
		deliverer: deliverer,
		logger:    logger,
	}
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"system_event_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage returns an error only for failures worth retrying
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event types.SystemEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal system event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	ctx = types.SetUserID(ctx, event.UserID)

	builder, err := h.factory.GetBuilder(event.EventName)
	if err != nil {
		h.logger.Warnw("dropping system event without builder",
			"event_name", event.EventName,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	body, err := builder.BuildPayload(ctx, event.EventName, event.Payload)
	if err != nil {
		h.logger.Errorw("failed to build system event payload",
			"error", err,
			"event_name", event.EventName,
			"message_uuid", msg.UUID,
		)
		return nil
	}

	if !h.deliverer.IsEnabled() {
		h.logger.Debugw("no delivery configured, dropping system event",
			"event_name", event.EventName,
			"user_id", event.UserID,
			"payload", string(body),
		)
		return nil
	}

	appID, err := h.deliverer.GetOrCreateApplication(ctx)
	if err != nil {
		return err
	}

	if err := h.deliverer.SendMessage(ctx, appID, string(event.EventName), body); err != nil {
		h.logger.Errorw("failed to deliver system event",
			"error", err,
			"message_uuid", msg.UUID,
			"event_name", event.EventName,
		)
		if !pubsubRouter.ShouldRetry(h.logger, err) {
			return nil
		}
		return err
	}

	h.logger.Infow("system event delivered",
		"message_uuid", msg.UUID,
		"event_name", event.EventName,
		"user_id", event.UserID,
	)

	return nil
}
