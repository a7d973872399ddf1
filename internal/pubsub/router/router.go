package router

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/masseurmatch/masseurmatch/internal/config"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/sentry"
)

const poisonTopic = "system_events_dlq"

// Router runs the handlers of the internal event bus
type Router struct {
	router *message.Router
	logger *logger.Logger
	sentry *sentry.Service
}

// NewRouter creates a router with poison queue, panic recovery and
// exponential retry middleware. Messages that exhaust their retries are
// logged and reported from the poison queue.
func NewRouter(cfg *config.Configuration, logger *logger.Logger, sentry *sentry.Service) (*Router, error) {
	wmLogger := newWatermillLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, err
	}

	dlq := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	poisonQueue, err := middleware.PoisonQueue(dlq, poisonTopic)
	if err != nil {
		return nil, err
	}

	r := &Router{
		router: router,
		logger: logger,
		sentry: sentry,
	}

	router.AddNoPublisherHandler("poison_queue_logger", poisonTopic, dlq, r.logPoisoned)

	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:          cfg.Webhook.MaxRetries,
			InitialInterval:     cfg.Webhook.InitialInterval,
			MaxInterval:         cfg.Webhook.MaxInterval,
			Multiplier:          cfg.Webhook.Multiplier,
			RandomizationFactor: 0.5,
			Logger:              wmLogger,
			OnRetryHook: func(retryNum int, delay time.Duration) {
				logger.Infow("retrying system event",
					"retry_number", retryNum,
					"max_retries", cfg.Webhook.MaxRetries,
					"delay", delay,
				)
			},
		}.Middleware,
	)

	return r, nil
}

func (r *Router) logPoisoned(msg *message.Message) error {
	reason := msg.Metadata.Get(middleware.ReasonForPoisonedKey)
	r.logger.Errorw("system event dropped after retries",
		"message_uuid", msg.UUID,
		"handler", msg.Metadata.Get(middleware.PoisonedHandlerKey),
		"reason", reason,
	)
	r.sentry.CaptureException(ierr.NewError(fmt.Sprintf("system event %s poisoned: %s", msg.UUID, reason)).
		Mark(ierr.ErrSystem))
	return nil
}

// AddNoPublishHandler adds a handler that doesn't publish messages
func (r *Router) AddNoPublishHandler(
	handlerName string,
	topicName string,
	subscriber message.Subscriber,
	handlerFunc func(msg *message.Message) error,
	middlewares ...message.HandlerMiddleware,
) {
	handler := r.router.AddNoPublisherHandler(
		handlerName,
		topicName,
		subscriber,
		func(msg *message.Message) error {
			err := handlerFunc(msg)
			if err != nil {
				r.logger.Warnw("system event handler failed",
					"handler", handlerName,
					"error", err,
					"correlation_id", middleware.MessageCorrelationID(msg),
					"message_uuid", msg.UUID,
				)
			}
			return err
		},
	)

	for _, m := range middlewares {
		handler.AddMiddleware(m)
	}
}

// Run blocks until ctx is cancelled or Close is called
func (r *Router) Run(ctx context.Context) error {
	r.logger.Info("starting event router")
	return r.router.Run(ctx)
}

// Running is closed once all handlers are subscribed
func (r *Router) Running() chan struct{} {
	return r.router.Running()
}

func (r *Router) Close() error {
	r.logger.Info("closing event router")
	return r.router.Close()
}
