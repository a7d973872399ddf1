package webhook

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/pubsub"
	"github.com/masseurmatch/masseurmatch/internal/pubsub/memory"
	pubsubRouter "github.com/masseurmatch/masseurmatch/internal/pubsub/router"
	"github.com/masseurmatch/masseurmatch/internal/svix"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/webhook/handler"
	"github.com/masseurmatch/masseurmatch/internal/webhook/payload"
	"github.com/masseurmatch/masseurmatch/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides outbound system event delivery
var Module = fx.Options(
	fx.Provide(
		providePubSub,
		pubsubRouter.NewRouter,
		svix.NewClient,
		payload.NewPayloadBuilderFactory,
		publisher.NewPublisher,
		handler.NewHandler,
		NewService,
	),
	fx.Invoke(registerLifecycle),
)

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	switch cfg.Webhook.PubSub {
	case types.PubSubTypeMemory, "":
		return memory.NewPubSub(logger)
	}
	logger.Warnw("unsupported pubsub type, falling back to memory", "pubsub", cfg.Webhook.PubSub)
	return memory.NewPubSub(logger)
}

func registerLifecycle(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return svc.Stop()
		},
	})
}
