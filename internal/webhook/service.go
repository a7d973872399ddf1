package webhook

import (
	"context"
	"fmt"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	pubsubRouter "github.com/masseurmatch/masseurmatch/internal/pubsub/router"
	"github.com/masseurmatch/masseurmatch/internal/webhook/handler"
	"github.com/masseurmatch/masseurmatch/internal/webhook/publisher"
)

// Service runs outbound delivery of system events
type Service struct {
	config    *config.Configuration
	publisher publisher.WebhookPublisher
	handler   handler.Handler
	router    *pubsubRouter.Router
	logger    *logger.Logger
	cancel    context.CancelFunc
}

func NewService(
	cfg *config.Configuration,
	publisher publisher.WebhookPublisher,
	h handler.Handler,
	router *pubsubRouter.Router,
	l *logger.Logger,
) *Service {
	return &Service{
		config:    cfg,
		publisher: publisher,
		handler:   h,
		router:    router,
		logger:    l,
	}
}

// Start registers the delivery handler and runs the router in the background
func (s *Service) Start(ctx context.Context) error {
	if !s.config.Webhook.Enabled {
		s.logger.Info("outbound webhooks disabled")
		return nil
	}

	s.handler.RegisterHandler(s.router)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		if err := s.router.Run(runCtx); err != nil {
			s.logger.Errorw("router stopped with error", "error", err)
		}
	}()

	select {
	case <-s.router.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("outbound webhooks started")
	return nil
}

// Stop closes the router before the publisher so in-flight messages finish
func (s *Service) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}

	if err := s.router.Close(); err != nil {
		s.logger.Errorw("failed to close router", "error", err)
		return fmt.Errorf("failed to close router: %w", err)
	}

	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close webhook publisher", "error", err)
		return fmt.Errorf("failed to close webhook publisher: %w", err)
	}

	s.logger.Info("outbound webhooks stopped")
	return nil
}
