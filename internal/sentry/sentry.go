package sentry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"go.uber.org/fx"
)

type Service struct {
	cfg    *config.Configuration
	logger *logger.Logger
}

// Module provides fx options for Sentry
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewSentryService),
		fx.Invoke(RegisterHooks),
	)
}

// RegisterHooks initializes the SDK on start and flushes it on stop
func RegisterHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !svc.cfg.Sentry.Enabled {
				svc.logger.Info("Sentry is disabled")
				return nil
			}

			err := sentry.Init(sentry.ClientOptions{
				Dsn:              svc.cfg.Sentry.DSN,
				Environment:      svc.cfg.Sentry.Environment,
				EnableTracing:    true,
				TracesSampleRate: svc.cfg.Sentry.SampleRate,
				TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
					if ctx.Span.Name == "GET /health" {
						return 0.0
					}
					return svc.cfg.Sentry.SampleRate
				}),
			})
			if err != nil {
				svc.logger.Errorw("failed to initialize Sentry", "error", err)
				return err
			}
			svc.logger.Infow("Sentry initialized",
				"environment", svc.cfg.Sentry.Environment,
				"sample_rate", svc.cfg.Sentry.SampleRate,
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if svc.cfg.Sentry.Enabled {
				svc.logger.Info("flushing Sentry events before shutdown")
				sentry.Flush(2 * time.Second)
			}
			return nil
		},
	})
}

func NewSentryService(cfg *config.Configuration, logger *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

// CaptureException captures an error in Sentry
func (s *Service) CaptureException(err error) {
	if !s.cfg.Sentry.Enabled {
		return
	}
	sentry.CaptureException(err)
}

// AddBreadcrumb adds a breadcrumb to the current scope
func (s *Service) AddBreadcrumb(category, message string, data map[string]interface{}) {
	if !s.cfg.Sentry.Enabled {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category: category,
		Message:  message,
		Level:    sentry.LevelInfo,
		Data:     data,
	})
}

// MonitorWebhookProcessing starts a span for one inbound provider event and
// tags the delivery lag measured from the event's creation time.
func (s *Service) MonitorWebhookProcessing(ctx context.Context, eventType string, eventCreatedAt time.Time, metadata map[string]interface{}) (*sentry.Span, context.Context) {
	if !s.cfg.Sentry.Enabled {
		return nil, ctx
	}

	span := sentry.StartSpan(ctx, "webhook.process")
	if span == nil {
		return nil, ctx
	}
	span.Description = "Processing provider webhook"
	span.Op = "webhook.process"
	span.SetData("event_type", eventType)

	lag := time.Since(eventCreatedAt)
	span.SetData("lag_ms", lag.Milliseconds())

	if tx := sentry.TransactionFromContext(ctx); tx != nil {
		tx.SetTag("webhook.lag.ms", fmt.Sprintf("%d", lag.Milliseconds()))
		switch {
		case lag >= time.Hour:
			tx.SetTag("webhook.lag.severity", "critical")
		case lag >= 5*time.Minute:
			tx.SetTag("webhook.lag.severity", "warning")
		default:
			tx.SetTag("webhook.lag.severity", "normal")
		}
	}

	for k, v := range metadata {
		span.SetData(k, v)
	}

	return span, span.Context()
}

// FinishSpan finishes span when it is not nil
func FinishSpan(span *sentry.Span) {
	if span != nil {
		span.Finish()
	}
}
