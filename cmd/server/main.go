package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/masseurmatch/masseurmatch/internal/api"
	v1 "github.com/masseurmatch/masseurmatch/internal/api/v1"
	"github.com/masseurmatch/masseurmatch/internal/auth"
	"github.com/masseurmatch/masseurmatch/internal/cache"
	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/email"
	"github.com/masseurmatch/masseurmatch/internal/integration/stripe"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
	repository "github.com/masseurmatch/masseurmatch/internal/repository/postgres"
	"github.com/masseurmatch/masseurmatch/internal/sentry"
	"github.com/masseurmatch/masseurmatch/internal/service"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/validator"
	"github.com/masseurmatch/masseurmatch/internal/webhook"
	"go.uber.org/fx"
)

// @title MasseurMatch API
// @version 1.0
// @description Listings, rates, billing and notifications for MasseurMatch providers
// @BasePath /v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter the access token in the format *Bearer &lt;token&gt;*

const defaultShutdownTimeout = 10 * time.Second

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			provideCache,

			// Email
			email.NewEmailClient,
			provideEmailSender,

			// Auth
			auth.NewUserDirectory,
			auth.NewTokenValidator,

			// Stripe
			stripe.NewClient,
			stripe.NewWebhookVerifier,
		),
		postgres.Module(),
		repository.Module(),
	)

	// Outbound system webhooks (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,
			service.NewNotificationService,
			service.NewSubscriptionReconciler,
			service.NewWebhookService,
			service.NewRateService,
			service.NewEntitlementService,
			service.NewBillingService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			api.NewRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideCache(cfg *config.Configuration, log *logger.Logger) cache.Cache {
	return cache.NewInMemoryCache(cfg, log)
}

func provideEmailSender(client *email.EmailClient, cfg *config.Configuration, log *logger.Logger) email.Sender {
	return email.NewEmail(client, cfg, log)
}

func provideHandlers(
	cfg *config.Configuration,
	db *postgres.DB,
	logger *logger.Logger,
	webhookService service.WebhookService,
	rateService service.RateService,
	notificationService service.NotificationService,
	entitlementService service.EntitlementService,
	billingService service.BillingService,
) api.Handlers {
	return api.Handlers{
		Health:       v1.NewHealthHandler(db, logger),
		Webhook:      v1.NewWebhookHandler(webhookService, cfg, logger),
		Rate:         v1.NewRateHandler(rateService, logger),
		Notification: v1.NewNotificationHandler(notificationService, logger),
		Entitlement:  v1.NewEntitlementHandler(entitlementService, logger),
		Billing:      v1.NewBillingHandler(billingService, logger),
	}
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			timeout := cfg.Server.ShutdownTimeout
			if timeout <= 0 {
				timeout = defaultShutdownTimeout
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}
