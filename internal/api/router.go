package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/masseurmatch/masseurmatch/internal/api/v1"
	"github.com/masseurmatch/masseurmatch/internal/auth"
	"github.com/masseurmatch/masseurmatch/internal/cache"
	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/rest/middleware"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

type Handlers struct {
	Health       *v1.HealthHandler
	Webhook      *v1.WebhookHandler
	Rate         *v1.RateHandler
	Notification *v1.NotificationHandler
	Entitlement  *v1.EntitlementHandler
	Billing      *v1.BillingHandler
}

func NewRouter(
	handlers Handlers,
	cfg *config.Configuration,
	logger *logger.Logger,
	tokenValidator auth.TokenValidator,
	store cache.Cache,
) *gin.Engine {
	if cfg.Deployment.Mode == types.ModeAPI {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware(cfg),
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)

	// provider deliveries authenticate with their signature, not a bearer token
	public := router.Group("/v1")
	{
		webhooks := public.Group("/webhooks")
		webhooks.POST("/stripe", handlers.Webhook.HandleStripeWebhook)
		webhooks.POST("/stripe/identity", handlers.Webhook.HandleStripeIdentityWebhook)
	}

	private := router.Group("/v1")
	private.Use(
		middleware.AuthenticateMiddleware(tokenValidator, logger),
		middleware.SentryUserMiddleware,
	)
	registerV1Routes(private, handlers, middleware.RateLimitMiddleware(cfg, store))

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers, throttle gin.HandlerFunc) {
	rates := router.Group("/rates")
	rates.Use(throttle)
	{
		rates.POST("", handlers.Rate.CreateRate)
		rates.GET("", handlers.Rate.ListRates)
		rates.GET("/:id", handlers.Rate.GetRate)
		rates.PATCH("/:id", handlers.Rate.UpdateRate)
		rates.DELETE("/:id", handlers.Rate.DeleteRate)
	}

	notifications := router.Group("/notifications")
	{
		notifications.GET("", handlers.Notification.ListNotifications)
		notifications.GET("/unread-count", handlers.Notification.GetUnreadCount)
		notifications.POST("/read-all", handlers.Notification.MarkAllRead)
		notifications.POST("/:id/read", handlers.Notification.MarkRead)
		notifications.DELETE("/:id", handlers.Notification.DeleteNotification)
	}

	entitlements := router.Group("/entitlements")
	{
		entitlements.GET("", handlers.Entitlement.GetEntitlements)
		entitlements.POST("/photos/check", handlers.Entitlement.CheckPhotoQuota)
	}

	billing := router.Group("/billing")
	{
		billing.POST("/checkout", handlers.Billing.CreateCheckoutSession)
		billing.POST("/portal", handlers.Billing.CreatePortalSession)
	}

	identity := router.Group("/identity")
	{
		identity.GET("", handlers.Billing.GetIdentityStatus)
		identity.POST("/sessions", handlers.Billing.CreateIdentitySession)
	}
}
