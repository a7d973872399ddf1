package service

import (
	"time"

	"github.com/masseurmatch/masseurmatch/internal/auth"
	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/domain/identity"
	"github.com/masseurmatch/masseurmatch/internal/domain/notification"
	"github.com/masseurmatch/masseurmatch/internal/domain/profile"
	"github.com/masseurmatch/masseurmatch/internal/domain/rate"
	"github.com/masseurmatch/masseurmatch/internal/domain/subscription"
	"github.com/masseurmatch/masseurmatch/internal/domain/webhookevent"
	"github.com/masseurmatch/masseurmatch/internal/email"
	"github.com/masseurmatch/masseurmatch/internal/idempotency"
	"github.com/masseurmatch/masseurmatch/internal/integration/stripe"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
	"github.com/masseurmatch/masseurmatch/internal/sentry"
	webhookPublisher "github.com/masseurmatch/masseurmatch/internal/webhook/publisher"
)

// Clock is the time source for anything that depends on "now"
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// SystemClock returns the wall clock in UTC
func SystemClock() Clock {
	return systemClock{}
}

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.Transactioner
	Clock  Clock
	Sentry *sentry.Service

	// Repositories
	ProfileRepo      profile.Repository
	RateRepo         rate.Repository
	SubRepo          subscription.Repository
	IdentityRepo     identity.Repository
	NotificationRepo notification.Repository
	WebhookEventRepo webhookevent.Repository

	// Publishers
	WebhookPublisher webhookPublisher.WebhookPublisher

	// Collaborators
	EmailSender     email.Sender
	UserDirectory   auth.UserDirectory
	StripeGateway   stripe.Gateway
	WebhookVerifier stripe.WebhookVerifier
	KeyGenerator    *idempotency.Generator
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.Transactioner,
	sentryService *sentry.Service,
	profileRepo profile.Repository,
	rateRepo rate.Repository,
	subRepo subscription.Repository,
	identityRepo identity.Repository,
	notificationRepo notification.Repository,
	webhookEventRepo webhookevent.Repository,
	webhookPublisher webhookPublisher.WebhookPublisher,
	emailSender email.Sender,
	userDirectory auth.UserDirectory,
	stripeGateway stripe.Gateway,
	webhookVerifier stripe.WebhookVerifier,
) ServiceParams {
	return ServiceParams{
		Logger:           logger,
		Config:           config,
		DB:               db,
		Clock:            SystemClock(),
		Sentry:           sentryService,
		ProfileRepo:      profileRepo,
		RateRepo:         rateRepo,
		SubRepo:          subRepo,
		IdentityRepo:     identityRepo,
		NotificationRepo: notificationRepo,
		WebhookEventRepo: webhookEventRepo,
		WebhookPublisher: webhookPublisher,
		EmailSender:      emailSender,
		UserDirectory:    userDirectory,
		StripeGateway:    stripeGateway,
		WebhookVerifier:  webhookVerifier,
		KeyGenerator:     idempotency.NewGenerator(),
	}
}
