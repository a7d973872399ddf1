package testutil

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
	"github.com/masseurmatch/masseurmatch/internal/sentry"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/validator"
	"github.com/stretchr/testify/suite"
)

// Stores holds the in-memory repositories for one test
type Stores struct {
	ProfileRepo      *InMemoryProfileStore
	RateRepo         *InMemoryRateStore
	SubscriptionRepo *InMemorySubscriptionStore
	IdentityRepo     *InMemoryIdentityStore
	NotificationRepo *InMemoryNotificationStore
	WebhookEventRepo *InMemoryWebhookEventStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	webhookPublisher *InMemoryWebhookPublisher
	emailSender      *FakeEmailSender
	userDirectory    *FakeUserDirectory
	stripeGateway    *FakeStripeGateway
	sentry           *sentry.Service
	logger           *logger.Logger
	config           *config.Configuration
	clock            *FakeClock
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNopLogger()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.config = TestConfig()
	s.clock = NewFakeClock(time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC))
	s.sentry = sentry.NewSentryService(s.config, s.logger)
	s.webhookPublisher = NewInMemoryWebhookPublisher()
	s.emailSender = NewFakeEmailSender()
	s.userDirectory = NewFakeUserDirectory()
	s.userDirectory.AddUser(DefaultUserID, "jamie@example.com")
	s.stripeGateway = NewFakeStripeGateway()
	s.stores = Stores{
		ProfileRepo:      NewInMemoryProfileStore(),
		RateRepo:         NewInMemoryRateStore(),
		SubscriptionRepo: NewInMemorySubscriptionStore(),
		IdentityRepo:     NewInMemoryIdentityStore(),
		NotificationRepo: NewInMemoryNotificationStore(),
		WebhookEventRepo: NewInMemoryWebhookEventStore(),
	}
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.ProfileRepo.Clear()
	s.stores.RateRepo.Clear()
	s.stores.SubscriptionRepo.Clear()
	s.stores.IdentityRepo.Clear()
	s.stores.NotificationRepo.Clear()
	s.stores.WebhookEventRepo.Clear()
}

// TestConfig returns a configuration with billing secrets and prices set
func TestConfig() *config.Configuration {
	cfg := config.GetDefaultConfig()
	cfg.Stripe.SecretKey = "sk_test_123"
	cfg.Stripe.WebhookSecret = StripeTestSecret
	cfg.Stripe.Prices = map[string]string{
		string(types.PlanStandard): "price_standard",
		string(types.PlanPro):      "price_pro",
		string(types.PlanElite):    "price_elite",
	}
	cfg.Stripe.SuccessURL = "https://masseurmatch.com/dashboard/billing?checkout=success"
	cfg.Stripe.CancelURL = "https://masseurmatch.com/pricing"
	cfg.Stripe.PortalReturnURL = "https://masseurmatch.com/dashboard/billing"
	cfg.Stripe.IdentityReturnURL = "https://masseurmatch.com/dashboard/verification"
	cfg.Sentry.Enabled = false
	return cfg
}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetWebhookPublisher() *InMemoryWebhookPublisher {
	return s.webhookPublisher
}

func (s *BaseServiceTestSuite) GetEmailSender() *FakeEmailSender {
	return s.emailSender
}

func (s *BaseServiceTestSuite) GetUserDirectory() *FakeUserDirectory {
	return s.userDirectory
}

func (s *BaseServiceTestSuite) GetStripeGateway() *FakeStripeGateway {
	return s.stripeGateway
}

func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

func (s *BaseServiceTestSuite) GetDB() postgres.Transactioner {
	return NoopTransactioner{}
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetClock() *FakeClock {
	return s.clock
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.clock.Now()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
