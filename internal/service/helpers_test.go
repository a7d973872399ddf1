package service

import (
	"github.com/masseurmatch/masseurmatch/internal/domain/profile"
	"github.com/masseurmatch/masseurmatch/internal/idempotency"
	"github.com/masseurmatch/masseurmatch/internal/integration/stripe"
	"github.com/masseurmatch/masseurmatch/internal/testutil"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

// newTestParams wires ServiceParams onto the suite's in-memory collaborators
func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		Clock:            s.GetClock(),
		Sentry:           s.GetSentry(),
		ProfileRepo:      stores.ProfileRepo,
		RateRepo:         stores.RateRepo,
		SubRepo:          stores.SubscriptionRepo,
		IdentityRepo:     stores.IdentityRepo,
		NotificationRepo: stores.NotificationRepo,
		WebhookEventRepo: stores.WebhookEventRepo,
		WebhookPublisher: s.GetWebhookPublisher(),
		EmailSender:      s.GetEmailSender(),
		UserDirectory:    s.GetUserDirectory(),
		StripeGateway:    s.GetStripeGateway(),
		WebhookVerifier:  stripe.NewWebhookVerifier(s.GetLogger()),
		KeyGenerator:     idempotency.NewGenerator(),
	}
}

func createTestProfile(s *testutil.BaseServiceTestSuite, userID string) *profile.Profile {
	p := &profile.Profile{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROFILE),
		UserID:      userID,
		DisplayName: "Test Provider",
		BaseModel:   types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.GetStores().ProfileRepo.CreateProfile(s.GetContext(), p))
	return p
}
