package service

import (
	"context"
	"testing"

	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	"github.com/masseurmatch/masseurmatch/internal/domain/identity"
	"github.com/masseurmatch/masseurmatch/internal/domain/subscription"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/testutil"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BillingService
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewBillingService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *BillingServiceSuite) TestCheckoutForNewCustomerIncludesTrial() {
	resp, err := s.service.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{Plan: types.PlanPro})
	s.Require().NoError(err)
	s.NotEmpty(resp.ID)
	s.NotEmpty(resp.URL)

	gw := s.GetStripeGateway()
	s.Require().Len(gw.Checkouts, 1)
	req := gw.Checkouts[0]
	s.Equal(testutil.DefaultUserID, req.UserID)
	s.Equal("price_pro", req.PriceID)
	s.Equal(types.PlanPro, req.Plan)
	s.Equal(int64(7), req.TrialDays)
	s.Empty(req.CustomerID)
	s.Equal(s.GetConfig().Stripe.SuccessURL, req.SuccessURL)
	s.Equal(s.GetConfig().Stripe.CancelURL, req.CancelURL)
}

func (s *BillingServiceSuite) TestCheckoutForReturningCustomerSkipsTrial() {
	p := createTestProfile(&s.BaseServiceTestSuite, testutil.DefaultUserID)
	s.Require().NoError(s.GetStores().ProfileRepo.SetStripeCustomerID(s.GetContext(), p.ID, "cus_existing"))

	_, err := s.service.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{
		Plan:       types.PlanElite,
		SuccessURL: "https://example.com/ok",
	})
	s.Require().NoError(err)

	req := s.GetStripeGateway().Checkouts[0]
	s.Equal("cus_existing", req.CustomerID)
	s.Zero(req.TrialDays)
	s.Equal("https://example.com/ok", req.SuccessURL)
}

func (s *BillingServiceSuite) TestCheckoutRejectsUnpurchasablePlans() {
	_, err := s.service.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{Plan: types.PlanFree})
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{Plan: "platinum"})
	s.True(ierr.IsValidation(err))

	delete(s.GetConfig().Stripe.Prices, string(types.PlanStandard))
	_, err = s.service.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{Plan: types.PlanStandard})
	s.True(ierr.IsNotConfigured(err))

	s.Empty(s.GetStripeGateway().Checkouts)
}

func (s *BillingServiceSuite) TestCheckoutGatewayErrorPropagates() {
	s.GetStripeGateway().Err = ierr.NewError("stripe unavailable").Mark(ierr.ErrHTTPClient)
	_, err := s.service.CreateCheckoutSession(s.GetContext(), dto.CreateCheckoutSessionRequest{Plan: types.PlanPro})
	s.Require().Error(err)
	s.Contains(err.Error(), "stripe unavailable")
	s.Empty(s.GetStripeGateway().Checkouts)
}

func (s *BillingServiceSuite) TestPortalRequiresCustomer() {
	_, err := s.service.CreatePortalSession(s.GetContext(), dto.CreatePortalSessionRequest{})
	s.True(ierr.IsNotFound(err))

	_, err = s.GetStores().SubscriptionRepo.Upsert(s.GetContext(), &subscription.Subscription{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:                 testutil.DefaultUserID,
		Plan:                   types.PlanPro,
		Status:                 types.SubscriptionStatusActive,
		ExternalSubscriptionID: "sub_1",
		ExternalCustomerID:     "cus_from_sub",
		BaseModel:              types.BaseModel{CreatedAt: s.GetNow(), UpdatedAt: s.GetNow()},
	})
	s.Require().NoError(err)

	resp, err := s.service.CreatePortalSession(s.GetContext(), dto.CreatePortalSessionRequest{})
	s.Require().NoError(err)
	s.NotEmpty(resp.URL)
	s.Equal([]string{"cus_from_sub"}, s.GetStripeGateway().PortalCustomer)
}

func (s *BillingServiceSuite) TestIdentitySession() {
	status, err := s.service.GetIdentityStatus(s.GetContext())
	s.Require().NoError(err)
	s.Equal(types.IdentityStatusUnverified, status.Status)

	_, err = s.service.CreateIdentitySession(s.GetContext(), dto.CreateIdentitySessionRequest{})
	s.Require().NoError(err)
	s.Equal([]string{testutil.DefaultUserID}, s.GetStripeGateway().IdentityUsers)

	_, err = s.GetStores().IdentityRepo.Upsert(s.GetContext(), &identity.Verification{
		UserID:     testutil.DefaultUserID,
		Status:     types.IdentityStatusVerified,
		VerifiedAt: lo.ToPtr(s.GetNow()),
	})
	s.Require().NoError(err)

	status, err = s.service.GetIdentityStatus(s.GetContext())
	s.Require().NoError(err)
	s.Equal(types.IdentityStatusVerified, status.Status)
	s.Equal(s.GetNow(), lo.FromPtr(status.VerifiedAt))

	_, err = s.service.CreateIdentitySession(s.GetContext(), dto.CreateIdentitySessionRequest{})
	s.True(ierr.IsAlreadyExists(err))
}

func (s *BillingServiceSuite) TestRequiresUser() {
	_, err := s.service.CreateCheckoutSession(context.Background(), dto.CreateCheckoutSessionRequest{Plan: types.PlanPro})
	s.True(ierr.IsUnauthenticated(err))

	_, err = s.service.GetIdentityStatus(context.Background())
	s.True(ierr.IsUnauthenticated(err))
}
