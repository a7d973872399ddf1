package service

import (
	"context"
	"testing"

	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	"github.com/masseurmatch/masseurmatch/internal/domain/profile"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/testutil"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type RateServiceSuite struct {
	testutil.BaseServiceTestSuite
	service RateService
	profile *profile.Profile
}

func TestRateService(t *testing.T) {
	suite.Run(t, new(RateServiceSuite))
}

func (s *RateServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewRateService(newTestParams(&s.BaseServiceTestSuite))
	s.profile = createTestProfile(&s.BaseServiceTestSuite, testutil.DefaultUserID)
}

func (s *RateServiceSuite) create(rateCtx types.RateContext, minutes int, cents int64, base bool) (*dto.RateResponse, error) {
	return s.service.CreateRate(s.GetContext(), dto.CreateRateRequest{
		Context:         rateCtx,
		DurationMinutes: minutes,
		PriceCents:      cents,
		IsBaseRate:      base,
	})
}

func (s *RateServiceSuite) mustCreate(rateCtx types.RateContext, minutes int, cents int64, base bool) *dto.RateResponse {
	resp, err := s.create(rateCtx, minutes, cents, base)
	s.Require().NoError(err)
	return resp
}

func (s *RateServiceSuite) TestCreateRateAgainstBase() {
	base := s.mustCreate(types.RateContextIncall, 60, 10000, true)
	s.True(base.IsBaseRate)
	s.Equal(s.profile.ID, base.ProfileID)
	s.Equal("166.67", base.CentsPerMinute.StringFixed(2))

	// 244.44 c/min is 46.7% above the base
	_, err := s.create(types.RateContextIncall, 90, 22000, false)
	s.Require().Error(err)
	s.True(ierr.IsRuleViolation(err))

	// 211.11 c/min is 26.7% above the base
	accepted, err := s.create(types.RateContextIncall, 90, 19000, false)
	s.Require().NoError(err)
	s.Equal(90, accepted.DurationMinutes)
	s.True(accepted.IsActive)
}

func (s *RateServiceSuite) TestDeviationBoundaryIsInclusive() {
	s.mustCreate(types.RateContextIncall, 60, 6000, true)

	tests := []struct {
		name    string
		cents   int64
		wantErr bool
	}{
		{name: "exactly_33_percent_above", cents: 3990},
		{name: "just_above_upper_bound", cents: 3991, wantErr: true},
		{name: "exactly_33_percent_below", cents: 2010},
		{name: "just_below_lower_bound", cents: 2009, wantErr: true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp, err := s.create(types.RateContextIncall, 30, tt.cents, false)
			if tt.wantErr {
				s.Require().Error(err)
				s.True(ierr.IsRuleViolation(err))
				return
			}
			s.Require().NoError(err)
			// free the duration for the next case
			s.Require().NoError(s.service.DeleteRate(s.GetContext(), resp.ID))
		})
	}
}

func (s *RateServiceSuite) TestFirstRateAndBaseRatesAlwaysAccepted() {
	s.mustCreate(types.RateContextOutcall, 60, 15000, false)

	// far outside the band but marked base
	base := s.mustCreate(types.RateContextOutcall, 120, 90000, true)
	s.True(base.IsBaseRate)
}

func (s *RateServiceSuite) TestContextsAreIndependent() {
	s.mustCreate(types.RateContextIncall, 60, 10000, true)
	// would violate against the incall base
	_, err := s.create(types.RateContextOutcall, 90, 40000, false)
	s.NoError(err)
}

func (s *RateServiceSuite) TestNearestDurationUsedWithoutBase() {
	s.mustCreate(types.RateContextEvent, 60, 6000, false)
	s.mustCreate(types.RateContextEvent, 120, 15000, false)

	// nearest is the 120 minute rate at 125 c/min; 150 c/min is 20% off
	_, err := s.create(types.RateContextEvent, 100, 15000, false)
	s.NoError(err)

	// nearest is the 60 minute rate at 100 c/min; 150 c/min is 50% off
	_, err = s.create(types.RateContextEvent, 45, 6750, false)
	s.True(ierr.IsRuleViolation(err))
}

func (s *RateServiceSuite) TestNewBaseClearsPreviousBase() {
	first := s.mustCreate(types.RateContextIncall, 60, 10000, true)
	second := s.mustCreate(types.RateContextIncall, 30, 6000, true)

	list, err := s.service.ListRates(s.GetContext(), dto.ListRatesRequest{Context: string(types.RateContextIncall)})
	s.Require().NoError(err)
	bases := lo.Filter(list.Items, func(r *dto.RateResponse, _ int) bool { return r.IsBaseRate })
	s.Require().Len(bases, 1)
	s.Equal(second.ID, bases[0].ID)
	s.NotEqual(first.ID, bases[0].ID)
}

func (s *RateServiceSuite) TestDuplicateDurationConflicts() {
	s.mustCreate(types.RateContextIncall, 60, 10000, true)
	_, err := s.create(types.RateContextIncall, 60, 10500, false)
	s.Require().Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *RateServiceSuite) TestInvalidInput() {
	tests := []struct {
		name string
		req  dto.CreateRateRequest
	}{
		{name: "unknown_context", req: dto.CreateRateRequest{Context: "home", DurationMinutes: 60, PriceCents: 100}},
		{name: "zero_duration", req: dto.CreateRateRequest{Context: types.RateContextIncall, PriceCents: 100}},
		{name: "duration_too_long", req: dto.CreateRateRequest{Context: types.RateContextIncall, DurationMinutes: 481, PriceCents: 100}},
		{name: "negative_price", req: dto.CreateRateRequest{Context: types.RateContextIncall, DurationMinutes: 60, PriceCents: -5}},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.CreateRate(s.GetContext(), tt.req)
			s.Require().Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
}

func (s *RateServiceSuite) TestRequiresProfileAndUser() {
	ctx := testutil.SetupContextForUser("user_without_profile")
	_, err := s.service.CreateRate(ctx, dto.CreateRateRequest{Context: types.RateContextIncall, DurationMinutes: 60, PriceCents: 100})
	s.True(ierr.IsNotFound(err))

	_, err = s.service.CreateRate(context.Background(), dto.CreateRateRequest{Context: types.RateContextIncall, DurationMinutes: 60, PriceCents: 100})
	s.True(ierr.IsUnauthenticated(err))
}

func (s *RateServiceSuite) TestOtherProfilesRatesAreHidden() {
	own := s.mustCreate(types.RateContextIncall, 60, 10000, true)

	other := "00000000-0000-0000-0000-000000000002"
	createTestProfile(&s.BaseServiceTestSuite, other)
	otherCtx := testutil.SetupContextForUser(other)

	_, err := s.service.GetRate(otherCtx, own.ID)
	s.True(ierr.IsNotFound(err))
	s.True(ierr.IsNotFound(s.service.DeleteRate(otherCtx, own.ID)))

	list, err := s.service.ListRates(otherCtx, dto.ListRatesRequest{})
	s.Require().NoError(err)
	s.Zero(list.Total)
}

func (s *RateServiceSuite) TestUpdateRateRevalidates() {
	s.mustCreate(types.RateContextIncall, 60, 10000, true)
	r := s.mustCreate(types.RateContextIncall, 90, 19000, false)

	_, err := s.service.UpdateRate(s.GetContext(), r.ID, dto.UpdateRateRequest{PriceCents: lo.ToPtr(int64(22000))})
	s.True(ierr.IsRuleViolation(err))

	updated, err := s.service.UpdateRate(s.GetContext(), r.ID, dto.UpdateRateRequest{PriceCents: lo.ToPtr(int64(16000))})
	s.Require().NoError(err)
	s.Equal(int64(16000), updated.PriceCents)
	s.Equal(s.GetNow(), updated.UpdatedAt)

	stored, err := s.service.GetRate(s.GetContext(), r.ID)
	s.Require().NoError(err)
	s.Equal(int64(16000), stored.PriceCents)
}

func (s *RateServiceSuite) TestUpdateBaseRateIgnoresItself() {
	base := s.mustCreate(types.RateContextIncall, 60, 10000, true)

	updated, err := s.service.UpdateRate(s.GetContext(), base.ID, dto.UpdateRateRequest{PriceCents: lo.ToPtr(int64(30000))})
	s.Require().NoError(err)
	s.True(updated.IsBaseRate)
}

func (s *RateServiceSuite) TestUpdateToTakenDurationConflicts() {
	s.mustCreate(types.RateContextIncall, 60, 10000, true)
	r := s.mustCreate(types.RateContextIncall, 90, 15000, false)

	_, err := s.service.UpdateRate(s.GetContext(), r.ID, dto.UpdateRateRequest{DurationMinutes: lo.ToPtr(60)})
	s.True(ierr.IsAlreadyExists(err))
}

func (s *RateServiceSuite) TestDeleteRateDeactivates() {
	r := s.mustCreate(types.RateContextIncall, 60, 10000, true)
	s.Require().NoError(s.service.DeleteRate(s.GetContext(), r.ID))

	active, err := s.service.ListRates(s.GetContext(), dto.ListRatesRequest{})
	s.Require().NoError(err)
	s.Zero(active.Total)

	all, err := s.service.ListRates(s.GetContext(), dto.ListRatesRequest{IncludeInactive: true})
	s.Require().NoError(err)
	s.Require().Equal(1, all.Total)
	s.False(all.Items[0].IsActive)
	s.Require().NotNil(all.Items[0].DeactivatedAt)
	s.Equal(s.GetNow(), *all.Items[0].DeactivatedAt)

	_, err = s.service.UpdateRate(s.GetContext(), r.ID, dto.UpdateRateRequest{PriceCents: lo.ToPtr(int64(100))})
	s.True(ierr.IsNotFound(err))

	// the duration is free again
	_, err = s.create(types.RateContextIncall, 60, 12000, true)
	s.NoError(err)
}
