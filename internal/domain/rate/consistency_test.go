package rate

import (
	"testing"
	"time"

	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/stretchr/testify/suite"
)

type ConsistencySuite struct {
	suite.Suite
	base *Rate
}

func TestConsistency(t *testing.T) {
	suite.Run(t, new(ConsistencySuite))
}

func (s *ConsistencySuite) SetupTest() {
	s.base = &Rate{
		ID:              "rate_base",
		ProfileID:       "prof_1",
		Context:         types.RateContextIncall,
		DurationMinutes: 60,
		PriceCents:      10000,
		IsActive:        true,
		IsBaseRate:      true,
	}
}

func (s *ConsistencySuite) candidate(duration int, price int64) Candidate {
	return Candidate{
		Context:         types.RateContextIncall,
		DurationMinutes: duration,
		PriceCents:      price,
	}
}

func (s *ConsistencySuite) TestBaseRateAlwaysPasses() {
	existing := []*Rate{s.base}
	for _, c := range []Candidate{
		{Context: types.RateContextIncall, DurationMinutes: 1, PriceCents: 1, IsBaseRate: true},
		{Context: types.RateContextIncall, DurationMinutes: 480, PriceCents: MaxPriceCents, IsBaseRate: true},
		{Context: types.RateContextIncall, DurationMinutes: 90, PriceCents: 99999, IsBaseRate: true},
	} {
		s.NoError(ValidateNewRate(c, existing))
	}
}

func (s *ConsistencySuite) TestFirstRateInContextPasses() {
	outcall := Candidate{Context: types.RateContextOutcall, DurationMinutes: 90, PriceCents: 90000}
	s.NoError(ValidateNewRate(outcall, []*Rate{s.base}))
	s.NoError(ValidateNewRate(s.candidate(30, 1), nil))
}

func (s *ConsistencySuite) TestInactiveRatesIgnored() {
	s.base.IsActive = false
	s.NoError(ValidateNewRate(s.candidate(90, 50000), []*Rate{s.base}))
}

func (s *ConsistencySuite) TestScenarioAboveBoundRejected() {
	err := ValidateNewRate(s.candidate(90, 22000), []*Rate{s.base})
	s.Error(err)
	s.True(ierr.IsRuleViolation(err))
	s.False(ierr.IsValidation(err))

	details := ierr.ReportableDetails(err)
	violations, ok := details["violations"].([]any)
	s.Require().True(ok)
	s.Require().Len(violations, 1)
	v := violations[0].(map[string]any)
	s.Equal("rate_base", v["reference_rate_id"])
	s.Equal("46.6667", v["deviation_percent"])
	s.Equal("221.67", v["max_cents_per_minute"])
}

func (s *ConsistencySuite) TestScenarioWithinBoundAccepted() {
	s.NoError(ValidateNewRate(s.candidate(90, 19000), []*Rate{s.base}))
}

func (s *ConsistencySuite) TestBoundaryIsInclusive() {
	ref := &Rate{
		ID:              "rate_ref",
		Context:         types.RateContextIncall,
		DurationMinutes: 1,
		PriceCents:      1_000_000,
		IsActive:        true,
		IsBaseRate:      true,
	}

	// exactly 33.0%
	s.NoError(ValidateNewRate(s.candidate(1, 1_330_000), []*Rate{ref}))
	s.NoError(ValidateNewRate(s.candidate(1, 670_000), []*Rate{ref}))

	// 33.0001%
	err := ValidateNewRate(s.candidate(1, 1_330_001), []*Rate{ref})
	s.True(ierr.IsRuleViolation(err))
	err = ValidateNewRate(s.candidate(1, 669_999), []*Rate{ref})
	s.True(ierr.IsRuleViolation(err))
}

func (s *ConsistencySuite) TestBoundaryAcrossDurations() {
	// 100/min base, 133/min candidate over 90 minutes
	ref := &Rate{ID: "r", Context: types.RateContextIncall, DurationMinutes: 60, PriceCents: 6000, IsActive: true, IsBaseRate: true}
	s.NoError(ValidateNewRate(s.candidate(90, 11970), []*Rate{ref}))
	s.True(ierr.IsRuleViolation(ValidateNewRate(s.candidate(90, 11971), []*Rate{ref})))
}

func (s *ConsistencySuite) TestMalformedInputRejectedFirst() {
	cases := []Candidate{
		{Context: "massage", DurationMinutes: 60, PriceCents: 100},
		{Context: types.RateContextIncall, DurationMinutes: 0, PriceCents: 100},
		{Context: types.RateContextIncall, DurationMinutes: 481, PriceCents: 100},
		{Context: types.RateContextIncall, DurationMinutes: 60, PriceCents: 0},
		{Context: types.RateContextIncall, DurationMinutes: 60, PriceCents: -5},
		{Context: types.RateContextIncall, DurationMinutes: 60, PriceCents: MaxPriceCents + 1, IsBaseRate: true},
	}
	for _, c := range cases {
		err := ValidateNewRate(c, []*Rate{s.base})
		s.True(ierr.IsValidation(err), "candidate %+v", c)
		s.False(ierr.IsRuleViolation(err))
	}
}

func (s *ConsistencySuite) TestNearestDurationUsedWithoutBase() {
	now := time.Now()
	short := &Rate{ID: "rate_30", Context: types.RateContextIncall, DurationMinutes: 30, PriceCents: 3000, IsActive: true, BaseModel: types.BaseModel{CreatedAt: now}}
	long := &Rate{ID: "rate_120", Context: types.RateContextIncall, DurationMinutes: 120, PriceCents: 24000, IsActive: true, BaseModel: types.BaseModel{CreatedAt: now}}

	refs := References(s.candidate(100, 1), []*Rate{short, long})
	s.Require().Len(refs, 1)
	s.Equal("rate_120", refs[0].ID)

	// 190/min is within 33% of 200/min but far from 100/min
	s.NoError(ValidateNewRate(s.candidate(100, 19000), []*Rate{short, long}))

	err := ValidateNewRate(s.candidate(40, 4000*2), []*Rate{short, long})
	s.True(ierr.IsRuleViolation(err))
}

func (s *ConsistencySuite) TestNearestDurationTieBreaksOnShorter() {
	a := &Rate{ID: "rate_60", Context: types.RateContextIncall, DurationMinutes: 60, PriceCents: 6000, IsActive: true}
	b := &Rate{ID: "rate_120", Context: types.RateContextIncall, DurationMinutes: 120, PriceCents: 12000, IsActive: true}
	refs := References(s.candidate(90, 9000), []*Rate{b, a})
	s.Require().Len(refs, 1)
	s.Equal("rate_60", refs[0].ID)
}

func (s *ConsistencySuite) TestBaseRatePreferredOverNearer() {
	near := &Rate{ID: "rate_near", Context: types.RateContextIncall, DurationMinutes: 90, PriceCents: 90000, IsActive: true}
	refs := References(s.candidate(90, 15000), []*Rate{near, s.base})
	s.Require().Len(refs, 1)
	s.Equal("rate_base", refs[0].ID)
	s.NoError(ValidateNewRate(s.candidate(90, 15000), []*Rate{near, s.base}))
}

func (s *ConsistencySuite) TestAnyOfMultipleBasesSuffices() {
	other := &Rate{ID: "rate_base_2", Context: types.RateContextIncall, DurationMinutes: 60, PriceCents: 20000, IsActive: true, IsBaseRate: true}
	// 300/min: too far from 166.67/min, within 33% of 333.33/min
	s.NoError(ValidateNewRate(s.candidate(60, 18000), []*Rate{s.base, other}))

	err := ValidateNewRate(s.candidate(60, 60000), []*Rate{s.base, other})
	s.True(ierr.IsRuleViolation(err))
	violations := ierr.ReportableDetails(err)["violations"].([]any)
	s.Len(violations, 2)
}

func (s *ConsistencySuite) TestCentsPerMinute() {
	s.Equal("166.67", s.base.CentsPerMinute().StringFixed(2))
}
