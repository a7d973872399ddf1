package rate

import (
	"fmt"
	"sort"

	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// MaxPriceCents keeps the integer cross-multiplication in ValidateNewRate
// far away from int64 overflow.
const MaxPriceCents int64 = 100_000_000

// Candidate is a rate that has been submitted but not yet persisted
type Candidate struct {
	Context         types.RateContext
	DurationMinutes int
	PriceCents      int64
	IsBaseRate      bool
}

// Validate rejects malformed input before any economic comparison
func (c Candidate) Validate() error {
	if err := c.Context.Validate(); err != nil {
		return err
	}
	if c.DurationMinutes < types.MinRateDurationMinutes || c.DurationMinutes > types.MaxRateDurationMinutes {
		return ierr.NewError("duration out of range").
			WithHintf("Duration must be between %d and %d minutes", types.MinRateDurationMinutes, types.MaxRateDurationMinutes).
			WithReportableDetails(map[string]any{
				"duration_minutes": c.DurationMinutes,
			}).
			Mark(ierr.ErrValidation)
	}
	if c.PriceCents <= 0 || c.PriceCents > MaxPriceCents {
		return ierr.NewError("price out of range").
			WithHintf("Price must be between 1 and %d cents", MaxPriceCents).
			WithReportableDetails(map[string]any{
				"price_cents": c.PriceCents,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CentsPerMinute is the implied per-minute price of the candidate
func (c Candidate) CentsPerMinute() decimal.Decimal {
	return decimal.NewFromInt(c.PriceCents).Div(decimal.NewFromInt(int64(c.DurationMinutes)))
}

// Comparison is the candidate measured against one reference rate
type Comparison struct {
	ReferenceRateID          string          `json:"reference_rate_id"`
	ReferenceDurationMinutes int             `json:"reference_duration_minutes"`
	ReferenceCentsPerMinute  decimal.Decimal `json:"reference_cents_per_minute"`
	MinCentsPerMinute        decimal.Decimal `json:"min_cents_per_minute"`
	MaxCentsPerMinute        decimal.Decimal `json:"max_cents_per_minute"`
	CandidateCentsPerMinute  decimal.Decimal `json:"candidate_cents_per_minute"`
	DeviationPercent         decimal.Decimal `json:"deviation_percent"`
	Within                   bool            `json:"within"`
}

// ValidateNewRate checks a candidate against the active rates of the same
// profile. Base rates and the first rate in a context always pass. Otherwise
// the references are the context's base rates, or the nearest-duration rate
// when no base is marked, and at least one reference must be within
// MaxRateDeviationPercent of the candidate's per-minute price.
func ValidateNewRate(candidate Candidate, existing []*Rate) error {
	if err := candidate.Validate(); err != nil {
		return err
	}
	if candidate.IsBaseRate {
		return nil
	}

	refs := References(candidate, existing)
	if len(refs) == 0 {
		return nil
	}

	comparisons := make([]Comparison, 0, len(refs))
	for _, ref := range refs {
		cmp := Compare(candidate, ref)
		if cmp.Within {
			return nil
		}
		comparisons = append(comparisons, cmp)
	}

	first := comparisons[0]
	return ierr.NewError("rate violates per-minute consistency rule").
		WithHintf("A %d minute %s rate must cost between %s and %s cents per minute; this one is %s (%s%% off)",
			candidate.DurationMinutes,
			candidate.Context,
			first.MinCentsPerMinute.StringFixed(2),
			first.MaxCentsPerMinute.StringFixed(2),
			first.CandidateCentsPerMinute.StringFixed(2),
			first.DeviationPercent.Abs().StringFixed(2),
		).
		WithReportableDetails(map[string]any{
			"context":               candidate.Context,
			"max_deviation_percent": types.MaxRateDeviationPercent,
			"violations":            comparisons,
		}).
		Mark(ierr.ErrRuleViolation)
}

// References returns the rates a candidate is measured against
func References(candidate Candidate, existing []*Rate) []*Rate {
	sameContext := lo.Filter(existing, func(r *Rate, _ int) bool {
		return r != nil && r.IsActive && r.Context == candidate.Context && r.DurationMinutes > 0 && r.PriceCents > 0
	})
	if len(sameContext) == 0 {
		return nil
	}

	bases := lo.Filter(sameContext, func(r *Rate, _ int) bool { return r.IsBaseRate })
	if len(bases) > 0 {
		return bases
	}

	sorted := append([]*Rate(nil), sameContext...)
	sort.SliceStable(sorted, func(i, j int) bool {
		di := absInt(sorted[i].DurationMinutes - candidate.DurationMinutes)
		dj := absInt(sorted[j].DurationMinutes - candidate.DurationMinutes)
		if di != dj {
			return di < dj
		}
		if sorted[i].DurationMinutes != sorted[j].DurationMinutes {
			return sorted[i].DurationMinutes < sorted[j].DurationMinutes
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted[:1]
}

// Compare measures candidate against ref. The bound is decided with integer
// cross-multiplication so that exactly MaxRateDeviationPercent passes:
//
//	|cp/cd - rp/rd| / (rp/rd) <= 33/100  <=>  100*|cp*rd - rp*cd| <= 33*rp*cd
func Compare(candidate Candidate, ref *Rate) Comparison {
	cp, cd := candidate.PriceCents, int64(candidate.DurationMinutes)
	rp, rd := ref.PriceCents, int64(ref.DurationMinutes)

	diff := cp*rd - rp*cd
	denom := rp * cd
	within := 100*absInt64(diff) <= types.MaxRateDeviationPercent*denom

	refPerMinute := ref.CentsPerMinute()
	band := decimal.NewFromInt(types.MaxRateDeviationPercent).Div(decimal.NewFromInt(100))

	return Comparison{
		ReferenceRateID:          ref.ID,
		ReferenceDurationMinutes: ref.DurationMinutes,
		ReferenceCentsPerMinute:  refPerMinute.Round(2),
		MinCentsPerMinute:        refPerMinute.Mul(decimal.NewFromInt(1).Sub(band)).Round(2),
		MaxCentsPerMinute:        refPerMinute.Mul(decimal.NewFromInt(1).Add(band)).Round(2),
		CandidateCentsPerMinute:  candidate.CentsPerMinute().Round(2),
		DeviationPercent:         decimal.NewFromInt(diff).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(denom)).Round(4),
		Within:                   within,
	}
}

// String renders a comparison for logs
func (c Comparison) String() string {
	return fmt.Sprintf("ref=%s ref_cpm=%s cand_cpm=%s dev=%s%% within=%t",
		c.ReferenceRateID, c.ReferenceCentsPerMinute, c.CandidateCentsPerMinute, c.DeviationPercent, c.Within)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
