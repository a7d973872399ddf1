package types

import (
	"strings"

	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionPlan is the listing tier a provider pays for
type SubscriptionPlan string

const (
	PlanFree     SubscriptionPlan = "free"
	PlanStandard SubscriptionPlan = "standard"
	PlanPro      SubscriptionPlan = "pro"
	PlanElite    SubscriptionPlan = "elite"
)

var planRank = map[SubscriptionPlan]int{
	PlanFree:     0,
	PlanStandard: 1,
	PlanPro:      2,
	PlanElite:    3,
}

func (p SubscriptionPlan) String() string {
	return string(p)
}

func (p SubscriptionPlan) Validate() error {
	if _, ok := planRank[p]; !ok {
		return ierr.NewError("invalid subscription plan").
			WithHint("Plan must be one of free, standard, pro or elite").
			WithReportableDetails(map[string]any{
				"plan":          p,
				"allowed_plans": lo.Keys(planRank),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsPaid reports whether the plan is billed through the payment provider
func (p SubscriptionPlan) IsPaid() bool {
	return planRank[p] > 0
}

// DisplayName is the capitalised plan name used in notifications
func (p SubscriptionPlan) DisplayName() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// NormalizePlan maps free-form plan names from provider metadata onto a
// known paid plan. Anything unrecognised falls back to standard.
func NormalizePlan(raw string) SubscriptionPlan {
	p := SubscriptionPlan(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PlanStandard, PlanPro, PlanElite:
		return p
	case "premium":
		return PlanElite
	default:
		return PlanStandard
	}
}

// PlanLimits describes what a plan entitles a listing to
type PlanLimits struct {
	MaxPhotos       int  `json:"max_photos"`
	FeaturedListing bool `json:"featured_listing"`
	Boosted         bool `json:"boosted"`
	Analytics       bool `json:"analytics"`
	PrioritySupport bool `json:"priority_support"`
	VerifiedBadge   bool `json:"verified_badge"`
}

var planLimits = map[SubscriptionPlan]PlanLimits{
	PlanFree: {
		MaxPhotos: 1,
	},
	PlanStandard: {
		MaxPhotos: 4,
		Analytics: true,
	},
	PlanPro: {
		MaxPhotos:       8,
		FeaturedListing: true,
		Boosted:         true,
		Analytics:       true,
		PrioritySupport: true,
	},
	PlanElite: {
		MaxPhotos:       12,
		FeaturedListing: true,
		Boosted:         true,
		Analytics:       true,
		PrioritySupport: true,
		VerifiedBadge:   true,
	},
}

// Limits returns the plan's limits, treating unknown plans as free
func (p SubscriptionPlan) Limits() PlanLimits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// NextPlan returns the next tier up, or false at the top tier
func (p SubscriptionPlan) NextPlan() (SubscriptionPlan, bool) {
	rank, ok := planRank[p]
	if !ok {
		return PlanStandard, true
	}
	for plan, r := range planRank {
		if r == rank+1 {
			return plan, true
		}
	}
	return "", false
}
