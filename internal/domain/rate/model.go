package rate

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/shopspring/decimal"
)

// Rate is one entry on a provider's rate card
type Rate struct {
	ID              string            `db:"id" json:"id"`
	ProfileID       string            `db:"profile_id" json:"profile_id"`
	Context         types.RateContext `db:"context" json:"context"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	PriceCents      int64             `db:"price_cents" json:"price_cents"`
	IsActive        bool              `db:"is_active" json:"is_active"`
	IsBaseRate      bool              `db:"is_base_rate" json:"is_base_rate"`
	DeactivatedAt   *time.Time        `db:"deactivated_at" json:"deactivated_at,omitempty"`
	types.BaseModel
}

// CentsPerMinute is the implied per-minute price. Callers must have
// validated DurationMinutes as positive.
func (r *Rate) CentsPerMinute() decimal.Decimal {
	return decimal.NewFromInt(r.PriceCents).Div(decimal.NewFromInt(int64(r.DurationMinutes)))
}

// Filter narrows rate listings for a profile
type Filter struct {
	ProfileID  string
	Context    *types.RateContext
	ActiveOnly bool
}

type Repository interface {
	Create(ctx context.Context, r *Rate) error
	Get(ctx context.Context, id string) (*Rate, error)
	List(ctx context.Context, filter *Filter) ([]*Rate, error)
	Update(ctx context.Context, r *Rate) error
	// ClearBaseRate unsets is_base_rate on the profile's active rates in rateCtx
	ClearBaseRate(ctx context.Context, profileID string, rateCtx types.RateContext) error
	Deactivate(ctx context.Context, id string, at time.Time) error
}
