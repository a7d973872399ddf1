package dto

import (
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/rate"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/validator"
	"github.com/shopspring/decimal"
)

type CreateRateRequest struct {
	Context         types.RateContext `json:"context" validate:"required"`
	DurationMinutes int               `json:"duration_minutes" validate:"required,min=1,max=480"`
	PriceCents      int64             `json:"price_cents" validate:"required,gt=0"`
	IsBaseRate      bool              `json:"is_base_rate"`
}

func (r *CreateRateRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Candidate().Validate()
}

func (r *CreateRateRequest) Candidate() rate.Candidate {
	return rate.Candidate{
		Context:         r.Context,
		DurationMinutes: r.DurationMinutes,
		PriceCents:      r.PriceCents,
		IsBaseRate:      r.IsBaseRate,
	}
}

func (r *CreateRateRequest) ToRate(profileID string) *rate.Rate {
	return &rate.Rate{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RATE),
		ProfileID:       profileID,
		Context:         r.Context,
		DurationMinutes: r.DurationMinutes,
		PriceCents:      r.PriceCents,
		IsActive:        true,
		IsBaseRate:      r.IsBaseRate,
		BaseModel:       types.GetDefaultBaseModel(),
	}
}

// UpdateRateRequest changes price, duration or base flag. Context is fixed
// once a rate exists.
type UpdateRateRequest struct {
	DurationMinutes *int   `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=480"`
	PriceCents      *int64 `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	IsBaseRate      *bool  `json:"is_base_rate,omitempty"`
}

func (r *UpdateRateRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// Apply returns the candidate r would turn existing into
func (r *UpdateRateRequest) Apply(existing *rate.Rate) rate.Candidate {
	c := rate.Candidate{
		Context:         existing.Context,
		DurationMinutes: existing.DurationMinutes,
		PriceCents:      existing.PriceCents,
		IsBaseRate:      existing.IsBaseRate,
	}
	if r.DurationMinutes != nil {
		c.DurationMinutes = *r.DurationMinutes
	}
	if r.PriceCents != nil {
		c.PriceCents = *r.PriceCents
	}
	if r.IsBaseRate != nil {
		c.IsBaseRate = *r.IsBaseRate
	}
	return c
}

type ListRatesRequest struct {
	Context         string `form:"context" json:"context,omitempty"`
	IncludeInactive bool   `form:"include_inactive" json:"include_inactive,omitempty"`
}

func (r *ListRatesRequest) Validate() error {
	if r.Context == "" {
		return nil
	}
	return types.RateContext(r.Context).Validate()
}

type RateResponse struct {
	ID              string            `json:"id"`
	ProfileID       string            `json:"profile_id"`
	Context         types.RateContext `json:"context"`
	DurationMinutes int               `json:"duration_minutes"`
	PriceCents      int64             `json:"price_cents"`
	CentsPerMinute  decimal.Decimal   `json:"cents_per_minute" swaggertype:"string"`
	IsActive        bool              `json:"is_active"`
	IsBaseRate      bool              `json:"is_base_rate"`
	DeactivatedAt   *time.Time        `json:"deactivated_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func NewRateResponse(r *rate.Rate) *RateResponse {
	return &RateResponse{
		ID:              r.ID,
		ProfileID:       r.ProfileID,
		Context:         r.Context,
		DurationMinutes: r.DurationMinutes,
		PriceCents:      r.PriceCents,
		CentsPerMinute:  r.CentsPerMinute().Round(2),
		IsActive:        r.IsActive,
		IsBaseRate:      r.IsBaseRate,
		DeactivatedAt:   r.DeactivatedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type ListRatesResponse struct {
	Items []*RateResponse `json:"items"`
	Total int             `json:"total"`
}
