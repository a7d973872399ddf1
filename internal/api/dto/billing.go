package dto

import (
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/identity"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/validator"
)

type CreateCheckoutSessionRequest struct {
	Plan       types.SubscriptionPlan `json:"plan" validate:"required"`
	SuccessURL string                 `json:"success_url,omitempty" validate:"omitempty,url"`
	CancelURL  string                 `json:"cancel_url,omitempty" validate:"omitempty,url"`
}

func (r *CreateCheckoutSessionRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Plan.Validate()
}

type CreatePortalSessionRequest struct {
	ReturnURL string `json:"return_url,omitempty" validate:"omitempty,url"`
}

func (r *CreatePortalSessionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type CreateIdentitySessionRequest struct {
	ReturnURL string `json:"return_url,omitempty" validate:"omitempty,url"`
}

func (r *CreateIdentitySessionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type SessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type IdentityStatusResponse struct {
	Status     types.IdentityStatus `json:"status"`
	VerifiedAt *time.Time           `json:"verified_at,omitempty"`
}

func NewIdentityStatusResponse(v *identity.Verification) *IdentityStatusResponse {
	if v == nil {
		return &IdentityStatusResponse{Status: types.IdentityStatusUnverified}
	}
	return &IdentityStatusResponse{
		Status:     v.Status,
		VerifiedAt: v.VerifiedAt,
	}
}
