package dto

import (
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/validator"
)

type EntitlementsResponse struct {
	Plan     types.SubscriptionPlan    `json:"plan"`
	Status   *types.SubscriptionStatus `json:"status,omitempty"`
	NextPlan *types.SubscriptionPlan   `json:"next_plan,omitempty"`
	types.PlanLimits
}

type CheckPhotoQuotaRequest struct {
	CurrentCount int `json:"current_count" validate:"min=0"`
}

func (r *CheckPhotoQuotaRequest) Validate() error {
	return validator.ValidateRequest(r)
}

type PhotoQuotaResponse struct {
	Plan      types.SubscriptionPlan `json:"plan"`
	MaxPhotos int                    `json:"max_photos"`
	Used      int                    `json:"used"`
	Remaining int                    `json:"remaining"`
}
