package webhookDto

import (
	"time"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

// SubscriptionStatusChangedPayload is published when reconciliation moves a
// subscription to a new status or plan.
type SubscriptionStatusChangedPayload struct {
	SubscriptionID         string                   `json:"subscription_id" validate:"required"`
	ExternalSubscriptionID string                   `json:"external_subscription_id" validate:"required"`
	UserID                 string                   `json:"user_id" validate:"required"`
	Plan                   types.SubscriptionPlan   `json:"plan"`
	PreviousStatus         types.SubscriptionStatus `json:"previous_status,omitempty"`
	Status                 types.SubscriptionStatus `json:"status" validate:"required"`
	ProviderEventID        string                   `json:"provider_event_id"`
	OccurredAt             time.Time                `json:"occurred_at"`
}

// IdentityStatusChangedPayload is published when identity verification completes or fails
type IdentityStatusChangedPayload struct {
	UserID          string               `json:"user_id" validate:"required"`
	Status          types.IdentityStatus `json:"status" validate:"required"`
	ProviderEventID string               `json:"provider_event_id"`
	OccurredAt      time.Time            `json:"occurred_at"`
}

// NotificationCreatedPayload is published for every newly created notification
type NotificationCreatedPayload struct {
	NotificationID string                     `json:"notification_id" validate:"required"`
	UserID         string                     `json:"user_id" validate:"required"`
	Type           types.NotificationType     `json:"type" validate:"required"`
	Priority       types.NotificationPriority `json:"priority"`
	Title          string                     `json:"title"`
}
