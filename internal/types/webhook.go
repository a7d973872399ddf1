package types

import (
	"encoding/json"
	"time"
)

// WebhookSource selects which signing secret authenticates an inbound delivery
type WebhookSource string

const (
	WebhookSourceBilling  WebhookSource = "billing"
	WebhookSourceIdentity WebhookSource = "identity"
)

// WebhookEventStatus tracks an inbound provider event in the processed-event ledger
type WebhookEventStatus string

const (
	WebhookEventStatusProcessing WebhookEventStatus = "processing"
	WebhookEventStatusProcessed  WebhookEventStatus = "processed"
	WebhookEventStatusFailed     WebhookEventStatus = "failed"
)

// SystemEventName names outbound events published to subscribed endpoints
type SystemEventName string

const (
	SystemEventSubscriptionStatusChanged SystemEventName = "subscription.status_changed"
	SystemEventIdentityStatusChanged     SystemEventName = "identity.status_changed"
	SystemEventNotificationCreated       SystemEventName = "notification.created"
)

type PubSubType string

const (
	PubSubTypeMemory PubSubType = "memory"
)

// SystemEvent is the envelope carried on the internal bus and delivered to
// subscribed endpoints.
type SystemEvent struct {
	ID        string          `json:"id"`
	EventName SystemEventName `json:"event_name"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
