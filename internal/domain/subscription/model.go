package subscription

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

// Subscription mirrors a provider subscription for one user account. It is
// only written by webhook reconciliation.
type Subscription struct {
	ID                     string                   `db:"id" json:"id"`
	UserID                 string                   `db:"user_id" json:"user_id"`
	Plan                   types.SubscriptionPlan   `db:"plan" json:"plan"`
	Status                 types.SubscriptionStatus `db:"status" json:"status"`
	ExternalSubscriptionID string                   `db:"external_subscription_id" json:"external_subscription_id"`
	ExternalCustomerID     string                   `db:"external_customer_id" json:"external_customer_id"`
	CurrentPeriodStart     *time.Time               `db:"current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time               `db:"current_period_end" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool                     `db:"cancel_at_period_end" json:"cancel_at_period_end"`
	TrialEnd               *time.Time               `db:"trial_end" json:"trial_end,omitempty"`
	PastDueSince           *time.Time               `db:"past_due_since" json:"past_due_since,omitempty"`
	LastPaymentAt          *time.Time               `db:"last_payment_at" json:"last_payment_at,omitempty"`
	PaymentFailedAt        *time.Time               `db:"payment_failed_at" json:"payment_failed_at,omitempty"`
	CanceledAt             *time.Time               `db:"canceled_at" json:"canceled_at,omitempty"`
	LastEventID            string                   `db:"last_event_id" json:"-"`
	LastEventAt            *time.Time               `db:"last_event_at" json:"-"`
	types.BaseModel
}

// Accepts reports whether an event created at eventAt may still change the
// record. Terminal records and events older than the last applied one are refused.
func (s *Subscription) Accepts(eventAt time.Time) bool {
	if s.Status.IsTerminal() {
		return false
	}
	return s.LastEventAt == nil || !eventAt.Before(*s.LastEventAt)
}

type Repository interface {
	// Upsert inserts or updates by external subscription id. The update is
	// skipped when the stored record is terminal or has seen a newer event;
	// applied reports whether the row changed.
	Upsert(ctx context.Context, sub *Subscription) (applied bool, err error)
	// Cancel moves the record to canceled regardless of event age, inserting it
	// if missing. An incomplete_expired record is left alone.
	Cancel(ctx context.Context, sub *Subscription) (applied bool, err error)
	GetByExternalID(ctx context.Context, externalSubscriptionID string) (*Subscription, error)
	GetLatestByCustomerID(ctx context.Context, externalCustomerID string) (*Subscription, error)
	GetLatestByUserID(ctx context.Context, userID string) (*Subscription, error)
}
