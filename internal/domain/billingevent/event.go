// Package billingevent defines the provider-neutral shape inbound payment and
// identity events are normalized into before any business logic runs.
package billingevent

import (
	"time"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

// MappingVersion identifies the normalizer revision that produced an event.
// Bump it whenever the provider mapping changes meaning.
const MappingVersion = "stripe.v2"

type Kind string

const (
	KindCheckoutCompleted     Kind = "checkout.completed"
	KindSubscriptionCreated   Kind = "subscription.created"
	KindSubscriptionUpdated   Kind = "subscription.updated"
	KindSubscriptionDeleted   Kind = "subscription.deleted"
	KindInvoicePaid           Kind = "invoice.paid"
	KindInvoicePaymentFailed  Kind = "invoice.payment_failed"
	KindIdentityVerified      Kind = "identity.verified"
	KindIdentityRequiresInput Kind = "identity.requires_input"
	KindUnknown               Kind = "unknown"
)

// BillingReasonSubscriptionCycle marks invoices generated by a renewal
const BillingReasonSubscriptionCycle = "subscription_cycle"

// Event is a normalized provider event. Exactly one of the payload pointers
// is set for known kinds; unknown kinds carry none.
type Event struct {
	ID             string
	ProviderType   string
	Kind           Kind
	CreatedAt      time.Time
	Livemode       bool
	MappingVersion string

	Checkout     *CheckoutSession
	Subscription *Subscription
	Invoice      *Invoice
	Identity     *IdentitySession
}

// CheckoutSession is a completed hosted checkout. UserID comes from session
// metadata, falling back to the client reference.
type CheckoutSession struct {
	ID             string
	Mode           string
	CustomerID     string
	SubscriptionID *string
	UserID         *string
	Plan           *string
}

// Subscription is the subscription payload. Pointer fields are absent in the
// provider payload when nil.
type Subscription struct {
	ID                   string
	CustomerID           string
	ProviderStatus       string
	Status               types.SubscriptionStatus
	UserID               *string
	Plan                 *string
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	TrialEnd             *time.Time
	CanceledAt           *time.Time
	CancelAtPeriodEnd    bool
	RecurringAmountCents *int64
	Currency             string
}

type Invoice struct {
	ID             string
	CustomerID     string
	SubscriptionID *string
	BillingReason  string
	AmountDue      int64
	AmountPaid     int64
	AttemptCount   int64
	Currency       string
	PaidAt         *time.Time
	PeriodEnd      *time.Time
	UserID         *string
	Plan           *string
}

// IsRenewal reports whether the invoice was raised by a billing cycle rather
// than the first payment or a manual charge.
func (i *Invoice) IsRenewal() bool {
	return i.BillingReason == BillingReasonSubscriptionCycle
}

type IdentitySession struct {
	ID              string
	ProviderStatus  string
	UserID          *string
	LastErrorCode   *string
	LastErrorReason *string
}

// MapProviderStatus maps a provider subscription status onto the internal set.
func MapProviderStatus(raw string) types.SubscriptionStatus {
	switch raw {
	case "active":
		return types.SubscriptionStatusActive
	case "trialing":
		return types.SubscriptionStatusTrialing
	case "past_due":
		return types.SubscriptionStatusPastDue
	case "canceled", "unpaid":
		return types.SubscriptionStatusCanceled
	case "incomplete":
		return types.SubscriptionStatusIncomplete
	case "incomplete_expired":
		return types.SubscriptionStatusIncompleteExpired
	default:
		return types.SubscriptionStatusUnknown
	}
}
