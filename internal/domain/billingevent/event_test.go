package billingevent

import (
	"testing"

	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestMapProviderStatus(t *testing.T) {
	cases := map[string]types.SubscriptionStatus{
		"active":             types.SubscriptionStatusActive,
		"trialing":           types.SubscriptionStatusTrialing,
		"past_due":           types.SubscriptionStatusPastDue,
		"canceled":           types.SubscriptionStatusCanceled,
		"unpaid":             types.SubscriptionStatusCanceled,
		"incomplete":         types.SubscriptionStatusIncomplete,
		"incomplete_expired": types.SubscriptionStatusIncompleteExpired,
		"paused":             types.SubscriptionStatusUnknown,
		"":                   types.SubscriptionStatusUnknown,
	}
	for raw, want := range cases {
		assert.Equal(t, want, MapProviderStatus(raw), raw)
	}
}

func TestInvoiceIsRenewal(t *testing.T) {
	assert.True(t, (&Invoice{BillingReason: "subscription_cycle"}).IsRenewal())
	assert.False(t, (&Invoice{BillingReason: "subscription_create"}).IsRenewal())
	assert.False(t, (&Invoice{BillingReason: "manual"}).IsRenewal())
}
