package stripe

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/billingevent"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
)

type NormalizeSuite struct {
	suite.Suite
}

func TestNormalize(t *testing.T) {
	suite.Run(t, new(NormalizeSuite))
}

func (s *NormalizeSuite) event(eventType string, object string) *stripe.Event {
	return &stripe.Event{
		ID:      "evt_test",
		Type:    stripe.EventType(eventType),
		Created: 1700000000,
		Data:    &stripe.EventData{Raw: json.RawMessage(object)},
	}
}

func (s *NormalizeSuite) TestSubscriptionWithTopLevelPeriod() {
	evt, err := NormalizeEvent(s.event("customer.subscription.updated", `{
		"id": "sub_1",
		"customer": "cus_1",
		"status": "past_due",
		"metadata": {"user_id": "user_1", "plan": "pro"},
		"current_period_start": 1700000000,
		"current_period_end": 1702592000,
		"cancel_at_period_end": true,
		"trial_end": null,
		"items": {"data": [{"quantity": 2, "price": {"id": "price_1", "unit_amount": 2999, "currency": "usd"}}]}
	}`))
	s.Require().NoError(err)
	s.Equal(billingevent.KindSubscriptionUpdated, evt.Kind)
	s.Equal(billingevent.MappingVersion, evt.MappingVersion)
	s.Equal(time.Unix(1700000000, 0).UTC(), evt.CreatedAt)

	sub := evt.Subscription
	s.Require().NotNil(sub)
	s.Equal("sub_1", sub.ID)
	s.Equal("cus_1", sub.CustomerID)
	s.Equal(types.SubscriptionStatusPastDue, sub.Status)
	s.Equal("user_1", *sub.UserID)
	s.Equal("pro", *sub.Plan)
	s.Equal(time.Unix(1702592000, 0).UTC(), *sub.CurrentPeriodEnd)
	s.True(sub.CancelAtPeriodEnd)
	s.Nil(sub.TrialEnd)
	s.Equal(int64(5998), *sub.RecurringAmountCents)
	s.Equal("usd", sub.Currency)
}

func (s *NormalizeSuite) TestSubscriptionPeriodOnItems() {
	evt, err := NormalizeEvent(s.event("customer.subscription.created", `{
		"id": "sub_2",
		"customer": {"id": "cus_2", "object": "customer"},
		"status": "unpaid",
		"items": {"data": [{
			"current_period_start": 1700000000,
			"current_period_end": 1702592000,
			"price": {"id": "price_2", "lookup_key": "elite", "unit_amount": 4999}
		}]}
	}`))
	s.Require().NoError(err)
	sub := evt.Subscription
	s.Equal("cus_2", sub.CustomerID)
	s.Equal(types.SubscriptionStatusCanceled, sub.Status)
	s.Equal("unpaid", sub.ProviderStatus)
	s.Require().NotNil(sub.CurrentPeriodStart)
	s.Require().NotNil(sub.CurrentPeriodEnd)
	s.Equal(time.Unix(1702592000, 0).UTC(), *sub.CurrentPeriodEnd)
	s.Nil(sub.UserID)
	s.Equal("elite", *sub.Plan)
}

func (s *NormalizeSuite) TestCheckoutSessionCompleted() {
	evt, err := NormalizeEvent(s.event("checkout.session.completed", `{
		"id": "cs_1",
		"mode": "subscription",
		"customer": "cus_1",
		"subscription": {"id": "sub_1"},
		"client_reference_id": "user_ref",
		"metadata": {"user_id": "user_1", "plan": "elite"}
	}`))
	s.Require().NoError(err)
	s.Equal(billingevent.KindCheckoutCompleted, evt.Kind)
	cs := evt.Checkout
	s.Require().NotNil(cs)
	s.Equal("cus_1", cs.CustomerID)
	s.Equal("sub_1", *cs.SubscriptionID)
	s.Equal("user_1", *cs.UserID)
	s.Equal("elite", *cs.Plan)

	evt, err = NormalizeEvent(s.event("checkout.session.completed", `{"id": "cs_2", "customer": "cus_2", "client_reference_id": "user_ref"}`))
	s.Require().NoError(err)
	s.Equal("user_ref", *evt.Checkout.UserID)
	s.Nil(evt.Checkout.SubscriptionID)
}

func (s *NormalizeSuite) TestInvoiceLegacySubscriptionField() {
	evt, err := NormalizeEvent(s.event("invoice.payment_failed", `{
		"id": "in_1",
		"customer": "cus_1",
		"subscription": "sub_1",
		"billing_reason": "subscription_cycle",
		"amount_due": 2999,
		"amount_paid": 0,
		"attempt_count": 3,
		"currency": "usd"
	}`))
	s.Require().NoError(err)
	s.Equal(billingevent.KindInvoicePaymentFailed, evt.Kind)
	inv := evt.Invoice
	s.Equal("sub_1", *inv.SubscriptionID)
	s.Equal(int64(2999), inv.AmountDue)
	s.Equal(int64(3), inv.AttemptCount)
	s.True(inv.IsRenewal())
}

func (s *NormalizeSuite) TestInvoiceParentSubscriptionDetails() {
	evt, err := NormalizeEvent(s.event("invoice.paid", `{
		"id": "in_2",
		"customer": "cus_1",
		"billing_reason": "subscription_create",
		"amount_due": 2999,
		"amount_paid": 2999,
		"status_transitions": {"paid_at": 1700000100},
		"parent": {"subscription_details": {"subscription": "sub_9", "metadata": {"user_id": "user_9", "plan": "standard"}}}
	}`))
	s.Require().NoError(err)
	inv := evt.Invoice
	s.Equal("sub_9", *inv.SubscriptionID)
	s.Equal("user_9", *inv.UserID)
	s.Equal("standard", *inv.Plan)
	s.Equal(time.Unix(1700000100, 0).UTC(), *inv.PaidAt)
	s.False(inv.IsRenewal())
}

func (s *NormalizeSuite) TestPaymentSucceededMapsToPaid() {
	evt, err := NormalizeEvent(s.event("invoice.payment_succeeded", `{"id": "in_3"}`))
	s.Require().NoError(err)
	s.Equal(billingevent.KindInvoicePaid, evt.Kind)
	s.Nil(evt.Invoice.SubscriptionID)
}

func (s *NormalizeSuite) TestIdentitySession() {
	evt, err := NormalizeEvent(s.event("identity.verification_session.requires_input", `{
		"id": "vs_1",
		"status": "requires_input",
		"metadata": {"user_id": "user_1"},
		"last_error": {"code": "document_expired", "reason": "The document is expired."}
	}`))
	s.Require().NoError(err)
	s.Equal(billingevent.KindIdentityRequiresInput, evt.Kind)
	s.Equal("user_1", *evt.Identity.UserID)
	s.Equal("document_expired", *evt.Identity.LastErrorCode)
}

func (s *NormalizeSuite) TestUnknownKindHasNoPayload() {
	evt, err := NormalizeEvent(s.event("charge.refunded", `{"id": "ch_1"}`))
	s.Require().NoError(err)
	s.Equal(billingevent.KindUnknown, evt.Kind)
	s.Equal("charge.refunded", evt.ProviderType)
	s.Nil(evt.Subscription)
	s.Nil(evt.Invoice)
	s.Nil(evt.Identity)
}

func (s *NormalizeSuite) TestMalformedPayloads() {
	for _, tc := range []struct {
		eventType string
		object    string
	}{
		{"customer.subscription.updated", `{"status": "active"}`},
		{"customer.subscription.updated", `[1, 2]`},
		{"invoice.paid", `{"amount_due": "lots"}`},
		{"identity.verification_session.verified", `{}`},
	} {
		_, err := NormalizeEvent(s.event(tc.eventType, tc.object))
		s.True(ierr.IsValidation(err), tc.object)
	}

	_, err := NormalizeEvent(&stripe.Event{Type: "invoice.paid"})
	s.True(ierr.IsValidation(err))
}
