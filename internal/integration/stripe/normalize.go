package stripe

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/billingevent"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
)

const (
	metadataUserID = "user_id"
	metadataPlan   = "plan"
)

var eventKinds = map[string]billingevent.Kind{
	"checkout.session.completed":                   billingevent.KindCheckoutCompleted,
	"customer.subscription.created":                billingevent.KindSubscriptionCreated,
	"customer.subscription.updated":                billingevent.KindSubscriptionUpdated,
	"customer.subscription.deleted":                billingevent.KindSubscriptionDeleted,
	"invoice.paid":                                 billingevent.KindInvoicePaid,
	"invoice.payment_succeeded":                    billingevent.KindInvoicePaid,
	"invoice.payment_failed":                       billingevent.KindInvoicePaymentFailed,
	"identity.verification_session.verified":       billingevent.KindIdentityVerified,
	"identity.verification_session.requires_input": billingevent.KindIdentityRequiresInput,
}

// NormalizeEvent maps a verified provider event into billingevent.Event.
// Unknown event types normalize to KindUnknown with no payload.
func NormalizeEvent(event *stripe.Event) (*billingevent.Event, error) {
	if event == nil || event.ID == "" {
		return nil, malformed("event id missing", nil)
	}

	out := &billingevent.Event{
		ID:             event.ID,
		ProviderType:   string(event.Type),
		Kind:           billingevent.KindUnknown,
		CreatedAt:      time.Unix(event.Created, 0).UTC(),
		Livemode:       event.Livemode,
		MappingVersion: billingevent.MappingVersion,
	}

	kind, ok := eventKinds[string(event.Type)]
	if !ok {
		return out, nil
	}
	out.Kind = kind

	if event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, malformed("event data missing", map[string]any{"event_id": event.ID})
	}

	var err error
	switch kind {
	case billingevent.KindCheckoutCompleted:
		out.Checkout, err = normalizeCheckoutSession(event.Data.Raw)
	case billingevent.KindSubscriptionCreated, billingevent.KindSubscriptionUpdated, billingevent.KindSubscriptionDeleted:
		out.Subscription, err = normalizeSubscription(event.Data.Raw)
	case billingevent.KindInvoicePaid, billingevent.KindInvoicePaymentFailed:
		out.Invoice, err = normalizeInvoice(event.Data.Raw)
	case billingevent.KindIdentityVerified, billingevent.KindIdentityRequiresInput:
		out.Identity, err = normalizeIdentitySession(event.Data.Raw)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

type rawCheckoutSession struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	Customer          json.RawMessage   `json:"customer"`
	Subscription      json.RawMessage   `json:"subscription"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

func normalizeCheckoutSession(raw json.RawMessage) (*billingevent.CheckoutSession, error) {
	var cs rawCheckoutSession
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, malformed("invalid checkout session payload", map[string]any{"error": err.Error()})
	}
	if cs.ID == "" {
		return nil, malformed("checkout session id missing", nil)
	}

	out := &billingevent.CheckoutSession{
		ID:         cs.ID,
		Mode:       cs.Mode,
		CustomerID: expandableID(cs.Customer),
		UserID:     metadataValue(cs.Metadata, metadataUserID),
		Plan:       metadataValue(cs.Metadata, metadataPlan),
	}
	if ref := strings.TrimSpace(cs.ClientReferenceID); out.UserID == nil && ref != "" {
		out.UserID = &ref
	}
	if id := expandableID(cs.Subscription); id != "" {
		out.SubscriptionID = lo.ToPtr(id)
	}
	return out, nil
}

type rawPrice struct {
	ID         string            `json:"id"`
	UnitAmount *int64            `json:"unit_amount"`
	Currency   string            `json:"currency"`
	LookupKey  *string           `json:"lookup_key"`
	Metadata   map[string]string `json:"metadata"`
}

type rawSubscriptionItem struct {
	Quantity           *int64    `json:"quantity"`
	CurrentPeriodStart *int64    `json:"current_period_start"`
	CurrentPeriodEnd   *int64    `json:"current_period_end"`
	Price              *rawPrice `json:"price"`
}

type rawSubscription struct {
	ID                 string            `json:"id"`
	Customer           json.RawMessage   `json:"customer"`
	Status             string            `json:"status"`
	Metadata           map[string]string `json:"metadata"`
	Currency           string            `json:"currency"`
	CurrentPeriodStart *int64            `json:"current_period_start"`
	CurrentPeriodEnd   *int64            `json:"current_period_end"`
	TrialEnd           *int64            `json:"trial_end"`
	CanceledAt         *int64            `json:"canceled_at"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	Items              struct {
		Data []rawSubscriptionItem `json:"data"`
	} `json:"items"`
}

func normalizeSubscription(raw json.RawMessage) (*billingevent.Subscription, error) {
	var s rawSubscription
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, malformed("invalid subscription payload", map[string]any{"error": err.Error()})
	}
	if s.ID == "" {
		return nil, malformed("subscription id missing", nil)
	}

	out := &billingevent.Subscription{
		ID:                 s.ID,
		CustomerID:         expandableID(s.Customer),
		ProviderStatus:     s.Status,
		Status:             billingevent.MapProviderStatus(s.Status),
		UserID:             metadataValue(s.Metadata, metadataUserID),
		Plan:               metadataValue(s.Metadata, metadataPlan),
		CurrentPeriodStart: unixTime(s.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(s.CurrentPeriodEnd),
		TrialEnd:           unixTime(s.TrialEnd),
		CanceledAt:         unixTime(s.CanceledAt),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		Currency:           s.Currency,
	}

	// Newer API versions moved the billing period onto the items
	if len(s.Items.Data) > 0 {
		first := s.Items.Data[0]
		if out.CurrentPeriodStart == nil {
			out.CurrentPeriodStart = unixTime(first.CurrentPeriodStart)
		}
		if out.CurrentPeriodEnd == nil {
			out.CurrentPeriodEnd = unixTime(first.CurrentPeriodEnd)
		}
	}

	var total int64
	var priced bool
	for _, item := range s.Items.Data {
		if item.Price == nil {
			continue
		}
		if out.Plan == nil {
			out.Plan = metadataValue(item.Price.Metadata, metadataPlan)
		}
		if out.Plan == nil && item.Price.LookupKey != nil && *item.Price.LookupKey != "" {
			out.Plan = lo.ToPtr(*item.Price.LookupKey)
		}
		if out.Currency == "" {
			out.Currency = item.Price.Currency
		}
		if item.Price.UnitAmount == nil {
			continue
		}
		qty := int64(1)
		if item.Quantity != nil {
			qty = *item.Quantity
		}
		total += *item.Price.UnitAmount * qty
		priced = true
	}
	if priced {
		out.RecurringAmountCents = lo.ToPtr(total)
	}

	return out, nil
}

type rawSubscriptionDetails struct {
	Subscription json.RawMessage   `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

type rawInvoice struct {
	ID                  string                  `json:"id"`
	Customer            json.RawMessage         `json:"customer"`
	Subscription        json.RawMessage         `json:"subscription"`
	SubscriptionDetails *rawSubscriptionDetails `json:"subscription_details"`
	Parent              *struct {
		SubscriptionDetails *rawSubscriptionDetails `json:"subscription_details"`
	} `json:"parent"`
	BillingReason     string            `json:"billing_reason"`
	AmountDue         int64             `json:"amount_due"`
	AmountPaid        int64             `json:"amount_paid"`
	AttemptCount      int64             `json:"attempt_count"`
	Currency          string            `json:"currency"`
	PeriodEnd         *int64            `json:"period_end"`
	Metadata          map[string]string `json:"metadata"`
	StatusTransitions struct {
		PaidAt *int64 `json:"paid_at"`
	} `json:"status_transitions"`
}

func normalizeInvoice(raw json.RawMessage) (*billingevent.Invoice, error) {
	var inv rawInvoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, malformed("invalid invoice payload", map[string]any{"error": err.Error()})
	}
	if inv.ID == "" {
		return nil, malformed("invoice id missing", nil)
	}

	out := &billingevent.Invoice{
		ID:            inv.ID,
		CustomerID:    expandableID(inv.Customer),
		BillingReason: inv.BillingReason,
		AmountDue:     inv.AmountDue,
		AmountPaid:    inv.AmountPaid,
		AttemptCount:  inv.AttemptCount,
		Currency:      inv.Currency,
		PaidAt:        unixTime(inv.StatusTransitions.PaidAt),
		PeriodEnd:     unixTime(inv.PeriodEnd),
		UserID:        metadataValue(inv.Metadata, metadataUserID),
		Plan:          metadataValue(inv.Metadata, metadataPlan),
	}

	details := inv.SubscriptionDetails
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
		details = inv.Parent.SubscriptionDetails
	}

	if id := expandableID(inv.Subscription); id != "" {
		out.SubscriptionID = lo.ToPtr(id)
	}
	if details != nil {
		if out.SubscriptionID == nil {
			if id := expandableID(details.Subscription); id != "" {
				out.SubscriptionID = lo.ToPtr(id)
			}
		}
		if out.UserID == nil {
			out.UserID = metadataValue(details.Metadata, metadataUserID)
		}
		if out.Plan == nil {
			out.Plan = metadataValue(details.Metadata, metadataPlan)
		}
	}

	return out, nil
}

type rawVerificationSession struct {
	ID        string            `json:"id"`
	Status    string            `json:"status"`
	Metadata  map[string]string `json:"metadata"`
	LastError *struct {
		Code   *string `json:"code"`
		Reason *string `json:"reason"`
	} `json:"last_error"`
}

func normalizeIdentitySession(raw json.RawMessage) (*billingevent.IdentitySession, error) {
	var vs rawVerificationSession
	if err := json.Unmarshal(raw, &vs); err != nil {
		return nil, malformed("invalid verification session payload", map[string]any{"error": err.Error()})
	}
	if vs.ID == "" {
		return nil, malformed("verification session id missing", nil)
	}

	out := &billingevent.IdentitySession{
		ID:             vs.ID,
		ProviderStatus: vs.Status,
		UserID:         metadataValue(vs.Metadata, metadataUserID),
	}
	if vs.LastError != nil {
		out.LastErrorCode = vs.LastError.Code
		out.LastErrorReason = vs.LastError.Reason
	}
	return out, nil
}

// expandableID reads an id that is either a bare string or an expanded object
func expandableID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.ID
	}
	return ""
}

func metadataValue(m map[string]string, key string) *string {
	v := strings.TrimSpace(m[key])
	if v == "" {
		return nil
	}
	return &v
}

func unixTime(v *int64) *time.Time {
	if v == nil || *v == 0 {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}

func malformed(msg string, details map[string]any) error {
	b := ierr.NewError(msg).WithHint("Malformed event payload")
	if details != nil {
		b = b.WithReportableDetails(details)
	}
	return b.Mark(ierr.ErrValidation)
}
