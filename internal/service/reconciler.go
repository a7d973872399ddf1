package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/billingevent"
	"github.com/masseurmatch/masseurmatch/internal/domain/identity"
	"github.com/masseurmatch/masseurmatch/internal/domain/notification"
	"github.com/masseurmatch/masseurmatch/internal/domain/subscription"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	webhookDto "github.com/masseurmatch/masseurmatch/internal/webhook/dto"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SubscriptionReconciler applies normalized provider events to account state
type SubscriptionReconciler interface {
	Reconcile(ctx context.Context, event *billingevent.Event) error
}

type subscriptionReconciler struct {
	ServiceParams
	notifications NotificationService
}

func NewSubscriptionReconciler(params ServiceParams, notifications NotificationService) SubscriptionReconciler {
	return &subscriptionReconciler{
		ServiceParams: params,
		notifications: notifications,
	}
}

// effects are collected while the state change runs in a transaction and
// carried out only after it commits.
type effects struct {
	notifications []createdNotification
	events        []systemEvent
}

type createdNotification struct {
	notification *notification.Notification
	data         map[string]interface{}
}

type systemEvent struct {
	name    types.SystemEventName
	userID  string
	payload interface{}
}

func (r *subscriptionReconciler) Reconcile(ctx context.Context, event *billingevent.Event) error {
	if event == nil {
		return ierr.NewError("event is required").
			WithHint("Malformed event payload").
			Mark(ierr.ErrValidation)
	}

	var out effects
	err := r.DB.WithTx(ctx, func(ctx context.Context) error {
		out = effects{}
		return r.apply(ctx, event, &out)
	})
	if err != nil {
		return err
	}

	for _, n := range out.notifications {
		r.notifications.Deliver(ctx, n.notification, n.data)
	}
	for _, e := range out.events {
		r.publishSystemEvent(ctx, e.name, e.userID, e.payload)
	}
	return nil
}

func (r *subscriptionReconciler) apply(ctx context.Context, event *billingevent.Event, out *effects) error {
	switch event.Kind {
	case billingevent.KindCheckoutCompleted:
		return r.handleCheckoutCompleted(ctx, event)
	case billingevent.KindSubscriptionCreated, billingevent.KindSubscriptionUpdated:
		return r.handleSubscriptionChanged(ctx, event, out)
	case billingevent.KindSubscriptionDeleted:
		return r.handleSubscriptionDeleted(ctx, event, out)
	case billingevent.KindInvoicePaid:
		return r.handleInvoicePaid(ctx, event, out)
	case billingevent.KindInvoicePaymentFailed:
		return r.handlePaymentFailed(ctx, event, out)
	case billingevent.KindIdentityVerified, billingevent.KindIdentityRequiresInput:
		return r.handleIdentity(ctx, event, out)
	default:
		r.Logger.Infow("ignoring unhandled provider event",
			"event_id", event.ID,
			"event_type", event.ProviderType,
		)
		return nil
	}
}

func (r *subscriptionReconciler) notify(ctx context.Context, out *effects, req NotifyRequest) error {
	n, created, err := r.notifications.Create(ctx, req)
	if err != nil {
		return err
	}
	if created {
		out.notifications = append(out.notifications, createdNotification{notification: n, data: req.Data})
	}
	return nil
}

// existing returns the stored subscription or nil when there is none
func (r *subscriptionReconciler) existing(ctx context.Context, externalID string) (*subscription.Subscription, error) {
	if externalID == "" {
		return nil, nil
	}
	sub, err := r.SubRepo.GetByExternalID(ctx, externalID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// resolveUserID finds the account an event belongs to. Metadata wins, then
// the stored subscription, then the customer's latest subscription, then the
// profile linked to the customer.
func (r *subscriptionReconciler) resolveUserID(ctx context.Context, metadataUserID *string, externalSubID, customerID string) (string, error) {
	if id := strings.TrimSpace(lo.FromPtr(metadataUserID)); id != "" {
		return id, nil
	}

	if sub, err := r.existing(ctx, externalSubID); err != nil {
		return "", err
	} else if sub != nil {
		return sub.UserID, nil
	}

	if customerID == "" {
		return "", nil
	}

	sub, err := r.SubRepo.GetLatestByCustomerID(ctx, customerID)
	if err == nil {
		return sub.UserID, nil
	}
	if !ierr.IsNotFound(err) {
		return "", err
	}

	p, err := r.ProfileRepo.GetByStripeCustomerID(ctx, customerID)
	if err == nil {
		return p.UserID, nil
	}
	if !ierr.IsNotFound(err) {
		return "", err
	}
	return "", nil
}

// linkCustomer stores the provider customer on the user's profile so the
// billing portal can be opened later.
func (r *subscriptionReconciler) linkCustomer(ctx context.Context, userID, customerID string) error {
	if customerID == "" {
		return nil
	}
	p, err := r.ProfileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if lo.FromPtr(p.StripeCustomerID) == customerID {
		return nil
	}
	return r.ProfileRepo.SetStripeCustomerID(ctx, p.ID, customerID)
}

// handleCheckoutCompleted links the customer created by checkout to the
// user. Subscription state arrives with the subscription events.
func (r *subscriptionReconciler) handleCheckoutCompleted(ctx context.Context, event *billingevent.Event) error {
	cs := event.Checkout
	if cs == nil {
		return ierr.NewError("checkout session payload missing").
			WithHint("Malformed event payload").
			Mark(ierr.ErrValidation)
	}

	userID := lo.FromPtr(cs.UserID)
	if userID == "" || cs.CustomerID == "" {
		r.Logger.Warnw("checkout session without user or customer, skipping",
			"event_id", event.ID,
			"session_id", cs.ID,
			"customer_id", cs.CustomerID,
		)
		return nil
	}

	if err := r.linkCustomer(ctx, userID, cs.CustomerID); err != nil {
		return err
	}
	r.Logger.Infow("checkout completed",
		"event_id", event.ID,
		"session_id", cs.ID,
		"user_id", userID,
		"subscription_id", lo.FromPtr(cs.SubscriptionID),
	)
	return nil
}

func resolvePlan(raw *string, previous *subscription.Subscription) types.SubscriptionPlan {
	if raw != nil {
		return types.NormalizePlan(*raw)
	}
	if previous != nil && previous.Plan != "" {
		return previous.Plan
	}
	return types.PlanStandard
}

// daysPastDue is max(1, ceil((now - periodEnd) / 1 day))
func daysPastDue(now time.Time, periodEnd *time.Time) int {
	if periodEnd == nil {
		return 1
	}
	days := int(math.Ceil(now.Sub(*periodEnd).Hours() / 24))
	return max(1, days)
}

// FormatAmount renders minor units as a display amount, e.g. $12.50
func FormatAmount(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	switch strings.ToLower(currency) {
	case "", "usd":
		return "$" + amount
	default:
		return fmt.Sprintf("%s %s", amount, strings.ToUpper(currency))
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "the end of the current billing period"
	}
	return t.Format("January 2, 2006")
}

func (r *subscriptionReconciler) statusChanged(out *effects, previous *subscription.Subscription, next *subscription.Subscription, eventID string) {
	var prevStatus types.SubscriptionStatus
	if previous != nil {
		prevStatus = previous.Status
	}
	if prevStatus == next.Status {
		return
	}
	out.events = append(out.events, systemEvent{
		name:   types.SystemEventSubscriptionStatusChanged,
		userID: next.UserID,
		payload: webhookDto.SubscriptionStatusChangedPayload{
			SubscriptionID:         next.ID,
			ExternalSubscriptionID: next.ExternalSubscriptionID,
			UserID:                 next.UserID,
			Plan:                   next.Plan,
			PreviousStatus:         prevStatus,
			Status:                 next.Status,
			ProviderEventID:        eventID,
			OccurredAt:             lo.FromPtr(next.LastEventAt),
		},
	})
}

func (r *subscriptionReconciler) handleSubscriptionChanged(ctx context.Context, event *billingevent.Event, out *effects) error {
	s := event.Subscription
	if s == nil {
		return ierr.NewError("subscription payload missing").
			WithHint("Malformed event payload").
			Mark(ierr.ErrValidation)
	}

	userID, err := r.resolveUserID(ctx, s.UserID, s.ID, s.CustomerID)
	if err != nil {
		return err
	}
	if userID == "" {
		r.Logger.Warnw("cannot resolve user for subscription event, skipping",
			"event_id", event.ID,
			"subscription_id", s.ID,
			"customer_id", s.CustomerID,
		)
		return nil
	}

	previous, err := r.existing(ctx, s.ID)
	if err != nil {
		return err
	}

	now := r.Clock.Now()
	next := &subscription.Subscription{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:                 userID,
		Plan:                   resolvePlan(s.Plan, previous),
		Status:                 s.Status,
		ExternalSubscriptionID: s.ID,
		ExternalCustomerID:     s.CustomerID,
		CurrentPeriodStart:     s.CurrentPeriodStart,
		CurrentPeriodEnd:       s.CurrentPeriodEnd,
		CancelAtPeriodEnd:      s.CancelAtPeriodEnd,
		TrialEnd:               s.TrialEnd,
		CanceledAt:             s.CanceledAt,
		LastEventID:            event.ID,
		LastEventAt:            lo.ToPtr(event.CreatedAt),
		BaseModel:              types.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	if previous != nil {
		next.ID = previous.ID
		next.CreatedAt = previous.CreatedAt
		next.LastPaymentAt = previous.LastPaymentAt
		next.PaymentFailedAt = previous.PaymentFailedAt
		if next.ExternalCustomerID == "" {
			next.ExternalCustomerID = previous.ExternalCustomerID
		}
	}

	enteredPastDue := next.Status == types.SubscriptionStatusPastDue &&
		(previous == nil || previous.Status != types.SubscriptionStatusPastDue)
	switch {
	case enteredPastDue:
		next.PastDueSince = lo.ToPtr(now)
	case next.Status == types.SubscriptionStatusPastDue:
		next.PastDueSince = previous.PastDueSince
	}

	applied, err := r.SubRepo.Upsert(ctx, next)
	if err != nil {
		return err
	}
	if !applied {
		r.Logger.Infow("ignoring stale or terminal subscription event",
			"event_id", event.ID,
			"subscription_id", s.ID,
			"status", s.Status,
		)
		return nil
	}

	if err := r.linkCustomer(ctx, userID, next.ExternalCustomerID); err != nil {
		return err
	}

	r.Logger.Infow("subscription reconciled",
		"event_id", event.ID,
		"subscription_id", s.ID,
		"user_id", userID,
		"plan", next.Plan,
		"status", next.Status,
		"provider_status", s.ProviderStatus,
	)
	r.statusChanged(out, previous, next, event.ID)

	if enteredPastDue {
		days := daysPastDue(now, next.CurrentPeriodEnd)
		if err := r.notify(ctx, out, NotifyRequest{
			UserID: userID,
			Type:   types.NotificationTypePaymentPastDue,
			Data: map[string]interface{}{
				NotifyDataAmount:      FormatAmount(lo.FromPtr(s.RecurringAmountCents), s.Currency),
				NotifyDataDaysPastDue: days,
				NotifyDataPlan:        next.Plan.DisplayName(),
			},
			DedupParams: map[string]interface{}{
				"subscription_id": s.ID,
				"period_end":      formatDedupTime(next.CurrentPeriodEnd),
			},
		}); err != nil {
			return err
		}
	}

	if next.CancelAtPeriodEnd && (previous == nil || !previous.CancelAtPeriodEnd) {
		if err := r.notify(ctx, out, NotifyRequest{
			UserID: userID,
			Type:   types.NotificationTypeSubscriptionCancelled,
			Data: map[string]interface{}{
				NotifyDataEndDate: formatDate(next.CurrentPeriodEnd),
				NotifyDataPlan:    next.Plan.DisplayName(),
			},
			DedupParams: map[string]interface{}{
				"subscription_id": s.ID,
				"period_end":      formatDedupTime(next.CurrentPeriodEnd),
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func formatDedupTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// handleSubscriptionDeleted cancels regardless of event age
func (r *subscriptionReconciler) handleSubscriptionDeleted(ctx context.Context, event *billingevent.Event, out *effects) error {
	s := event.Subscription
	if s == nil {
		return ierr.NewError("subscription payload missing").
			WithHint("Malformed event payload").
			Mark(ierr.ErrValidation)
	}

	userID, err := r.resolveUserID(ctx, s.UserID, s.ID, s.CustomerID)
	if err != nil {
		return err
	}
	if userID == "" {
		r.Logger.Warnw("cannot resolve user for subscription deletion, skipping",
			"event_id", event.ID,
			"subscription_id", s.ID,
		)
		return nil
	}

	previous, err := r.existing(ctx, s.ID)
	if err != nil {
		return err
	}

	now := r.Clock.Now()
	canceledAt := s.CanceledAt
	if canceledAt == nil {
		canceledAt = lo.ToPtr(event.CreatedAt)
	}

	next := &subscription.Subscription{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:                 userID,
		Plan:                   resolvePlan(s.Plan, previous),
		Status:                 types.SubscriptionStatusCanceled,
		ExternalSubscriptionID: s.ID,
		ExternalCustomerID:     s.CustomerID,
		CurrentPeriodStart:     s.CurrentPeriodStart,
		CurrentPeriodEnd:       s.CurrentPeriodEnd,
		TrialEnd:               s.TrialEnd,
		CanceledAt:             canceledAt,
		LastEventID:            event.ID,
		LastEventAt:            lo.ToPtr(event.CreatedAt),
		BaseModel:              types.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	if previous != nil {
		next.ID = previous.ID
		next.CreatedAt = previous.CreatedAt
	}

	applied, err := r.SubRepo.Cancel(ctx, next)
	if err != nil {
		return err
	}
	if !applied {
		r.Logger.Infow("ignoring deletion of expired subscription",
			"event_id", event.ID,
			"subscription_id", s.ID,
		)
		return nil
	}

	if previous != nil && previous.Status == types.SubscriptionStatusCanceled {
		r.Logger.Infow("subscription already canceled",
			"event_id", event.ID,
			"subscription_id", s.ID,
		)
		return nil
	}

	r.Logger.Infow("subscription canceled",
		"event_id", event.ID,
		"subscription_id", s.ID,
		"user_id", userID,
	)
	r.statusChanged(out, previous, next, event.ID)

	return r.notify(ctx, out, NotifyRequest{
		UserID: userID,
		Type:   types.NotificationTypeSubscriptionExpired,
		Data: map[string]interface{}{
			NotifyDataPlan: next.Plan.DisplayName(),
		},
		DedupParams: map[string]interface{}{
			"subscription_id": s.ID,
		},
	})
}

// handleInvoicePaid reactivates the subscription on renewal invoices. First
// payments are reflected by the subscription events themselves.
func (r *subscriptionReconciler) handleInvoicePaid(ctx context.Context, event *billingevent.Event, out *effects) error {
	inv := event.Invoice
	if inv == nil {
		return ierr.NewError("invoice payload missing").
			WithHint("Malformed event payload").
			Mark(ierr.ErrValidation)
	}
	if !inv.IsRenewal() {
		r.Logger.Debugw("ignoring non-renewal invoice",
			"event_id", event.ID,
			"invoice_id", inv.ID,
			"billing_reason", inv.BillingReason,
		)
		return nil
	}

	previous, err := r.invoiceSubscription(ctx, inv)
	if err != nil {
		return err
	}
	if previous == nil {
		r.Logger.Warnw("renewal invoice for unknown subscription, skipping",
			"event_id", event.ID,
			"invoice_id", inv.ID,
			"customer_id", inv.CustomerID,
		)
		return nil
	}
	if previous.Status.IsTerminal() {
		r.Logger.Infow("ignoring renewal for terminal subscription",
			"event_id", event.ID,
			"subscription_id", previous.ExternalSubscriptionID,
			"status", previous.Status,
		)
		return nil
	}

	paidAt := inv.PaidAt
	if paidAt == nil {
		paidAt = lo.ToPtr(event.CreatedAt)
	}

	next := *previous
	next.Status = types.SubscriptionStatusActive
	next.PastDueSince = nil
	next.LastPaymentAt = paidAt
	next.LastEventID = event.ID
	next.LastEventAt = lo.ToPtr(event.CreatedAt)
	next.UpdatedAt = r.Clock.Now()

	applied, err := r.SubRepo.Upsert(ctx, &next)
	if err != nil {
		return err
	}
	if applied {
		r.statusChanged(out, previous, &next, event.ID)
	} else {
		r.Logger.Infow("renewal state update was stale",
			"event_id", event.ID,
			"subscription_id", previous.ExternalSubscriptionID,
		)
	}

	return r.notify(ctx, out, NotifyRequest{
		UserID: previous.UserID,
		Type:   types.NotificationTypeSubscriptionRenewed,
		Data: map[string]interface{}{
			NotifyDataPlan:   previous.Plan.DisplayName(),
			NotifyDataAmount: FormatAmount(inv.AmountPaid, inv.Currency),
		},
		DedupParams: map[string]interface{}{
			"invoice_id": inv.ID,
		},
	})
}

func (r *subscriptionReconciler) invoiceSubscription(ctx context.Context, inv *billingevent.Invoice) (*subscription.Subscription, error) {
	if sub, err := r.existing(ctx, lo.FromPtr(inv.SubscriptionID)); err != nil || sub != nil {
		return sub, err
	}
	if inv.CustomerID == "" {
		return nil, nil
	}
	sub, err := r.SubRepo.GetLatestByCustomerID(ctx, inv.CustomerID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

func (r *subscriptionReconciler) handlePaymentFailed(ctx context.Context, event *billingevent.Event, out *effects) error {
	inv := event.Invoice
	if inv == nil {
		return ierr.NewError("invoice payload missing").
			WithHint("Malformed event payload").
			Mark(ierr.ErrValidation)
	}

	previous, err := r.invoiceSubscription(ctx, inv)
	if err != nil {
		return err
	}

	var userID string
	if previous != nil {
		userID = previous.UserID
	} else {
		userID, err = r.resolveUserID(ctx, inv.UserID, lo.FromPtr(inv.SubscriptionID), inv.CustomerID)
		if err != nil {
			return err
		}
	}
	if userID == "" {
		r.Logger.Warnw("cannot resolve user for failed payment, skipping",
			"event_id", event.ID,
			"invoice_id", inv.ID,
			"customer_id", inv.CustomerID,
		)
		return nil
	}

	if previous != nil && !previous.Status.IsTerminal() {
		now := r.Clock.Now()
		next := *previous
		next.Status = types.SubscriptionStatusPastDue
		next.PaymentFailedAt = lo.ToPtr(event.CreatedAt)
		if next.PastDueSince == nil {
			next.PastDueSince = lo.ToPtr(now)
		}
		next.LastEventID = event.ID
		next.LastEventAt = lo.ToPtr(event.CreatedAt)
		next.UpdatedAt = now

		applied, err := r.SubRepo.Upsert(ctx, &next)
		if err != nil {
			return err
		}
		if applied {
			r.Logger.Infow("subscription marked past due",
				"event_id", event.ID,
				"subscription_id", next.ExternalSubscriptionID,
				"user_id", userID,
			)
			r.statusChanged(out, previous, &next, event.ID)
		}
	}

	return r.notify(ctx, out, NotifyRequest{
		UserID: userID,
		Type:   types.NotificationTypePaymentFailed,
		Data: map[string]interface{}{
			NotifyDataAmount: FormatAmount(inv.AmountDue, inv.Currency),
		},
		DedupParams: paymentFailureDedup(event.ID, inv),
	})
}

// paymentFailureDedup keys a failure notification on the charge attempt so
// every retry that fails is reported once.
func paymentFailureDedup(eventID string, inv *billingevent.Invoice) map[string]interface{} {
	if inv.AttemptCount > 0 {
		return map[string]interface{}{
			"invoice_id":    inv.ID,
			"attempt_count": inv.AttemptCount,
		}
	}
	return map[string]interface{}{
		"invoice_id": inv.ID,
		"event_id":   eventID,
	}
}

func (r *subscriptionReconciler) handleIdentity(ctx context.Context, event *billingevent.Event, out *effects) error {
	sess := event.Identity
	if sess == nil {
		return ierr.NewError("verification session payload missing").
			WithHint("Malformed event payload").
			Mark(ierr.ErrValidation)
	}

	userID := strings.TrimSpace(lo.FromPtr(sess.UserID))
	if userID == "" {
		r.Logger.Warnw("verification session without user, skipping",
			"event_id", event.ID,
			"session_id", sess.ID,
		)
		return nil
	}

	previous, err := r.IdentityRepo.Get(ctx, userID)
	if err != nil {
		if !ierr.IsNotFound(err) {
			return err
		}
		previous = nil
	}

	now := r.Clock.Now()
	next := &identity.Verification{
		UserID:            userID,
		Status:            types.IdentityStatusFailed,
		ExternalSessionID: lo.ToPtr(sess.ID),
		LastEventAt:       lo.ToPtr(event.CreatedAt),
		BaseModel:         types.BaseModel{CreatedAt: now, UpdatedAt: now},
	}
	notificationType := types.NotificationTypeIdentityFailed
	if event.Kind == billingevent.KindIdentityVerified {
		next.Status = types.IdentityStatusVerified
		next.VerifiedAt = lo.ToPtr(event.CreatedAt)
		notificationType = types.NotificationTypeIdentityVerified
	} else if sess.LastErrorReason != nil {
		next.FailureReason = sess.LastErrorReason
	} else {
		next.FailureReason = sess.LastErrorCode
	}

	applied, err := r.IdentityRepo.Upsert(ctx, next)
	if err != nil {
		return err
	}
	if !applied {
		r.Logger.Infow("ignoring identity event",
			"event_id", event.ID,
			"user_id", userID,
			"status", next.Status,
		)
		return nil
	}

	r.Logger.Infow("identity status updated",
		"event_id", event.ID,
		"user_id", userID,
		"status", next.Status,
	)

	if previous != nil && previous.Status == next.Status {
		return nil
	}

	out.events = append(out.events, systemEvent{
		name:   types.SystemEventIdentityStatusChanged,
		userID: userID,
		payload: webhookDto.IdentityStatusChangedPayload{
			UserID:          userID,
			Status:          next.Status,
			ProviderEventID: event.ID,
			OccurredAt:      event.CreatedAt,
		},
	})

	data := map[string]interface{}{}
	if next.FailureReason != nil {
		data[NotifyDataReason] = *next.FailureReason
	}
	return r.notify(ctx, out, NotifyRequest{
		UserID: userID,
		Type:   notificationType,
		Data:   data,
		DedupParams: map[string]interface{}{
			"session_id": sess.ID,
		},
	})
}
