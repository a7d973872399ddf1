package types

import (
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/samber/lo"
)

type NotificationType string

const (
	NotificationTypePaymentPastDue        NotificationType = "payment_past_due"
	NotificationTypePaymentFailed         NotificationType = "payment_failed"
	NotificationTypeSubscriptionRenewed   NotificationType = "subscription_renewed"
	NotificationTypeSubscriptionCancelled NotificationType = "subscription_cancelled"
	NotificationTypeSubscriptionExpired   NotificationType = "subscription_expired"
	NotificationTypeIdentityVerified      NotificationType = "identity_verified"
	NotificationTypeIdentityFailed        NotificationType = "identity_failed"
)

func (t NotificationType) String() string {
	return string(t)
}

func (t NotificationType) Validate() error {
	allowed := []NotificationType{
		NotificationTypePaymentPastDue,
		NotificationTypePaymentFailed,
		NotificationTypeSubscriptionRenewed,
		NotificationTypeSubscriptionCancelled,
		NotificationTypeSubscriptionExpired,
		NotificationTypeIdentityVerified,
		NotificationTypeIdentityFailed,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid notification type").
			WithHint("Invalid notification type").
			WithReportableDetails(map[string]any{
				"type":          t,
				"allowed_types": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

func (p NotificationPriority) Validate() error {
	allowed := []NotificationPriority{
		NotificationPriorityLow,
		NotificationPriorityNormal,
		NotificationPriorityHigh,
		NotificationPriorityUrgent,
	}
	if !lo.Contains(allowed, p) {
		return ierr.NewError("invalid notification priority").
			WithHint("Invalid notification priority").
			WithReportableDetails(map[string]any{
				"priority":         p,
				"allowed_priority": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
