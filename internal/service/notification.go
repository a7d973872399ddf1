package service

import (
	"context"
	"fmt"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	"github.com/masseurmatch/masseurmatch/internal/domain/notification"
	"github.com/masseurmatch/masseurmatch/internal/email"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/idempotency"
	"github.com/masseurmatch/masseurmatch/internal/types"
	webhookDto "github.com/masseurmatch/masseurmatch/internal/webhook/dto"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc"
)

// Keys read from NotifyRequest.Data when rendering a template
const (
	NotifyDataAmount      = "amount"
	NotifyDataDaysPastDue = "days_past_due"
	NotifyDataPlan        = "plan"
	NotifyDataEndDate     = "end_date"
	NotifyDataReason      = "reason"
)

type notificationTemplate struct {
	title     string
	priority  types.NotificationPriority
	actionURL string
	email     email.TemplateName
	message   func(data map[string]interface{}) string
}

var notificationTemplates = map[types.NotificationType]notificationTemplate{
	types.NotificationTypePaymentPastDue: {
		title:     "Payment Past Due",
		priority:  types.NotificationPriorityUrgent,
		actionURL: "/dashboard/billing",
		email:     email.TemplatePaymentPastDue,
		message: func(data map[string]interface{}) string {
			return fmt.Sprintf("Your payment of %s is %s past due. Please update your payment method to avoid service interruption.",
				data[NotifyDataAmount], daysLabel(data[NotifyDataDaysPastDue]))
		},
	},
	types.NotificationTypePaymentFailed: {
		title:     "Payment Failed",
		priority:  types.NotificationPriorityHigh,
		actionURL: "/dashboard/billing",
		email:     email.TemplatePaymentFailed,
		message: func(data map[string]interface{}) string {
			return fmt.Sprintf("We were unable to process your payment of %s. Please update your payment method.",
				data[NotifyDataAmount])
		},
	},
	types.NotificationTypeSubscriptionRenewed: {
		title:     "Subscription Renewed",
		priority:  types.NotificationPriorityLow,
		actionURL: "/dashboard/billing",
		email:     email.TemplateSubscriptionRenewed,
		message: func(data map[string]interface{}) string {
			return fmt.Sprintf("Your %s subscription has been renewed successfully. Amount charged: %s.",
				data[NotifyDataPlan], data[NotifyDataAmount])
		},
	},
	types.NotificationTypeSubscriptionCancelled: {
		title:     "Subscription Cancelled",
		priority:  types.NotificationPriorityNormal,
		actionURL: "/pricing",
		email:     email.TemplateSubscriptionCancelled,
		message: func(data map[string]interface{}) string {
			return fmt.Sprintf("Your subscription has been cancelled. You'll have access until %s.",
				data[NotifyDataEndDate])
		},
	},
	types.NotificationTypeSubscriptionExpired: {
		title:     "Subscription Expired",
		priority:  types.NotificationPriorityHigh,
		actionURL: "/pricing",
		message: func(map[string]interface{}) string {
			return "Your subscription has expired. Upgrade now to continue enjoying premium features."
		},
	},
	types.NotificationTypeIdentityVerified: {
		title:     "Identity Verified",
		priority:  types.NotificationPriorityNormal,
		actionURL: "/dashboard",
		email:     email.TemplateIdentityVerified,
		message: func(map[string]interface{}) string {
			return "Your identity has been verified. Your profile now shows the verified badge."
		},
	},
	types.NotificationTypeIdentityFailed: {
		title:     "Identity Verification Failed",
		priority:  types.NotificationPriorityHigh,
		actionURL: "/dashboard/verification",
		message: func(data map[string]interface{}) string {
			msg := "We could not verify your identity. Please review the requirements and try again."
			if reason, ok := data[NotifyDataReason].(string); ok && reason != "" {
				msg = fmt.Sprintf("We could not verify your identity (%s). Please review the requirements and try again.", reason)
			}
			return msg
		},
	},
}

func daysLabel(v interface{}) string {
	days, _ := v.(int)
	if days <= 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// NotifyRequest asks for one templated notification
type NotifyRequest struct {
	UserID string
	Type   types.NotificationType
	Data   map[string]interface{}
	// DedupParams identify the business fact being notified about. Requests
	// with equal params collapse onto one notification.
	DedupParams map[string]interface{}
	ExpiresAt   *time.Time
}

func (r NotifyRequest) Validate() error {
	if r.UserID == "" {
		return ierr.NewError("user id is required").
			WithHint("Notification needs a recipient").
			Mark(ierr.ErrValidation)
	}
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if _, ok := notificationTemplates[r.Type]; !ok {
		return ierr.NewError("no template for notification type").
			WithHintf("Notification type %s has no template", r.Type).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type NotificationService interface {
	// Notify creates the notification and then delivers it best-effort.
	// A duplicate request returns (nil, nil).
	Notify(ctx context.Context, req NotifyRequest) (*notification.Notification, error)
	// Create only persists; it is safe to call inside a transaction.
	Create(ctx context.Context, req NotifyRequest) (*notification.Notification, bool, error)
	// Deliver sends the email and outbound event for a created notification.
	Deliver(ctx context.Context, n *notification.Notification, data map[string]interface{})

	ListNotifications(ctx context.Context, req dto.ListNotificationsRequest) (*dto.ListNotificationsResponse, error)
	GetUnreadCount(ctx context.Context) (*dto.UnreadCountResponse, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) (*dto.MarkAllReadResponse, error)
	DeleteNotification(ctx context.Context, id string) error
}

type notificationService struct {
	ServiceParams
}

func NewNotificationService(params ServiceParams) NotificationService {
	return &notificationService{ServiceParams: params}
}

func (s *notificationService) Notify(ctx context.Context, req NotifyRequest) (*notification.Notification, error) {
	n, created, err := s.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	s.Deliver(ctx, n, req.Data)
	return n, nil
}

func (s *notificationService) Create(ctx context.Context, req NotifyRequest) (*notification.Notification, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	tmpl := notificationTemplates[req.Type]
	now := s.Clock.Now()

	metadata := types.Metadata{}
	for k, v := range req.Data {
		metadata[k] = v
	}

	n := &notification.Notification{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION),
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     tmpl.title,
		Message:   tmpl.message(req.Data),
		Priority:  tmpl.priority,
		ActionURL: lo.ToPtr(tmpl.actionURL),
		Metadata:  metadata,
		ExpiresAt: req.ExpiresAt,
		BaseModel: types.BaseModel{CreatedAt: now, UpdatedAt: now},
	}

	if req.DedupParams != nil {
		params := map[string]interface{}{
			"type":    req.Type,
			"user_id": req.UserID,
		}
		for k, v := range req.DedupParams {
			params[k] = v
		}
		n.DedupKey = lo.ToPtr(s.KeyGenerator.GenerateKey(idempotency.ScopeNotification, params))
	}

	created, err := s.NotificationRepo.Create(ctx, n)
	if err != nil {
		return nil, false, err
	}
	if !created {
		s.Logger.Infow("notification already exists, skipping",
			"user_id", req.UserID,
			"type", req.Type,
			"dedup_key", lo.FromPtr(n.DedupKey),
		)
		return nil, false, nil
	}

	s.Logger.Infow("notification created",
		"notification_id", n.ID,
		"user_id", n.UserID,
		"type", n.Type,
		"priority", n.Priority,
	)
	return n, true, nil
}

// Deliver fans out the email and the outbound event. Failures are logged
// and never undo the notification.
func (s *notificationService) Deliver(ctx context.Context, n *notification.Notification, data map[string]interface{}) {
	var wg conc.WaitGroup
	wg.Go(func() {
		s.sendEmail(ctx, n, data)
	})
	wg.Go(func() {
		s.publishSystemEvent(ctx, types.SystemEventNotificationCreated, n.UserID, webhookDto.NotificationCreatedPayload{
			NotificationID: n.ID,
			UserID:         n.UserID,
			Type:           n.Type,
			Priority:       n.Priority,
			Title:          n.Title,
		})
	})
	if r := wg.WaitAndRecover(); r != nil {
		s.Logger.Errorw("panic while delivering notification",
			"notification_id", n.ID,
			"panic", r.Value,
		)
	}
}

func (s *notificationService) sendEmail(ctx context.Context, n *notification.Notification, data map[string]interface{}) {
	tmpl := notificationTemplates[n.Type]
	if tmpl.email == "" || s.EmailSender == nil || s.UserDirectory == nil {
		return
	}

	user, err := s.UserDirectory.GetUser(ctx, n.UserID)
	if err != nil {
		s.Logger.Warnw("skipping notification email, recipient lookup failed",
			"notification_id", n.ID,
			"user_id", n.UserID,
			"error", err,
		)
		return
	}

	emailData := map[string]interface{}{
		"action_url":          lo.FromPtr(n.ActionURL),
		"days_past_due_label": daysLabel(data[NotifyDataDaysPastDue]),
	}
	for k, v := range data {
		emailData[k] = v
	}

	resp, err := s.EmailSender.SendTemplate(ctx, email.SendTemplateRequest{
		ToAddress: user.Email,
		Template:  tmpl.email,
		Data:      emailData,
	})
	if err != nil {
		s.Logger.Errorw("failed to send notification email",
			"notification_id", n.ID,
			"user_id", n.UserID,
			"template", tmpl.email,
			"error", err,
		)
		return
	}
	if resp != nil && resp.Success {
		s.Logger.Debugw("notification email sent",
			"notification_id", n.ID,
			"message_id", resp.MessageID,
		)
	}
}

func (s *notificationService) currentUser(ctx context.Context) (string, error) {
	userID := types.GetUserID(ctx)
	if userID == "" {
		return "", ierr.NewError("user not authenticated").
			WithHint("Please sign in").
			Mark(ierr.ErrUnauthenticated)
	}
	return userID, nil
}

func (s *notificationService) ListNotifications(ctx context.Context, req dto.ListNotificationsRequest) (*dto.ListNotificationsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	filter := &notification.Filter{
		UserID:     userID,
		UnreadOnly: req.UnreadOnly,
		Now:        s.Clock.Now(),
		Limit:      req.GetLimit(),
		Offset:     req.Offset,
	}

	items, err := s.NotificationRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.NotificationRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := types.NewListResponse(
		lo.Map(items, func(n *notification.Notification, _ int) *dto.NotificationResponse {
			return dto.NewNotificationResponse(n)
		}),
		total, filter.Limit, filter.Offset,
	)
	return &resp, nil
}

func (s *notificationService) GetUnreadCount(ctx context.Context) (*dto.UnreadCountResponse, error) {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	count, err := s.NotificationRepo.Count(ctx, &notification.Filter{
		UserID:     userID,
		UnreadOnly: true,
		Now:        s.Clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	return &dto.UnreadCountResponse{Count: count}, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	return s.NotificationRepo.MarkRead(ctx, userID, id, s.Clock.Now())
}

func (s *notificationService) MarkAllRead(ctx context.Context) (*dto.MarkAllReadResponse, error) {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.NotificationRepo.MarkAllRead(ctx, userID, s.Clock.Now())
	if err != nil {
		return nil, err
	}
	return &dto.MarkAllReadResponse{Updated: updated}, nil
}

func (s *notificationService) DeleteNotification(ctx context.Context, id string) error {
	userID, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	return s.NotificationRepo.Delete(ctx, userID, id)
}
