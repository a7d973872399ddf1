package dto

import (
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/notification"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/validator"
)

// MaxNotificationPageLimit caps a single notification page
const MaxNotificationPageLimit = 50

type ListNotificationsRequest struct {
	UnreadOnly bool `form:"unread_only" json:"unread_only,omitempty"`
	Limit      int  `form:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=50"`
	Offset     int  `form:"offset" json:"offset,omitempty" validate:"omitempty,min=0"`
}

func (r *ListNotificationsRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *ListNotificationsRequest) GetLimit() int {
	if r.Limit <= 0 || r.Limit > MaxNotificationPageLimit {
		return MaxNotificationPageLimit
	}
	return r.Limit
}

type NotificationResponse struct {
	ID        string                     `json:"id"`
	Type      types.NotificationType     `json:"type"`
	Title     string                     `json:"title"`
	Message   string                     `json:"message"`
	Priority  types.NotificationPriority `json:"priority"`
	Read      bool                       `json:"read"`
	ActionURL *string                    `json:"action_url,omitempty"`
	Metadata  types.Metadata             `json:"metadata,omitempty"`
	ExpiresAt *time.Time                 `json:"expires_at,omitempty"`
	ReadAt    *time.Time                 `json:"read_at,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
}

func NewNotificationResponse(n *notification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Priority:  n.Priority,
		Read:      n.Read,
		ActionURL: n.ActionURL,
		Metadata:  n.Metadata,
		ExpiresAt: n.ExpiresAt,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

type ListNotificationsResponse = types.ListResponse[*NotificationResponse]

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type MarkAllReadResponse struct {
	Updated int `json:"updated"`
}
