package notification

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

type Notification struct {
	ID        string                     `db:"id" json:"id"`
	UserID    string                     `db:"user_id" json:"user_id"`
	Type      types.NotificationType     `db:"type" json:"type"`
	Title     string                     `db:"title" json:"title"`
	Message   string                     `db:"message" json:"message"`
	Priority  types.NotificationPriority `db:"priority" json:"priority"`
	Read      bool                       `db:"read" json:"read"`
	ActionURL *string                    `db:"action_url" json:"action_url,omitempty"`
	Metadata  types.Metadata             `db:"metadata" json:"metadata"`
	DedupKey  *string                    `db:"dedup_key" json:"-"`
	ExpiresAt *time.Time                 `db:"expires_at" json:"expires_at,omitempty"`
	ReadAt    *time.Time                 `db:"read_at" json:"read_at,omitempty"`
	types.BaseModel
}

type Filter struct {
	UserID     string
	UnreadOnly bool
	// Now excludes notifications that expired before it
	Now    time.Time
	Limit  int
	Offset int
}

type Repository interface {
	// Create inserts n unless a notification with the same dedup key exists;
	// created is false for the duplicate case.
	Create(ctx context.Context, n *Notification) (created bool, err error)
	Get(ctx context.Context, id string) (*Notification, error)
	List(ctx context.Context, filter *Filter) ([]*Notification, error)
	Count(ctx context.Context, filter *Filter) (int, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error)
	Delete(ctx context.Context, userID, id string) error
}
