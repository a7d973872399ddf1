package testutil

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/notification"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/samber/lo"
)

// InMemoryNotificationStore implements notification.Repository
type InMemoryNotificationStore struct {
	*InMemoryStore[*notification.Notification]
}

var _ notification.Repository = (*InMemoryNotificationStore)(nil)

func NewInMemoryNotificationStore() *InMemoryNotificationStore {
	return &InMemoryNotificationStore{
		InMemoryStore: NewInMemoryStore[*notification.Notification](),
	}
}

func notificationNotFound() error {
	return ierr.NewError("notification not found").
		WithHint("Notification not found").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryNotificationStore) Create(ctx context.Context, n *notification.Notification) (bool, error) {
	if n.DedupKey != nil {
		dup, _ := s.InMemoryStore.Count(ctx, nil, func(_ context.Context, o *notification.Notification, _ interface{}) bool {
			return o.DedupKey != nil && *o.DedupKey == *n.DedupKey
		})
		if dup > 0 {
			return false, nil
		}
	}
	cp := *n
	if err := s.InMemoryStore.Create(ctx, n.ID, &cp); err != nil {
		return false, err
	}
	return true, nil
}

func (s *InMemoryNotificationStore) Get(ctx context.Context, id string) (*notification.Notification, error) {
	n, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, notificationNotFound()
	}
	cp := *n
	return &cp, nil
}

func notificationFilterFn(ctx context.Context, n *notification.Notification, f interface{}) bool {
	filter, ok := f.(*notification.Filter)
	if !ok {
		return true
	}
	if n.UserID != filter.UserID {
		return false
	}
	if filter.UnreadOnly && n.Read {
		return false
	}
	if !filter.Now.IsZero() && n.ExpiresAt != nil && !n.ExpiresAt.After(filter.Now) {
		return false
	}
	return true
}

func (s *InMemoryNotificationStore) List(ctx context.Context, filter *notification.Filter) ([]*notification.Notification, error) {
	items, err := s.InMemoryStore.List(ctx, filter, notificationFilterFn, func(a, b *notification.Notification) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	if filter.Offset >= len(items) {
		return []*notification.Notification{}, nil
	}
	items = items[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(items) {
		items = items[:filter.Limit]
	}

	return lo.Map(items, func(n *notification.Notification, _ int) *notification.Notification {
		cp := *n
		return &cp
	}), nil
}

func (s *InMemoryNotificationStore) Count(ctx context.Context, filter *notification.Filter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, notificationFilterFn)
}

func (s *InMemoryNotificationStore) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	updated := s.InMemoryStore.Mutate(ctx, id, func(cur *notification.Notification, exists bool) (*notification.Notification, bool) {
		if !exists || cur.UserID != userID {
			return nil, false
		}
		cp := *cur
		cp.Read = true
		if cp.ReadAt == nil {
			cp.ReadAt = lo.ToPtr(at)
		}
		cp.UpdatedAt = at
		return &cp, true
	})
	if !updated {
		return notificationNotFound()
	}
	return nil
}

func (s *InMemoryNotificationStore) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	unread, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, n *notification.Notification, _ interface{}) bool {
		return n.UserID == userID && !n.Read
	}, nil)
	for _, n := range unread {
		_ = s.MarkRead(ctx, userID, n.ID, at)
	}
	return len(unread), nil
}

func (s *InMemoryNotificationStore) Delete(ctx context.Context, userID, id string) error {
	n, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || n.UserID != userID {
		return notificationNotFound()
	}
	return s.InMemoryStore.Delete(ctx, id)
}
