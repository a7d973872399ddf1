package testutil

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/domain/subscription"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/samber/lo"
)

// InMemorySubscriptionStore implements subscription.Repository keyed by the
// external subscription id, applying the same stale and terminal guards as
// the postgres upsert.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

var _ subscription.Repository = (*InMemorySubscriptionStore)(nil)

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func (s *InMemorySubscriptionStore) Upsert(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	applied := s.InMemoryStore.Mutate(ctx, sub.ExternalSubscriptionID, func(cur *subscription.Subscription, exists bool) (*subscription.Subscription, bool) {
		cp := *sub
		if !exists {
			return &cp, true
		}
		if cur.Status.IsTerminal() {
			return nil, false
		}
		if cur.LastEventAt != nil && (sub.LastEventAt == nil || cur.LastEventAt.After(*sub.LastEventAt)) {
			return nil, false
		}
		cp.ID = cur.ID
		cp.CreatedAt = cur.CreatedAt
		return &cp, true
	})
	return applied, nil
}

func (s *InMemorySubscriptionStore) Cancel(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	applied := s.InMemoryStore.Mutate(ctx, sub.ExternalSubscriptionID, func(cur *subscription.Subscription, exists bool) (*subscription.Subscription, bool) {
		if !exists {
			cp := *sub
			return &cp, true
		}
		if cur.Status == types.SubscriptionStatusIncompleteExpired {
			return nil, false
		}
		cp := *cur
		cp.Status = types.SubscriptionStatusCanceled
		cp.CancelAtPeriodEnd = false
		if cp.CanceledAt == nil {
			cp.CanceledAt = sub.CanceledAt
		}
		cp.LastEventID = sub.LastEventID
		if cp.LastEventAt == nil || (sub.LastEventAt != nil && sub.LastEventAt.After(*cp.LastEventAt)) {
			cp.LastEventAt = sub.LastEventAt
		}
		cp.UpdatedAt = sub.UpdatedAt
		return &cp, true
	})
	return applied, nil
}

func (s *InMemorySubscriptionStore) GetByExternalID(ctx context.Context, externalSubscriptionID string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, externalSubscriptionID)
	if err != nil {
		return nil, err
	}
	cp := *sub
	return &cp, nil
}

func (s *InMemorySubscriptionStore) latest(ctx context.Context, match func(sub *subscription.Subscription) bool) (*subscription.Subscription, error) {
	items, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, sub *subscription.Subscription, _ interface{}) bool {
		return match(sub)
	}, func(a, b *subscription.Subscription) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	if len(items) == 0 {
		return nil, ierr.NewError("subscription not found").
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}
	cp := *items[0]
	return &cp, nil
}

func (s *InMemorySubscriptionStore) GetLatestByCustomerID(ctx context.Context, externalCustomerID string) (*subscription.Subscription, error) {
	return s.latest(ctx, func(sub *subscription.Subscription) bool {
		return sub.ExternalCustomerID == externalCustomerID
	})
}

func (s *InMemorySubscriptionStore) GetLatestByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	return s.latest(ctx, func(sub *subscription.Subscription) bool {
		return sub.UserID == userID
	})
}

// All returns copies of every stored subscription
func (s *InMemorySubscriptionStore) All(ctx context.Context) []*subscription.Subscription {
	items, _ := s.InMemoryStore.List(ctx, nil, nil, nil)
	return lo.Map(items, func(sub *subscription.Subscription, _ int) *subscription.Subscription {
		cp := *sub
		return &cp
	})
}
