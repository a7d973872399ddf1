package testutil

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/domain/identity"
)

// InMemoryIdentityStore implements identity.Repository
type InMemoryIdentityStore struct {
	*InMemoryStore[*identity.Verification]
}

var _ identity.Repository = (*InMemoryIdentityStore)(nil)

func NewInMemoryIdentityStore() *InMemoryIdentityStore {
	return &InMemoryIdentityStore{
		InMemoryStore: NewInMemoryStore[*identity.Verification](),
	}
}

func (s *InMemoryIdentityStore) Upsert(ctx context.Context, v *identity.Verification) (bool, error) {
	applied := s.InMemoryStore.Mutate(ctx, v.UserID, func(cur *identity.Verification, exists bool) (*identity.Verification, bool) {
		cp := *v
		if !exists {
			return &cp, true
		}
		if cur.LastEventAt != nil && (v.LastEventAt == nil || cur.LastEventAt.After(*v.LastEventAt)) {
			return nil, false
		}
		cp.CreatedAt = cur.CreatedAt
		return &cp, true
	})
	return applied, nil
}

func (s *InMemoryIdentityStore) Get(ctx context.Context, userID string) (*identity.Verification, error) {
	v, err := s.InMemoryStore.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	cp := *v
	return &cp, nil
}
