package testutil

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/profile"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/samber/lo"
)

// InMemoryProfileStore implements profile.Repository
type InMemoryProfileStore struct {
	*InMemoryStore[*profile.Profile]
}

var _ profile.Repository = (*InMemoryProfileStore)(nil)

func NewInMemoryProfileStore() *InMemoryProfileStore {
	return &InMemoryProfileStore{
		InMemoryStore: NewInMemoryStore[*profile.Profile](),
	}
}

// CreateProfile seeds a profile
func (s *InMemoryProfileStore) CreateProfile(ctx context.Context, p *profile.Profile) error {
	cp := *p
	return s.InMemoryStore.Create(ctx, p.ID, &cp)
}

func (s *InMemoryProfileStore) find(ctx context.Context, match func(p *profile.Profile) bool) (*profile.Profile, error) {
	items, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, p *profile.Profile, _ interface{}) bool {
		return match(p)
	}, nil)
	if len(items) == 0 {
		return nil, ierr.NewError("profile not found").
			WithHint("Profile not found").
			Mark(ierr.ErrNotFound)
	}
	cp := *items[0]
	return &cp, nil
}

func (s *InMemoryProfileStore) GetByUserID(ctx context.Context, userID string) (*profile.Profile, error) {
	return s.find(ctx, func(p *profile.Profile) bool { return p.UserID == userID })
}

func (s *InMemoryProfileStore) GetByStripeCustomerID(ctx context.Context, customerID string) (*profile.Profile, error) {
	return s.find(ctx, func(p *profile.Profile) bool {
		return p.StripeCustomerID != nil && *p.StripeCustomerID == customerID
	})
}

func (s *InMemoryProfileStore) SetStripeCustomerID(ctx context.Context, profileID, customerID string) error {
	s.InMemoryStore.Mutate(ctx, profileID, func(p *profile.Profile, exists bool) (*profile.Profile, bool) {
		if !exists {
			return nil, false
		}
		cp := *p
		cp.StripeCustomerID = lo.ToPtr(customerID)
		cp.UpdatedAt = time.Now().UTC()
		return &cp, true
	})
	return nil
}
