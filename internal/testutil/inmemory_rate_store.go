package testutil

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/rate"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/samber/lo"
)

// InMemoryRateStore implements rate.Repository, including the uniqueness of
// active (profile, context, duration) rates.
type InMemoryRateStore struct {
	*InMemoryStore[*rate.Rate]
}

var _ rate.Repository = (*InMemoryRateStore)(nil)

func NewInMemoryRateStore() *InMemoryRateStore {
	return &InMemoryRateStore{
		InMemoryStore: NewInMemoryStore[*rate.Rate](),
	}
}

func (s *InMemoryRateStore) conflicts(ctx context.Context, r *rate.Rate) bool {
	n, _ := s.InMemoryStore.Count(ctx, nil, func(_ context.Context, o *rate.Rate, _ interface{}) bool {
		return o.ID != r.ID && o.IsActive && r.IsActive &&
			o.ProfileID == r.ProfileID && o.Context == r.Context && o.DurationMinutes == r.DurationMinutes
	})
	return n > 0
}

func (s *InMemoryRateStore) Create(ctx context.Context, r *rate.Rate) error {
	if s.conflicts(ctx, r) {
		return ierr.NewError("rate already exists").
			WithHint("An active rate with this duration already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	cp := *r
	return s.InMemoryStore.Create(ctx, r.ID, &cp)
}

func (s *InMemoryRateStore) Get(ctx context.Context, id string) (*rate.Rate, error) {
	r, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *r
	return &cp, nil
}

func (s *InMemoryRateStore) List(ctx context.Context, filter *rate.Filter) ([]*rate.Rate, error) {
	if filter == nil || filter.ProfileID == "" {
		return nil, ierr.NewError("profile id is required").
			WithHint("Profile is required to list rates").
			Mark(ierr.ErrValidation)
	}

	items, err := s.InMemoryStore.List(ctx, filter, func(_ context.Context, r *rate.Rate, _ interface{}) bool {
		if r.ProfileID != filter.ProfileID {
			return false
		}
		if filter.Context != nil && r.Context != *filter.Context {
			return false
		}
		return !filter.ActiveOnly || r.IsActive
	}, func(a, b *rate.Rate) bool {
		if a.Context != b.Context {
			return a.Context < b.Context
		}
		if a.DurationMinutes != b.DurationMinutes {
			return a.DurationMinutes < b.DurationMinutes
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(r *rate.Rate, _ int) *rate.Rate {
		cp := *r
		return &cp
	}), nil
}

func (s *InMemoryRateStore) Update(ctx context.Context, r *rate.Rate) error {
	if s.conflicts(ctx, r) {
		return ierr.NewError("rate already exists").
			WithHint("An active rate with this duration already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	updated := s.InMemoryStore.Mutate(ctx, r.ID, func(cur *rate.Rate, exists bool) (*rate.Rate, bool) {
		if !exists || !cur.IsActive {
			return nil, false
		}
		cp := *cur
		cp.DurationMinutes = r.DurationMinutes
		cp.PriceCents = r.PriceCents
		cp.IsBaseRate = r.IsBaseRate
		cp.UpdatedAt = r.UpdatedAt
		return &cp, true
	})
	if !updated {
		return ierr.NewError("rate not found").
			WithHint("Rate not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryRateStore) ClearBaseRate(ctx context.Context, profileID string, rateCtx types.RateContext) error {
	items, _ := s.InMemoryStore.List(ctx, nil, func(_ context.Context, r *rate.Rate, _ interface{}) bool {
		return r.ProfileID == profileID && r.Context == rateCtx && r.IsActive && r.IsBaseRate
	}, nil)
	for _, r := range items {
		s.InMemoryStore.Mutate(ctx, r.ID, func(cur *rate.Rate, _ bool) (*rate.Rate, bool) {
			cp := *cur
			cp.IsBaseRate = false
			cp.UpdatedAt = time.Now().UTC()
			return &cp, true
		})
	}
	return nil
}

func (s *InMemoryRateStore) Deactivate(ctx context.Context, id string, at time.Time) error {
	updated := s.InMemoryStore.Mutate(ctx, id, func(cur *rate.Rate, exists bool) (*rate.Rate, bool) {
		if !exists || !cur.IsActive {
			return nil, false
		}
		cp := *cur
		cp.IsActive = false
		cp.IsBaseRate = false
		cp.DeactivatedAt = lo.ToPtr(at)
		cp.UpdatedAt = at
		return &cp, true
	})
	if !updated {
		return ierr.NewError("rate not found").
			WithHint("Rate not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}
