package testutil

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/webhookevent"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/samber/lo"
)

// InMemoryWebhookEventStore implements webhookevent.Repository
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhookevent.Event]
}

var _ webhookevent.Repository = (*InMemoryWebhookEventStore)(nil)

func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[*webhookevent.Event](),
	}
}

func (s *InMemoryWebhookEventStore) Begin(ctx context.Context, e *webhookevent.Event) (*webhookevent.Event, error) {
	var stored webhookevent.Event
	s.InMemoryStore.Mutate(ctx, e.ID, func(cur *webhookevent.Event, exists bool) (*webhookevent.Event, bool) {
		if !exists {
			cp := *e
			cp.Status = types.WebhookEventStatusProcessing
			cp.Attempts = 1
			stored = cp
			return &cp, true
		}
		cp := *cur
		cp.Attempts++
		if cp.Status != types.WebhookEventStatusProcessed {
			cp.Status = types.WebhookEventStatusProcessing
		}
		stored = cp
		return &cp, true
	})
	return &stored, nil
}

func (s *InMemoryWebhookEventStore) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	s.InMemoryStore.Mutate(ctx, id, func(cur *webhookevent.Event, exists bool) (*webhookevent.Event, bool) {
		if !exists {
			return nil, false
		}
		cp := *cur
		cp.Status = types.WebhookEventStatusProcessed
		cp.ProcessedAt = lo.ToPtr(at)
		cp.LastError = nil
		return &cp, true
	})
	return nil
}

func (s *InMemoryWebhookEventStore) MarkFailed(ctx context.Context, id string, reason string) error {
	s.InMemoryStore.Mutate(ctx, id, func(cur *webhookevent.Event, exists bool) (*webhookevent.Event, bool) {
		if !exists || cur.Status == types.WebhookEventStatusProcessed {
			return nil, false
		}
		cp := *cur
		cp.Status = types.WebhookEventStatusFailed
		cp.LastError = lo.ToPtr(reason)
		return &cp, true
	})
	return nil
}

// GetEvent returns a copy of the ledger row for id
func (s *InMemoryWebhookEventStore) GetEvent(ctx context.Context, id string) (*webhookevent.Event, error) {
	e, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *e
	return &cp, nil
}
