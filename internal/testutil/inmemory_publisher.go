package testutil

import (
	"context"
	"sync"

	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/webhook/publisher"
	"github.com/samber/lo"
)

// InMemoryWebhookPublisher records published system events
type InMemoryWebhookPublisher struct {
	mu     sync.Mutex
	events []*types.SystemEvent
	Err    error
}

var _ publisher.WebhookPublisher = (*InMemoryWebhookPublisher)(nil)

func NewInMemoryWebhookPublisher() *InMemoryWebhookPublisher {
	return &InMemoryWebhookPublisher{}
}

func (p *InMemoryWebhookPublisher) PublishWebhook(ctx context.Context, event *types.SystemEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	cp := *event
	p.events = append(p.events, &cp)
	return nil
}

func (p *InMemoryWebhookPublisher) Close() error {
	return nil
}

// Events returns the published events, optionally narrowed to one name
func (p *InMemoryWebhookPublisher) Events(names ...types.SystemEventName) []*types.SystemEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(names) == 0 {
		return append([]*types.SystemEvent(nil), p.events...)
	}
	return lo.Filter(p.events, func(e *types.SystemEvent, _ int) bool {
		return lo.Contains(names, e.EventName)
	})
}
