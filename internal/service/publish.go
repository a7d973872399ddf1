package service

import (
	"context"
	"encoding/json"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

// publishSystemEvent sends an outbound event. Publishing is best-effort and
// never fails the caller.
func (p ServiceParams) publishSystemEvent(ctx context.Context, name types.SystemEventName, userID string, payload interface{}) {
	if p.WebhookPublisher == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		p.Logger.Errorw("failed to marshal system event payload",
			"event_name", name,
			"error", err,
		)
		return
	}

	event := &types.SystemEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SYSTEM_EVENT),
		EventName: name,
		UserID:    userID,
		Timestamp: p.Clock.Now(),
		Payload:   data,
	}
	if err := p.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		p.Logger.Errorw("failed to publish system event",
			"event_id", event.ID,
			"event_name", name,
			"user_id", userID,
			"error", err,
		)
	}
}
