package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/masseurmatch/masseurmatch/internal/validator"
)

// PayloadBuilder turns an internal event payload into the body delivered to endpoints
type PayloadBuilder interface {
	BuildPayload(ctx context.Context, eventName types.SystemEventName, data json.RawMessage) (json.RawMessage, error)
}

// envelope is the outbound body shape shared by every event
type envelope[T any] struct {
	EventType types.SystemEventName `json:"event_type"`
	Data      T                     `json:"data"`
}

// typedBuilder decodes the payload into T and checks its required fields
// before wrapping it in the envelope.
type typedBuilder[T any] struct{}

func (typedBuilder[T]) BuildPayload(_ context.Context, eventName types.SystemEventName, data json.RawMessage) (json.RawMessage, error) {
	var parsed T
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal system event payload").
			WithReportableDetails(map[string]any{"event_name": eventName}).
			Mark(ierr.ErrValidation)
	}

	if err := validator.ValidateRequest(parsed); err != nil {
		return nil, err
	}

	return json.Marshal(envelope[T]{
		EventType: eventName,
		Data:      parsed,
	})
}
