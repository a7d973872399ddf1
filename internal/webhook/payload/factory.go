package payload

import (
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/types"
	webhookDto "github.com/masseurmatch/masseurmatch/internal/webhook/dto"
)

// PayloadBuilderFactory interface for getting event-specific payload builders
type PayloadBuilderFactory interface {
	GetBuilder(eventName types.SystemEventName) (PayloadBuilder, error)
}

type payloadBuilderFactory struct {
	builders map[types.SystemEventName]func() PayloadBuilder
}

// NewPayloadBuilderFactory creates a new factory with registered builders
func NewPayloadBuilderFactory() PayloadBuilderFactory {
	f := &payloadBuilderFactory{
		builders: make(map[types.SystemEventName]func() PayloadBuilder),
	}

	f.builders[types.SystemEventSubscriptionStatusChanged] = func() PayloadBuilder {
		return typedBuilder[webhookDto.SubscriptionStatusChangedPayload]{}
	}
	f.builders[types.SystemEventIdentityStatusChanged] = func() PayloadBuilder {
		return typedBuilder[webhookDto.IdentityStatusChangedPayload]{}
	}
	f.builders[types.SystemEventNotificationCreated] = func() PayloadBuilder {
		return typedBuilder[webhookDto.NotificationCreatedPayload]{}
	}

	return f
}

// GetBuilder returns a payload builder for the given event name
func (f *payloadBuilderFactory) GetBuilder(eventName types.SystemEventName) (PayloadBuilder, error) {
	builderFn, ok := f.builders[eventName]
	if !ok {
		return nil, ierr.NewError("no builder registered for event").
			WithHintf("Unsupported system event %s", eventName).
			Mark(ierr.ErrValidation)
	}

	return builderFn(), nil
}
