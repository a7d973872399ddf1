package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/masseurmatch/masseurmatch/internal/config"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/pubsub/memory"
	"github.com/masseurmatch/masseurmatch/internal/types"
	webhookDto "github.com/masseurmatch/masseurmatch/internal/webhook/dto"
	"github.com/masseurmatch/masseurmatch/internal/webhook/payload"
	"github.com/stretchr/testify/suite"
)

type sentMessage struct {
	appID     string
	eventType string
	body      json.RawMessage
}

type fakeDeliverer struct {
	enabled bool
	err     error
	sent    []sentMessage
}

func (d *fakeDeliverer) IsEnabled() bool { return d.enabled }

func (d *fakeDeliverer) GetOrCreateApplication(context.Context) (string, error) {
	return "app_test", nil
}

func (d *fakeDeliverer) SendMessage(_ context.Context, appID, eventType string, body json.RawMessage) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, sentMessage{appID: appID, eventType: eventType, body: body})
	return nil
}

type HandlerSuite struct {
	suite.Suite
	deliverer *fakeDeliverer
	handler   *handler
}

func TestHandler(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := logger.NewNopLogger()
	s.deliverer = &fakeDeliverer{enabled: true}
	s.handler = newHandler(
		memory.NewPubSub(log),
		&config.Webhook{Enabled: true, Topic: "system_events"},
		payload.NewPayloadBuilderFactory(),
		s.deliverer,
		log,
	)
}

func (s *HandlerSuite) message(name types.SystemEventName, data any) *message.Message {
	raw, err := json.Marshal(data)
	s.Require().NoError(err)
	body, err := json.Marshal(types.SystemEvent{
		ID:        "sevt_1",
		EventName: name,
		UserID:    "usr_1",
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	})
	s.Require().NoError(err)
	return message.NewMessage("sevt_1", body)
}

func (s *HandlerSuite) TestDeliversEnvelope() {
	msg := s.message(types.SystemEventSubscriptionStatusChanged, webhookDto.SubscriptionStatusChangedPayload{
		SubscriptionID:         "subs_1",
		ExternalSubscriptionID: "sub_123",
		UserID:                 "usr_1",
		Plan:                   types.PlanPro,
		PreviousStatus:         types.SubscriptionStatusActive,
		Status:                 types.SubscriptionStatusPastDue,
	})

	s.Require().NoError(s.handler.processMessage(msg))
	s.Require().Len(s.deliverer.sent, 1)

	sent := s.deliverer.sent[0]
	s.Equal("app_test", sent.appID)
	s.Equal(string(types.SystemEventSubscriptionStatusChanged), sent.eventType)

	var out map[string]any
	s.Require().NoError(json.Unmarshal(sent.body, &out))
	s.Equal(string(types.SystemEventSubscriptionStatusChanged), out["event_type"])
	data := out["data"].(map[string]any)
	s.Equal("past_due", data["status"])
}

func (s *HandlerSuite) TestInvalidPayloadIsDropped() {
	msg := s.message(types.SystemEventIdentityStatusChanged, map[string]any{"status": "verified"})
	s.NoError(s.handler.processMessage(msg))
	s.Empty(s.deliverer.sent)
}

func (s *HandlerSuite) TestUnknownEventIsDropped() {
	msg := s.message(types.SystemEventName("profile.deleted"), map[string]any{"user_id": "usr_1"})
	s.NoError(s.handler.processMessage(msg))
	s.Empty(s.deliverer.sent)
}

func (s *HandlerSuite) TestDisabledDelivererDrops() {
	s.deliverer.enabled = false
	msg := s.message(types.SystemEventNotificationCreated, webhookDto.NotificationCreatedPayload{
		NotificationID: "ntf_1",
		UserID:         "usr_1",
		Type:           types.NotificationTypePaymentFailed,
	})
	s.NoError(s.handler.processMessage(msg))
	s.Empty(s.deliverer.sent)
}

func (s *HandlerSuite) TestTransientDeliveryErrorIsRetried() {
	s.deliverer.err = errors.New("connection reset")
	msg := s.message(types.SystemEventNotificationCreated, webhookDto.NotificationCreatedPayload{
		NotificationID: "ntf_1",
		UserID:         "usr_1",
		Type:           types.NotificationTypePaymentFailed,
	})
	s.Error(s.handler.processMessage(msg))
}

func (s *HandlerSuite) TestPermanentDeliveryErrorIsAcked() {
	s.deliverer.err = ierr.NewError("bad payload").Mark(ierr.ErrValidation)
	msg := s.message(types.SystemEventNotificationCreated, webhookDto.NotificationCreatedPayload{
		NotificationID: "ntf_1",
		UserID:         "usr_1",
		Type:           types.NotificationTypePaymentFailed,
	})
	s.NoError(s.handler.processMessage(msg))
}
