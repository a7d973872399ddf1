package testutil

import (
	"encoding/json"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeTestSecret signs payloads built by SignedStripeEvent
const StripeTestSecret = "whsec_test_secret"

// StripeEventPayload builds a raw provider event envelope around object
func StripeEventPayload(id, eventType string, created time.Time, object map[string]any) []byte {
	payload, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"created":     created.Unix(),
		"livemode":    false,
		"api_version": "2025-06-30.basil",
		"data": map[string]any{
			"object": object,
		},
	})
	if err != nil {
		panic(err)
	}
	return payload
}

// SignStripePayload returns a signature header for payload under secret
func SignStripePayload(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: payload,
		Secret:  secret,
	}).Header
}

// SignedStripeEvent builds and signs an event with StripeTestSecret
func SignedStripeEvent(id, eventType string, created time.Time, object map[string]any) ([]byte, string) {
	payload := StripeEventPayload(id, eventType, created, object)
	return payload, SignStripePayload(payload, StripeTestSecret)
}
