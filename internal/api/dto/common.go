package dto

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// WebhookReceivedResponse acknowledges a provider delivery
type WebhookReceivedResponse struct {
	Received bool `json:"received"`
}
