package svix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/masseurmatch/masseurmatch/internal/config"
	svix "github.com/svix/svix-webhooks/go"
	"github.com/svix/svix-webhooks/go/models"
)

// defaultAppID is the application system events are sent to when none is configured
const defaultAppID = "masseurmatch"

// Client wraps the Svix SDK client
type Client struct {
	client  *svix.Svix
	appID   string
	enabled bool
}

// NewClient creates a Svix client, or a disabled one when Svix is off
func NewClient(cfg *config.Configuration) (*Client, error) {
	if !cfg.Webhook.Svix.Enabled {
		return &Client{enabled: false}, nil
	}

	opts := &svix.SvixOptions{}
	if cfg.Webhook.Svix.BaseURL != "" {
		serverURL, err := url.Parse(cfg.Webhook.Svix.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL: %w", err)
		}
		opts.ServerUrl = serverURL
	}

	svixClient, err := svix.New(cfg.Webhook.Svix.AuthToken, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create svix client: %w", err)
	}

	appID := cfg.Webhook.Svix.AppID
	if appID == "" {
		appID = defaultAppID
	}

	return &Client{
		client:  svixClient,
		appID:   appID,
		enabled: true,
	}, nil
}

// IsEnabled reports whether messages are actually sent
func (c *Client) IsEnabled() bool {
	return c.enabled && c.client != nil
}

// GetOrCreateApplication returns the id of the configured application,
// creating it on first use.
func (c *Client) GetOrCreateApplication(ctx context.Context) (string, error) {
	if !c.IsEnabled() {
		return "", nil
	}

	if _, err := c.client.Application.Get(ctx, c.appID); err == nil {
		return c.appID, nil
	}

	app, err := c.client.Application.Create(ctx, models.ApplicationIn{
		Name: c.appID,
		Uid:  &c.appID,
	}, &svix.ApplicationCreateOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to create application: %w", err)
	}

	return app.Id, nil
}

// SendMessage sends one event to the application. payload must marshal to a JSON object.
func (c *Client) SendMessage(ctx context.Context, applicationID string, eventType string, payload json.RawMessage) error {
	if !c.IsEnabled() {
		return nil
	}

	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payload, &payloadMap); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	_, err := c.client.Message.Create(ctx, applicationID, models.MessageIn{
		EventType: eventType,
		Payload:   payloadMap,
	}, &svix.MessageCreateOptions{})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}
