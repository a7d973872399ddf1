package config

import (
	"time"

	"github.com/masseurmatch/masseurmatch/internal/types"
)

// Webhook configures outbound system events delivered to subscribed endpoints
type Webhook struct {
	Enabled         bool             `mapstructure:"enabled"`
	Topic           string           `mapstructure:"topic"`
	PubSub          types.PubSubType `mapstructure:"pubsub"`
	MaxRetries      int              `mapstructure:"max_retries"`
	InitialInterval time.Duration    `mapstructure:"initial_interval"`
	MaxInterval     time.Duration    `mapstructure:"max_interval"`
	Multiplier      float64          `mapstructure:"multiplier"`
	Svix            Svix             `mapstructure:"svix"`
}

type Svix struct {
	Enabled   bool   `mapstructure:"enabled"`
	BaseURL   string `mapstructure:"base_url"`
	AuthToken string `mapstructure:"auth_token"`
	AppID     string `mapstructure:"app_id"`
}
