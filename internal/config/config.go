package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/masseurmatch/masseurmatch/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging" validate:"required"`
	Postgres   PostgresConfig   `mapstructure:"postgres" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Email      EmailConfig      `mapstructure:"email"`
	Webhook    Webhook          `mapstructure:"webhook"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address" validate:"required"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string        `mapstructure:"host" validate:"required"`
	Port                   int           `mapstructure:"port" validate:"required"`
	User                   string        `mapstructure:"user" validate:"required"`
	Password               string        `mapstructure:"password"`
	DBName                 string        `mapstructure:"dbname" validate:"required"`
	SSLMode                string        `mapstructure:"sslmode"`
	MaxOpenConns           int           `mapstructure:"max_open_conns"`
	MaxIdleConns           int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int           `mapstructure:"conn_max_lifetime_minutes"`
	ConnectTimeout         time.Duration `mapstructure:"connect_timeout"`
}

type AuthConfig struct {
	Secret   string         `mapstructure:"secret"`
	Supabase SupabaseConfig `mapstructure:"supabase"`
}

type SupabaseConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	ServiceKey string `mapstructure:"service_key"`
}

// StripeConfig carries payment provider credentials. None of them are
// required at boot; handlers fail with a not-configured error instead.
type StripeConfig struct {
	SecretKey             string            `mapstructure:"secret_key"`
	WebhookSecret         string            `mapstructure:"webhook_secret"`
	IdentityWebhookSecret string            `mapstructure:"identity_webhook_secret"`
	Prices                map[string]string `mapstructure:"prices"`
	TrialDays             int64             `mapstructure:"trial_days" validate:"min=0"`
	SuccessURL            string            `mapstructure:"success_url"`
	CancelURL             string            `mapstructure:"cancel_url"`
	PortalReturnURL       string            `mapstructure:"portal_return_url"`
	IdentityReturnURL     string            `mapstructure:"identity_return_url"`
	MaxWebhookBodyBytes   int64             `mapstructure:"max_webhook_body_bytes" validate:"min=0"`
}

// DefaultMaxWebhookBodyBytes bounds a webhook delivery when no limit is configured
const DefaultMaxWebhookBodyBytes = int64(512 << 10)

// WebhookBodyLimit returns the largest webhook body accepted
func (c StripeConfig) WebhookBodyLimit() int64 {
	if c.MaxWebhookBodyBytes > 0 {
		return c.MaxWebhookBodyBytes
	}
	return DefaultMaxWebhookBodyBytes
}

// PriceID returns the provider price configured for a plan
func (c StripeConfig) PriceID(plan types.SubscriptionPlan) string {
	return c.Prices[string(plan)]
}

// IdentitySecret falls back to the billing secret when no dedicated identity secret is set
func (c StripeConfig) IdentitySecret() string {
	if c.IdentityWebhookSecret != "" {
		return c.IdentityWebhookSecret
	}
	return c.WebhookSecret
}

type EmailConfig struct {
	Enabled     bool       `mapstructure:"enabled"`
	Provider    string     `mapstructure:"provider" validate:"omitempty,oneof=resend smtp"`
	APIKey      string     `mapstructure:"api_key"`
	FromAddress string     `mapstructure:"from_address"`
	ReplyTo     string     `mapstructure:"reply_to"`
	AppBaseURL  string     `mapstructure:"app_base_url"`
	SMTP        SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`
	Burst             int     `mapstructure:"burst" validate:"min=0"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional; real deployments inject the environment directly
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/masseurmatch")

	setDefaults(v)

	v.SetEnvPrefix("MASSEURMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers every key so AutomaticEnv can override keys missing from the file
func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.level", types.LogLevelInfo)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "masseurmatch")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "masseurmatch")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)
	v.SetDefault("postgres.connect_timeout", 30*time.Second)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.supabase.base_url", "")
	v.SetDefault("auth.supabase.service_key", "")

	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.identity_webhook_secret", "")
	v.SetDefault("stripe.trial_days", 7)
	v.SetDefault("stripe.max_webhook_body_bytes", DefaultMaxWebhookBodyBytes)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.provider", "resend")
	v.SetDefault("email.api_key", "")
	v.SetDefault("email.from_address", "MasseurMatch <noreply@masseurmatch.com>")
	v.SetDefault("email.app_base_url", "https://masseurmatch.com")
	v.SetDefault("email.smtp.port", 587)

	v.SetDefault("webhook.enabled", false)
	v.SetDefault("webhook.topic", "system_events")
	v.SetDefault("webhook.pubsub", types.PubSubTypeMemory)
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.initial_interval", time.Second)
	v.SetDefault("webhook.max_interval", 10*time.Second)
	v.SetDefault("webhook.multiplier", 2.0)
	v.SetDefault("webhook.svix.enabled", false)
	v.SetDefault("webhook.svix.base_url", "")
	v.SetDefault("webhook.svix.auth_token", "")
	v.SetDefault("webhook.svix.app_id", "")

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.sample_rate", 1.0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.default_ttl", 10*time.Minute)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 1.0)
	v.SetDefault("rate_limit.burst", 5)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a configuration for local scripts and tests
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Stripe:     StripeConfig{TrialDays: 7},
		Email:      EmailConfig{Provider: "resend", AppBaseURL: "https://masseurmatch.com"},
		Cache:      CacheConfig{Enabled: true, DefaultTTL: 10 * time.Minute},
		RateLimit:  RateLimitConfig{Enabled: true, RequestsPerSecond: 1, Burst: 5},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
