package postgres

import "go.uber.org/fx"

// Module provides every postgres-backed repository
func Module() fx.Option {
	return fx.Provide(
		NewProfileRepository,
		NewRateRepository,
		NewSubscriptionRepository,
		NewIdentityRepository,
		NewNotificationRepository,
		NewWebhookEventRepository,
	)
}
