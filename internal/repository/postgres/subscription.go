package postgres

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/domain/subscription"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
)

type subscriptionRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewSubscriptionRepository(db *postgres.DB, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{db: db, logger: logger}
}

const subscriptionColumns = `id, user_id, plan, status, external_subscription_id, external_customer_id,
	current_period_start, current_period_end, cancel_at_period_end, trial_end, past_due_since,
	last_payment_at, payment_failed_at, canceled_at, last_event_id, last_event_at, created_at, updated_at`

const subscriptionInsert = `
	INSERT INTO subscriptions (
		id,
		user_id,
		plan,
		status,
		external_subscription_id,
		external_customer_id,
		current_period_start,
		current_period_end,
		cancel_at_period_end,
		trial_end,
		past_due_since,
		last_payment_at,
		payment_failed_at,
		canceled_at,
		last_event_id,
		last_event_at,
		created_at,
		updated_at
	) VALUES (
		:id,
		:user_id,
		:plan,
		:status,
		:external_subscription_id,
		:external_customer_id,
		:current_period_start,
		:current_period_end,
		:cancel_at_period_end,
		:trial_end,
		:past_due_since,
		:last_payment_at,
		:payment_failed_at,
		:canceled_at,
		:last_event_id,
		:last_event_at,
		:created_at,
		:updated_at
	)
`

// Upsert relies on the conflict clause's WHERE to refuse stale events and
// terminal records, so concurrent deliveries are serialized by the row lock.
func (r *subscriptionRepository) Upsert(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	query := subscriptionInsert + `
	ON CONFLICT (external_subscription_id) DO UPDATE SET
		user_id = EXCLUDED.user_id,
		plan = EXCLUDED.plan,
		status = EXCLUDED.status,
		external_customer_id = EXCLUDED.external_customer_id,
		current_period_start = EXCLUDED.current_period_start,
		current_period_end = EXCLUDED.current_period_end,
		cancel_at_period_end = EXCLUDED.cancel_at_period_end,
		trial_end = EXCLUDED.trial_end,
		past_due_since = EXCLUDED.past_due_since,
		last_payment_at = EXCLUDED.last_payment_at,
		payment_failed_at = EXCLUDED.payment_failed_at,
		canceled_at = EXCLUDED.canceled_at,
		last_event_id = EXCLUDED.last_event_id,
		last_event_at = EXCLUDED.last_event_at,
		updated_at = EXCLUDED.updated_at
	WHERE subscriptions.status NOT IN ('canceled', 'incomplete_expired')
		AND (subscriptions.last_event_at IS NULL OR subscriptions.last_event_at <= EXCLUDED.last_event_at)
	`
	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		return false, postgres.WrapError(err, "subscription")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, postgres.WrapError(err, "subscription")
	}
	return n > 0, nil
}

func (r *subscriptionRepository) Cancel(ctx context.Context, sub *subscription.Subscription) (bool, error) {
	query := subscriptionInsert + `
	ON CONFLICT (external_subscription_id) DO UPDATE SET
		status = 'canceled',
		cancel_at_period_end = FALSE,
		canceled_at = COALESCE(subscriptions.canceled_at, EXCLUDED.canceled_at),
		last_event_id = EXCLUDED.last_event_id,
		last_event_at = GREATEST(subscriptions.last_event_at, EXCLUDED.last_event_at),
		updated_at = EXCLUDED.updated_at
	WHERE subscriptions.status <> 'incomplete_expired'
	`
	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, sub)
	if err != nil {
		return false, postgres.WrapError(err, "subscription")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, postgres.WrapError(err, "subscription")
	}
	return n > 0, nil
}

func (r *subscriptionRepository) GetByExternalID(ctx context.Context, externalSubscriptionID string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE external_subscription_id = $1`,
		externalSubscriptionID)
	if err != nil {
		return nil, postgres.WrapError(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetLatestByCustomerID(ctx context.Context, externalCustomerID string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE external_customer_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		externalCustomerID)
	if err != nil {
		return nil, postgres.WrapError(err, "subscription")
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetLatestByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	err := r.db.GetQuerier(ctx).GetContext(ctx, &sub,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		userID)
	if err != nil {
		return nil, postgres.WrapError(err, "subscription")
	}
	return &sub, nil
}
