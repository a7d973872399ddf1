package postgres

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/webhookevent"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

type webhookEventRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return &webhookEventRepository{db: db, logger: logger}
}

func (r *webhookEventRepository) Begin(ctx context.Context, e *webhookevent.Event) (*webhookevent.Event, error) {
	var stored webhookevent.Event
	err := r.db.GetQuerier(ctx).GetContext(ctx, &stored, `
		INSERT INTO webhook_events (id, provider, type, status, attempts, received_at)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (id) DO UPDATE SET
			attempts = webhook_events.attempts + 1,
			status = CASE WHEN webhook_events.status = 'processed' THEN webhook_events.status ELSE EXCLUDED.status END
		RETURNING id, provider, type, status, attempts, last_error, received_at, processed_at`,
		e.ID, e.Provider, e.Type, types.WebhookEventStatusProcessing, e.ReceivedAt)
	if err != nil {
		return nil, postgres.WrapError(err, "webhook event")
	}
	return &stored, nil
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE webhook_events SET status = $1, processed_at = $2, last_error = NULL WHERE id = $3`,
		types.WebhookEventStatusProcessed, at, id)
	return postgres.WrapError(err, "webhook event")
}

func (r *webhookEventRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE webhook_events SET status = $1, last_error = $2 WHERE id = $3 AND status <> $4`,
		types.WebhookEventStatusFailed, reason, id, types.WebhookEventStatusProcessed)
	return postgres.WrapError(err, "webhook event")
}
