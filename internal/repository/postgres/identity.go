package postgres

import (
	"context"

	"github.com/masseurmatch/masseurmatch/internal/domain/identity"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
)

type identityRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewIdentityRepository(db *postgres.DB, logger *logger.Logger) identity.Repository {
	return &identityRepository{db: db, logger: logger}
}

func (r *identityRepository) Upsert(ctx context.Context, v *identity.Verification) (bool, error) {
	query := `
		INSERT INTO identity_verifications (
			user_id,
			status,
			external_session_id,
			verified_at,
			failure_reason,
			last_event_at,
			created_at,
			updated_at
		) VALUES (
			:user_id,
			:status,
			:external_session_id,
			:verified_at,
			:failure_reason,
			:last_event_at,
			:created_at,
			:updated_at
		)
		ON CONFLICT (user_id) DO UPDATE SET
			status = EXCLUDED.status,
			external_session_id = EXCLUDED.external_session_id,
			verified_at = EXCLUDED.verified_at,
			failure_reason = EXCLUDED.failure_reason,
			last_event_at = EXCLUDED.last_event_at,
			updated_at = EXCLUDED.updated_at
		WHERE identity_verifications.last_event_at IS NULL OR identity_verifications.last_event_at <= EXCLUDED.last_event_at
	`
	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, v)
	if err != nil {
		return false, postgres.WrapError(err, "identity verification")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, postgres.WrapError(err, "identity verification")
	}
	return n > 0, nil
}

func (r *identityRepository) Get(ctx context.Context, userID string) (*identity.Verification, error) {
	var v identity.Verification
	err := r.db.GetQuerier(ctx).GetContext(ctx, &v,
		`SELECT user_id, status, external_session_id, verified_at, failure_reason, last_event_at, created_at, updated_at
		 FROM identity_verifications WHERE user_id = $1`, userID)
	if err != nil {
		return nil, postgres.WrapError(err, "identity verification")
	}
	return &v, nil
}
