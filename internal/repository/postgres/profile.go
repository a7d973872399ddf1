package postgres

import (
	"context"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/profile"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
)

type profileRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewProfileRepository(db *postgres.DB, logger *logger.Logger) profile.Repository {
	return &profileRepository{db: db, logger: logger}
}

const profileColumns = `id, user_id, display_name, stripe_customer_id, created_at, updated_at`

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p,
		`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1`, userID)
	if err != nil {
		return nil, postgres.WrapError(err, "profile")
	}
	return &p, nil
}

func (r *profileRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.GetQuerier(ctx).GetContext(ctx, &p,
		`SELECT `+profileColumns+` FROM profiles WHERE stripe_customer_id = $1`, customerID)
	if err != nil {
		return nil, postgres.WrapError(err, "profile")
	}
	return &p, nil
}

func (r *profileRepository) SetStripeCustomerID(ctx context.Context, profileID, customerID string) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE profiles SET stripe_customer_id = $1, updated_at = $2 WHERE id = $3`,
		customerID, time.Now().UTC(), profileID)
	return postgres.WrapError(err, "profile")
}
