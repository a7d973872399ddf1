package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/rate"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

type rateRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewRateRepository(db *postgres.DB, logger *logger.Logger) rate.Repository {
	return &rateRepository{db: db, logger: logger}
}

const rateColumns = `id, profile_id, context, duration_minutes, price_cents, is_active, is_base_rate,
	deactivated_at, created_at, updated_at`

func (r *rateRepository) Create(ctx context.Context, rt *rate.Rate) error {
	query := `
		INSERT INTO rates (
			id,
			profile_id,
			context,
			duration_minutes,
			price_cents,
			is_active,
			is_base_rate,
			created_at,
			updated_at
		) VALUES (
			:id,
			:profile_id,
			:context,
			:duration_minutes,
			:price_cents,
			:is_active,
			:is_base_rate,
			:created_at,
			:updated_at
		)
	`
	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, rt); err != nil {
		return postgres.WrapError(err, "rate")
	}
	return nil
}

func (r *rateRepository) Get(ctx context.Context, id string) (*rate.Rate, error) {
	var rt rate.Rate
	err := r.db.GetQuerier(ctx).GetContext(ctx, &rt,
		`SELECT `+rateColumns+` FROM rates WHERE id = $1`, id)
	if err != nil {
		return nil, postgres.WrapError(err, "rate")
	}
	return &rt, nil
}

func (r *rateRepository) List(ctx context.Context, filter *rate.Filter) ([]*rate.Rate, error) {
	if filter == nil || filter.ProfileID == "" {
		return nil, ierr.NewError("profile id is required").
			WithHint("Profile is required to list rates").
			Mark(ierr.ErrValidation)
	}

	conditions := []string{"profile_id = $1"}
	args := []interface{}{filter.ProfileID}
	if filter.Context != nil {
		args = append(args, *filter.Context)
		conditions = append(conditions, fmt.Sprintf("context = $%d", len(args)))
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	query := `SELECT ` + rateColumns + ` FROM rates WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY context, duration_minutes, created_at`

	var rates []*rate.Rate
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &rates, query, args...); err != nil {
		return nil, postgres.WrapError(err, "rate")
	}
	return rates, nil
}

func (r *rateRepository) Update(ctx context.Context, rt *rate.Rate) error {
	query := `
		UPDATE rates SET
			duration_minutes = :duration_minutes,
			price_cents = :price_cents,
			is_base_rate = :is_base_rate,
			updated_at = :updated_at
		WHERE id = :id AND is_active
	`
	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, rt)
	if err != nil {
		return postgres.WrapError(err, "rate")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("rate not found").
			WithHint("Rate not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *rateRepository) ClearBaseRate(ctx context.Context, profileID string, rateCtx types.RateContext) error {
	_, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE rates SET is_base_rate = FALSE, updated_at = $1
		 WHERE profile_id = $2 AND context = $3 AND is_active AND is_base_rate`,
		time.Now().UTC(), profileID, rateCtx)
	return postgres.WrapError(err, "rate")
}

func (r *rateRepository) Deactivate(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE rates SET is_active = FALSE, is_base_rate = FALSE, deactivated_at = $1, updated_at = $1
		 WHERE id = $2 AND is_active`,
		at, id)
	if err != nil {
		return postgres.WrapError(err, "rate")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("rate not found").
			WithHint("Rate not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}
