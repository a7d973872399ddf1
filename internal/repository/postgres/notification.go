package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/masseurmatch/masseurmatch/internal/domain/notification"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/postgres"
)

type notificationRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

func NewNotificationRepository(db *postgres.DB, logger *logger.Logger) notification.Repository {
	return &notificationRepository{db: db, logger: logger}
}

const notificationColumns = `id, user_id, type, title, message, priority, read, action_url, metadata,
	dedup_key, expires_at, read_at, created_at, updated_at`

func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) (bool, error) {
	query := `
		INSERT INTO notifications (
			id,
			user_id,
			type,
			title,
			message,
			priority,
			read,
			action_url,
			metadata,
			dedup_key,
			expires_at,
			created_at,
			updated_at
		) VALUES (
			:id,
			:user_id,
			:type,
			:title,
			:message,
			:priority,
			:read,
			:action_url,
			:metadata,
			:dedup_key,
			:expires_at,
			:created_at,
			:updated_at
		)
		ON CONFLICT (dedup_key) DO NOTHING
	`
	res, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, n)
	if err != nil {
		return false, postgres.WrapError(err, "notification")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, postgres.WrapError(err, "notification")
	}
	return rows > 0, nil
}

func (r *notificationRepository) Get(ctx context.Context, id string) (*notification.Notification, error) {
	var n notification.Notification
	err := r.db.GetQuerier(ctx).GetContext(ctx, &n,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id)
	if err != nil {
		return nil, postgres.WrapError(err, "notification")
	}
	return &n, nil
}

func (r *notificationRepository) where(filter *notification.Filter) (string, []interface{}) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	if filter.UnreadOnly {
		conditions = append(conditions, "NOT read")
	}
	if !filter.Now.IsZero() {
		args = append(args, filter.Now)
		conditions = append(conditions, fmt.Sprintf("(expires_at IS NULL OR expires_at > $%d)", len(args)))
	}
	return strings.Join(conditions, " AND "), args
}

func (r *notificationRepository) List(ctx context.Context, filter *notification.Filter) ([]*notification.Notification, error) {
	where, args := r.where(filter)
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM notifications WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		notificationColumns, where, len(args)-1, len(args))

	var items []*notification.Notification
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &items, query, args...); err != nil {
		return nil, postgres.WrapError(err, "notification")
	}
	return items, nil
}

func (r *notificationRepository) Count(ctx context.Context, filter *notification.Filter) (int, error) {
	where, args := r.where(filter)
	var count int
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE `+where, args...); err != nil {
		return 0, postgres.WrapError(err, "notification")
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE notifications SET read = TRUE, read_at = COALESCE(read_at, $1), updated_at = $1
		 WHERE id = $2 AND user_id = $3`,
		at, id, userID)
	if err != nil {
		return postgres.WrapError(err, "notification")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("notification not found").
			WithHint("Notification not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int, error) {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`UPDATE notifications SET read = TRUE, read_at = $1, updated_at = $1 WHERE user_id = $2 AND NOT read`,
		at, userID)
	if err != nil {
		return 0, postgres.WrapError(err, "notification")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *notificationRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.GetQuerier(ctx).ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return postgres.WrapError(err, "notification")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ierr.NewError("notification not found").
			WithHint("Notification not found").
			Mark(ierr.ErrNotFound)
	}
	return nil
}
