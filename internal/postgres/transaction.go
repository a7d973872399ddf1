package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

// Transactioner runs fn inside a transaction carried by the context.
// Services depend on this instead of *DB so they can be tested in memory.
type Transactioner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxKey is the context key type for storing transaction
type TxKey struct{}

// Tx wraps sqlx.Tx with an id used in query traces
type Tx struct {
	*sqlx.Tx
	ID string
}

// GetTx retrieves a transaction from the context if it exists
func GetTx(ctx context.Context) (*Tx, bool) {
	tx, ok := ctx.Value(TxKey{}).(*Tx)
	return tx, ok
}

// WithTx runs fn in a read-committed transaction. A transaction already in
// ctx is reused and left for the outermost caller to commit.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}

	sqlxTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Tx{Tx: sqlxTx, ID: types.GenerateUUID()}
	db.logger.Debugw("starting new transaction", "tx_id", tx.ID)

	defer func() {
		if v := recover(); v != nil {
			db.logger.Errorw("rolling back transaction due to panic",
				"tx_id", tx.ID,
				"panic", v,
			)
			_ = tx.Rollback()
			panic(v)
		}
	}()

	if err := fn(context.WithValue(ctx, TxKey{}, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			db.logger.Errorw("failed to roll back transaction",
				"tx_id", tx.ID,
				"error", rerr,
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	db.logger.Debugw("committed transaction", "tx_id", tx.ID)
	return nil
}
