package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/masseurmatch/masseurmatch/internal/config"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"go.uber.org/fx"
)

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Querier is implemented by both *sqlx.DB and *sqlx.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	NamedQuery(query string, arg interface{}) (*sqlx.Rows, error)
}

// NewDB opens the pool and waits for the database with exponential backoff.
func NewDB(cfg *config.Configuration, log *logger.Logger) (*DB, error) {
	dsn := cfg.Postgres.GetDSN()

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = cfg.Postgres.ConnectTimeout
	if b.MaxElapsedTime == 0 {
		b.MaxElapsedTime = 30 * time.Second
	}

	var db *sqlx.DB
	err := backoff.RetryNotify(func() error {
		var err error
		db, err = sqlx.Connect("postgres", dsn)
		return err
	}, b, func(err error, wait time.Duration) {
		log.Warnw("postgres not reachable, retrying",
			"error", err,
			"retry_in", wait.String(),
		)
	})
	if err != nil {
		return nil, err
	}

	if cfg.Postgres.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	}
	if cfg.Postgres.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	}
	if cfg.Postgres.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Infow("connected to postgres",
		"host", cfg.Postgres.Host,
		"database", cfg.Postgres.DBName,
	)

	return &DB{DB: db, logger: log}, nil
}

// Module provides the database handle and closes it on shutdown
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewDB,
			func(db *DB) Transactioner { return db },
		),
		fx.Invoke(func(lc fx.Lifecycle, db *DB) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					db.Close()
					return nil
				},
			})
		}),
	)
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// GetQuerier returns either the transaction from context or the base DB
func (db *DB) GetQuerier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}

// Ping checks connectivity for the health endpoint
func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}
