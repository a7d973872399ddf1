package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint failure
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}

// WrapError marks driver errors with the matching sentinel. entity names the
// record in hints, e.g. "rate".
func WrapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			Mark(ierr.ErrNotFound)
	}
	if IsUniqueViolation(err) {
		return ierr.WithError(err).
			WithHintf("%s already exists", entity).
			Mark(ierr.ErrAlreadyExists)
	}
	return ierr.WithError(err).
		WithHintf("Failed to persist %s", entity).
		Mark(ierr.ErrDatabase)
}
