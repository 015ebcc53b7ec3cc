package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/giro-backend/internal/domain"
)

const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqLockNotAvailable     = "55P03"
	pqUniqueViolation      = "23505"
	pqForeignKeyViolation  = "23503"
)

// mapError attaches the domain category to PostgreSQL failures callers are
// expected to react to. The driver error stays in the chain.
func mapError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqSerializationFailure, pqDeadlockDetected, pqLockNotAvailable:
		return fmt.Errorf("%w: %w", domain.ErrConcurrencyConflict, err)
	case pqUniqueViolation:
		return fmt.Errorf("%w: %w", domain.ErrDuplicate, err)
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	default:
		return err
	}
}

func checkRowsAffected(op string, n int64, err error, zeroErr error) error {
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, zeroErr)
	}
	return nil
}
