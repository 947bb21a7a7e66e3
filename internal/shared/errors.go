package shared

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the caller lost a row-level race; the same
	// operation is safe to retry without re-validating input.
	ErrConflict = errors.New("concurrent update conflict")
)

// serialization_failure and deadlock_detected.
var retryableSQLStates = map[string]bool{
	"40001": true,
	"40P01": true,
}

// MapTxError converts retryable PostgreSQL transaction errors into
// ErrConflict so callers can distinguish races from validation and state
// errors. Other errors pass through untouched.
func MapTxError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && retryableSQLStates[pgErr.Code] {
		return ErrConflict
	}
	return err
}
