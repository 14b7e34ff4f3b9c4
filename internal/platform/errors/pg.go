package errors

import (
	stderrs "errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the state store reacts to
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgCannotConnectNow     = "57P03"
)

// SQLState returns the Postgres SQLSTATE found anywhere in err's chain, or ""
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsRetryable reports whether err is a transient Postgres condition
func IsRetryable(err error) bool {
	switch SQLState(err) {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable, pgCannotConnectNow:
		return true
	}
	var ce *pgconn.ConnectError
	return stderrs.As(err, &ce)
}

// FromPostgresf wraps a pgx failure. Transient conditions become Storage so
// they are retried like a failed file write, unique violations become Conflict
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	code := ErrorCodeDB
	switch {
	case IsRetryable(err):
		code = ErrorCodeStorage
	case SQLState(err) == pgUniqueViolation:
		code = ErrorCodeConflict
	}
	return Wrapf(err, code, format, a...)
}
