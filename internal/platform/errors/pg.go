package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes with a specific mapping
const (
	pgErrUniqueViolation           = "23505"
	pgErrForeignKeyViolation       = "23503"
	pgErrNotNullViolation          = "23502"
	pgErrCheckViolation            = "23514"
	pgErrStringDataRightTruncation = "22001"
	pgErrInvalidTextRepresentation = "22P02"
	pgErrInvalidDatetimeFormat     = "22007"
	pgErrSerializationFailure      = "40001"
	pgErrDeadlockDetected          = "40P01"
	pgErrLockNotAvailable          = "55P03"
	pgErrQueryCanceled             = "57014"
	pgErrReadOnlySQLTransaction    = "25006"
	pgErrCannotConnectNow          = "57P03"
)

var codeBySQLState = map[string]ErrorCode{
	pgErrUniqueViolation:           ErrorCodeDuplicateKey,
	pgErrForeignKeyViolation:       ErrorCodeInvalidArgument,
	pgErrNotNullViolation:          ErrorCodeValidation,
	pgErrCheckViolation:            ErrorCodeValidation,
	pgErrStringDataRightTruncation: ErrorCodeInvalidArgument,
	pgErrInvalidTextRepresentation: ErrorCodeInvalidArgument,
	pgErrInvalidDatetimeFormat:     ErrorCodeInvalidArgument,
	pgErrQueryCanceled:             ErrorCodeTimeout,
	pgErrReadOnlySQLTransaction:    ErrorCodeUnavailable,
	pgErrCannotConnectNow:          ErrorCodeUnavailable,
}

// ExtractPgError returns the *pgconn.PgError in err's chain
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether err is a Postgres error with SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgErrUniqueViolation) }

// IsForeignKeyViolation reports a foreign key violation
func IsForeignKeyViolation(err error) bool { return IsSQLState(err, pgErrForeignKeyViolation) }

// DBErrorCode maps a Postgres error to an ErrorCode
// ok is false when err carries no PgError and is not pgx.ErrNoRows
func DBErrorCode(err error) (ErrorCode, bool) {
	if stderrs.Is(err, pgx.ErrNoRows) {
		return ErrorCodeNotFound, true
	}
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	if c, ok := codeBySQLState[pgErr.Code]; ok {
		return c, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps err with its mapped code; nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// AttachFieldFromPg sets the field from the PgError column, or from the constraint name
// suffix: contacts_tenant_phone_key gives phone
func AttachFieldFromPg(err error) error {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return err
	}
	if col := strings.TrimSpace(pgErr.ColumnName); col != "" {
		return WithField(err, col)
	}
	parts := strings.Split(strings.TrimSpace(pgErr.ConstraintName), "_")
	for i := len(parts) - 1; i >= 0; i-- {
		switch parts[i] {
		case "", "key", "fkey", "pkey", "check", "idx":
			continue
		}
		if i == 0 {
			break
		}
		return WithField(err, parts[i])
	}
	return err
}

// FromPostgresWithField is FromPostgres followed by AttachFieldFromPg
func FromPostgresWithField(err error, msg string) error {
	return AttachFieldFromPg(FromPostgres(err, msg))
}

// IsRetryable reports Postgres contention worth retrying
// local cancellation never is
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgErr, ok := ExtractPgError(err); ok {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlockDetected, pgErrLockNotAvailable:
			return true
		}
		return false
	}
	s := strings.ToLower(Root(err).Error())
	for _, frag := range []string{
		"commit unexpectedly resulted in rollback",
		"deadlock detected",
		"could not serialize access",
		"canceling statement due to lock timeout",
		"terminating connection due to administrator command",
	} {
		if strings.Contains(s, frag) {
			return true
		}
	}
	return false
}
