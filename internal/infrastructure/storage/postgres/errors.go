package postgres

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"posledger/internal/core/apperror"
)

// PostgreSQL error codes the sale core reports on.
const (
	PgForeignKeyViolation  = "23503"
	PgUniqueViolation      = "23505"
	PgCheckViolation       = "23514"
	PgSerializationFailure = "40001"
	PgDeadlockDetected     = "40P01"
	PgLockNotAvailable     = "55P03"
	PgQueryCanceled        = "57014"
)

// WrapError converts a driver error into a storage AppError.
// AppErrors pass through untouched; pg error codes are kept as details.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}

	appErr := apperror.NewStorage(op, err)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		appErr.WithDetail("pg_code", pgErr.Code)
		if pgErr.ConstraintName != "" {
			appErr.WithDetail("constraint", pgErr.ConstraintName)
		}
		if pgErr.Code == PgQueryCanceled {
			appErr.Code = apperror.CodeTimeout
			appErr.HTTPStatus = http.StatusGatewayTimeout
		}
	}

	return appErr
}

// IsNoRows reports whether err is pgx.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
