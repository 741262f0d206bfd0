package postgres

import (
	"context"
	"errors"

	pkgerrors "ideabox/pkg/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// unique_violation
const pgUniqueViolation = "23505"

// mapError converts pgx failures to the storage kind. Context errors and
// AppErrors pass through unchanged.
func mapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	if pkgerrors.IsAppError(err) {
		return err
	}

	appErr := pkgerrors.NewStorageError(operation, err)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		appErr = appErr.WithDetail("pg_code", pgErr.Code)
	}
	return appErr
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
