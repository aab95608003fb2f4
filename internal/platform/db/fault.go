package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/ehr/records/pkg/result"
)

// IsNoRows reports whether err is the driver's "no rows in result set" signal.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// DriverMessage returns the message of a fault reported by the database
// itself: a server error or a single-row statement that matched nothing.
// Transport, context and decoding failures are not driver faults.
func DriverMessage(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message, true
	}
	if IsNoRows(err) {
		return pgx.ErrNoRows.Error(), true
	}
	return "", false
}

// Fault converts a repository error into a failed result. Driver faults carry
// prefix plus the driver message; anything else gets the generic message.
// Both are logged with the raw error.
func Fault[T any](logger zerolog.Logger, err error, prefix, generic string) result.Result[T] {
	if msg, ok := DriverMessage(err); ok {
		evt := logger.Error().Err(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			evt = evt.Str("sqlstate", pgErr.Code)
		}
		evt.Msg(prefix)
		return result.Fail[T](result.FaultDriver, prefix+": "+msg)
	}
	logger.Error().Err(err).Msg(generic)
	return result.Fail[T](result.FaultUnexpected, generic)
}
