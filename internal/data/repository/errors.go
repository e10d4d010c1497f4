package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateTransaction is returned when a gateway transaction id is already
// bound to another booking. It is raised by the unique index, so it holds
// across server instances.
var ErrDuplicateTransaction = errors.New("transaction id already bound to another booking")

const (
	uniqueViolationCode       = "23505"
	transactionIDConstraint   = "bookings_transaction_id_key"
	callbackEventIDConstraint = "gateway_callbacks_provider_event_key"
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolationCode && (constraint == "" || pgErr.ConstraintName == constraint)
}
