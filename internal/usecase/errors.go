package usecase

import (
	"errors"

	"event-marketplace/internal/data/repository"
	"event-marketplace/internal/gateway"
)

var (
	ErrInvalidTransition  = errors.New("invalid booking transition")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrAmountMismatch     = errors.New("paid amount does not match advance payment")
	ErrNotFound           = errors.New("booking not found")
	ErrServiceUnavailable = errors.New("service package no longer available")
	ErrForbidden          = errors.New("not allowed to access this booking")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("gateway callback failed authentication")

	// ErrDuplicateTransaction is shared with the store so that a unique
	// violation surfaces unchanged through errors.Is.
	ErrDuplicateTransaction = repository.ErrDuplicateTransaction
)

// FailureReason maps an engine error to the stable reason code shown on the
// customer facing payment result.
func FailureReason(err error) gateway.FailureKind {
	switch {
	case err == nil:
		return gateway.FailureNone
	case errors.Is(err, ErrNotFound):
		return gateway.FailureBookingNotFound
	case errors.Is(err, ErrAmountMismatch), errors.Is(err, ErrDuplicateTransaction):
		return gateway.FailurePaymentFailed
	default:
		return gateway.FailureServerError
	}
}
