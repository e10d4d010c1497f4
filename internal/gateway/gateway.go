// Package gateway adapts the external payment provider to the booking
// lifecycle. It is the only place that knows the provider wire format: raw
// provider errors and payloads are converted here into ErrUnavailable,
// ErrUnauthenticated or a normalized VerificationResult.
package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrUnavailable covers network failures and non-2xx provider responses.
	// It is transient; callers may retry.
	ErrUnavailable = errors.New("payment gateway unavailable")

	// ErrUnauthenticated is returned for callbacks whose signature does not
	// verify. No field of such a payload may be trusted.
	ErrUnauthenticated = errors.New("gateway callback failed authentication")
)

// FailureKind is the stable reason code shown to customers.
type FailureKind string

const (
	FailureNone            FailureKind = ""
	FailurePaymentFailed   FailureKind = "payment_failed"
	FailureUserCancelled   FailureKind = "user_cancelled"
	FailureBookingNotFound FailureKind = "booking_not_found"
	FailureServerError     FailureKind = "server_error"
)

type InitiateRequest struct {
	BookingID     uuid.UUID
	OrderID       string
	Amount        int64
	Description   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

type Initiation struct {
	RedirectURL      string
	GatewayReference string
}

// VerificationResult is a provider callback or status lookup in normalized form.
type VerificationResult struct {
	OK            bool
	BookingID     uuid.UUID
	TransactionID string
	Amount        int64
	FailureKind   FailureKind

	// Ignored marks authenticated events that carry no lifecycle decision,
	// such as an unpaid session still awaiting an async payment method.
	Ignored bool

	EventID   string
	EventType string
	Reference string
}

// Adapter is implemented by each supported payment provider.
type Adapter interface {
	Name() string
	// SignatureHeader is the HTTP header carrying the callback signature.
	SignatureHeader() string
	Initiate(ctx context.Context, req InitiateRequest) (*Initiation, error)
	ParseCallback(payload []byte, signature string) (*VerificationResult, error)
	Lookup(ctx context.Context, reference string) (*VerificationResult, error)
}
