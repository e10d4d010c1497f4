package entity

import (
	"time"

	"github.com/google/uuid"
)

// CallbackOutcomeError marks a journaled callback whose processing stopped on
// an infrastructure failure. Such a callback is applied again when redelivered.
const CallbackOutcomeError = "error"

// GatewayCallback is the durable journal entry of one received gateway callback.
type GatewayCallback struct {
	BaseSimple
	Provider        string     `db:"provider"`
	EventID         string     `db:"event_id"`
	EventType       string     `db:"event_type"`
	BookingID       *uuid.UUID `db:"booking_id"`
	Payload         []byte     `db:"payload"`
	SignatureValid  bool       `db:"signature_valid"`
	Outcome         *string    `db:"outcome"`
	ProcessingError *string    `db:"processing_error"`
	ProcessedAt     *time.Time `db:"processed_at"`
}
