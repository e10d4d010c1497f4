// Package notification delivers booking lifecycle events to customers and
// vendors. Delivery is best effort and never affects booking state.
package notification

import (
	"time"

	"event-marketplace/internal/data/entity"

	"github.com/google/uuid"
)

type Event string

const (
	EventBookingApproved  Event = "booking.approved"
	EventPaymentCompleted Event = "booking.payment_completed"
	EventBookingRejected  Event = "booking.rejected"
	EventBookingCancelled Event = "booking.cancelled"
)

// Message is the payload published for every lifecycle event.
type Message struct {
	ID            uuid.UUID            `json:"id"`
	Event         Event                `json:"event"`
	BookingID     uuid.UUID            `json:"booking_id"`
	OrderID       string               `json:"order_id"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	CustomerName  string               `json:"customer_name"`
	CustomerEmail string               `json:"customer_email"`
	VendorID      uuid.UUID            `json:"vendor_id"`
	Status        entity.BookingStatus `json:"status"`
	Reason        *string              `json:"reason,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewMessage(event Event, booking *entity.Booking, reason *string) Message {
	return Message{
		ID:            uuid.New(),
		Event:         event,
		BookingID:     booking.ID,
		OrderID:       booking.OrderID,
		CustomerID:    booking.CustomerID,
		CustomerName:  booking.Customer.Name,
		CustomerEmail: booking.Customer.Email,
		VendorID:      booking.VendorID,
		Status:        booking.Status,
		Reason:        reason,
		OccurredAt:    time.Now().UTC(),
	}
}
