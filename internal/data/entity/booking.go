package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending          BookingStatus = "pending"
	BookingStatusAdminReviewing   BookingStatus = "admin_reviewing"
	BookingStatusApproved         BookingStatus = "approved"
	BookingStatusPaymentPending   BookingStatus = "payment_pending"
	BookingStatusPaymentCompleted BookingStatus = "payment_completed"
	BookingStatusConfirmed        BookingStatus = "confirmed"
	BookingStatusVendorContacted  BookingStatus = "vendor_contacted"
	BookingStatusInProgress       BookingStatus = "in_progress"
	BookingStatusCompleted        BookingStatus = "completed"
	BookingStatusRejected         BookingStatus = "rejected"
	BookingStatusCancelled        BookingStatus = "cancelled"
)

// IsTerminal reports whether no event may leave the status.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusCancelled, BookingStatusRejected:
		return true
	}
	return false
}

// IsSettled reports whether the advance has been recorded for a booking in this status.
func (s BookingStatus) IsSettled() bool {
	switch s {
	case BookingStatusPaymentCompleted, BookingStatusConfirmed, BookingStatusVendorContacted,
		BookingStatusInProgress, BookingStatusCompleted:
		return true
	}
	return false
}

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAdminReviewing, BookingStatusApproved,
		BookingStatusPaymentPending, BookingStatusPaymentCompleted, BookingStatusConfirmed,
		BookingStatusVendorContacted, BookingStatusInProgress, BookingStatusCompleted,
		BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

// CustomerSnapshot is copied from the user profile when the booking is created.
type CustomerSnapshot struct {
	Name  string `db:"customer_name"`
	Email string `db:"customer_email"`
	Phone string `db:"customer_phone"`
}

// BookingPayment holds the advance payment state of a booking.
type BookingPayment struct {
	AdvancePaid      bool       `db:"advance_paid"`
	TransactionID    *string    `db:"transaction_id"`
	AdvancePaidAt    *time.Time `db:"advance_paid_at"`
	GatewayReference *string    `db:"gateway_reference"`
}

type Booking struct {
	Base
	OrderID    string           `db:"order_id"`
	CustomerID uuid.UUID        `db:"customer_id"`
	Customer   CustomerSnapshot `db:"-"`
	ServiceID  uuid.UUID        `db:"service_id"`
	VendorID   uuid.UUID        `db:"vendor_id"`

	SelectedPackage Package `db:"selected_package"`

	TotalPrice       int64 `db:"total_price"`
	AdvancePayment   int64 `db:"advance_payment"`
	RemainingPayment int64 `db:"remaining_payment"`

	EventDate       time.Time `db:"event_date"`
	EventAddress    string    `db:"event_address"`
	EventCity       string    `db:"event_city"`
	SpecialRequests *string   `db:"special_requests"`

	Status              BookingStatus  `db:"booking_status"`
	Payment             BookingPayment `db:"-"`
	VendorContactShared bool           `db:"vendor_contact_shared"`

	CancellationReason *string   `db:"cancellation_reason"`
	CancelledBy        *UserRole `db:"cancelled_by"`
	RejectionReason    *string   `db:"rejection_reason"`
}

// CanDiscloseContact is the contact disclosure gate. Vendor phone and email may
// only leave the service when it returns true.
func (b *Booking) CanDiscloseContact() bool {
	return b.VendorContactShared && b.Payment.AdvancePaid
}

// TransitionPatch carries the optional columns written together with a status change.
type TransitionPatch struct {
	RejectionReason    *string
	CancellationReason *string
	CancelledBy        *UserRole
	GatewayReference   *string
}
