package response

import (
	"time"

	"event-marketplace/internal/data/entity"
)

type CustomerView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PackageView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    int64    `json:"price"`
	Features []string `json:"features"`
}

type PaymentView struct {
	AdvancePaid   bool       `json:"advance_paid"`
	TransactionID *string    `json:"transaction_id,omitempty"`
	AdvancePaidAt *time.Time `json:"advance_paid_at,omitempty"`
}

type VendorContactView struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type BookingView struct {
	ID         string       `json:"id"`
	OrderID    string       `json:"order_id"`
	CustomerID string       `json:"customer_id"`
	Customer   CustomerView `json:"customer"`
	ServiceID  string       `json:"service_id"`
	VendorID   string       `json:"vendor_id"`
	Package    PackageView  `json:"selected_package"`

	TotalPrice       int64 `json:"total_price"`
	AdvancePayment   int64 `json:"advance_payment"`
	RemainingPayment int64 `json:"remaining_payment"`

	EventDate       string  `json:"event_date"`
	EventAddress    string  `json:"event_address"`
	EventCity       string  `json:"event_city"`
	SpecialRequests *string `json:"special_requests,omitempty"`

	Status              entity.BookingStatus `json:"status"`
	Payment             PaymentView          `json:"payment"`
	VendorContactShared bool                 `json:"vendor_contact_shared"`
	VendorContact       *VendorContactView   `json:"vendor_contact,omitempty"`

	CancellationReason *string          `json:"cancellation_reason,omitempty"`
	CancelledBy        *entity.UserRole `json:"cancelled_by,omitempty"`
	RejectionReason    *string          `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBookingView is the only place vendor contact details are copied into an
// outbound structure. The contact is attached only when the booking passes
// the disclosure gate and the contact belongs to the booked vendor.
func NewBookingView(b *entity.Booking, contact *entity.VendorContact) BookingView {
	features := b.SelectedPackage.Features
	if features == nil {
		features = []string{}
	}

	view := BookingView{
		ID:         b.ID.String(),
		OrderID:    b.OrderID,
		CustomerID: b.CustomerID.String(),
		Customer: CustomerView{
			Name:  b.Customer.Name,
			Email: b.Customer.Email,
			Phone: b.Customer.Phone,
		},
		ServiceID: b.ServiceID.String(),
		VendorID:  b.VendorID.String(),
		Package: PackageView{
			ID:       b.SelectedPackage.ID,
			Name:     b.SelectedPackage.Name,
			Price:    b.SelectedPackage.Price,
			Features: features,
		},
		TotalPrice:       b.TotalPrice,
		AdvancePayment:   b.AdvancePayment,
		RemainingPayment: b.RemainingPayment,
		EventDate:        b.EventDate.Format("2006-01-02"),
		EventAddress:     b.EventAddress,
		EventCity:        b.EventCity,
		SpecialRequests:  b.SpecialRequests,
		Status:           b.Status,
		Payment: PaymentView{
			AdvancePaid:   b.Payment.AdvancePaid,
			TransactionID: b.Payment.TransactionID,
			AdvancePaidAt: b.Payment.AdvancePaidAt,
		},
		VendorContactShared: b.VendorContactShared,
		CancellationReason:  b.CancellationReason,
		CancelledBy:         b.CancelledBy,
		RejectionReason:     b.RejectionReason,
		CreatedAt:           b.CreatedAt,
		UpdatedAt:           b.UpdatedAt,
	}

	if contact != nil && contact.VendorID == b.VendorID && b.CanDiscloseContact() {
		view.VendorContact = &VendorContactView{
			Phone: contact.Phone,
			Email: contact.Email,
		}
	}

	return view
}

type PaymentInitiationResponse struct {
	BookingID   string `json:"booking_id"`
	RedirectURL string `json:"redirect_url"`
}

// PaymentStatusResponse reports the result of polling the gateway for a booking.
type PaymentStatusResponse struct {
	Outcome       string      `json:"outcome"`
	FailureReason string      `json:"failure_reason,omitempty"`
	Booking       BookingView `json:"booking"`
}
