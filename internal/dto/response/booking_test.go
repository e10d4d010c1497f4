package response

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"event-marketplace/internal/data/entity"

	"github.com/google/uuid"
)

func sampleBooking() *entity.Booking {
	return &entity.Booking{
		Base:             entity.Base{ID: uuid.New(), CreatedAt: time.Now(), UpdatedAt: time.Now()},
		OrderID:          "BOOK-20261017-101500-0001",
		CustomerID:       uuid.New(),
		ServiceID:        uuid.New(),
		VendorID:         uuid.New(),
		SelectedPackage:  entity.Package{ID: "premium", Name: "Premium", Price: 150000},
		TotalPrice:       150000,
		AdvancePayment:   15000,
		RemainingPayment: 135000,
		EventDate:        time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		Status:           entity.BookingStatusApproved,
	}
}

func TestNewBookingViewDisclosureGate(t *testing.T) {
	paidAt := time.Now()
	txID := "pi_123"

	tests := []struct {
		name        string
		advancePaid bool
		shared      bool
		contactFor  func(b *entity.Booking) uuid.UUID
		wantContact bool
	}{
		{name: "unpaid", advancePaid: false, shared: false, wantContact: false},
		{name: "shared flag without payment", advancePaid: false, shared: true, wantContact: false},
		{name: "paid but withheld", advancePaid: true, shared: false, wantContact: false},
		{name: "paid and shared", advancePaid: true, shared: true, wantContact: true},
		{
			name:        "contact of another vendor",
			advancePaid: true,
			shared:      true,
			contactFor:  func(*entity.Booking) uuid.UUID { return uuid.New() },
			wantContact: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sampleBooking()
			b.VendorContactShared = tt.shared
			b.Payment.AdvancePaid = tt.advancePaid
			if tt.advancePaid {
				b.Payment.TransactionID = &txID
				b.Payment.AdvancePaidAt = &paidAt
			}

			vendorID := b.VendorID
			if tt.contactFor != nil {
				vendorID = tt.contactFor(b)
			}
			contact := &entity.VendorContact{VendorID: vendorID, Phone: "+8801700000000", Email: "vendor@example.com"}

			view := NewBookingView(b, contact)
			if got := view.VendorContact != nil; got != tt.wantContact {
				t.Fatalf("vendor contact present = %v, want %v", got, tt.wantContact)
			}

			body, err := json.Marshal(view)
			if err != nil {
				t.Fatalf("marshal view: %v", err)
			}
			leaked := strings.Contains(string(body), contact.Phone) || strings.Contains(string(body), contact.Email)
			if leaked != tt.wantContact {
				t.Errorf("contact in JSON = %v, want %v: %s", leaked, tt.wantContact, body)
			}
		})
	}
}

func TestNewBookingViewCopiesAmounts(t *testing.T) {
	b := sampleBooking()
	view := NewBookingView(b, nil)

	if view.TotalPrice != 150000 || view.AdvancePayment != 15000 || view.RemainingPayment != 135000 {
		t.Errorf("unexpected amounts %d/%d/%d", view.TotalPrice, view.AdvancePayment, view.RemainingPayment)
	}
	if view.EventDate != "2026-12-01" {
		t.Errorf("event date = %q, want 2026-12-01", view.EventDate)
	}
	if view.Package.Features == nil {
		t.Error("features should serialize as an empty list")
	}
}
