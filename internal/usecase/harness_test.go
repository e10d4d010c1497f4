package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"event-marketplace/internal/data/entity"
	"event-marketplace/internal/data/repository"
	"event-marketplace/internal/dto/request"
	"event-marketplace/internal/gateway"
	"event-marketplace/internal/notification"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

type harness struct {
	bookings  *fakeBookingRepo
	catalog   *fakeCatalog
	callbacks *fakeCallbacks
	gateway   *fakeGateway
	notifier  *fakeNotifier

	booking   BookingService
	lifecycle LifecycleService

	customer Actor
	other    Actor
	admin    Actor
	service  *entity.Service
	contact  *entity.VendorContact
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)

	phone := "+8801711000000"
	customer := &entity.User{Base: entity.Base{ID: uuid.New()}, Username: "Karim", Email: "karim@example.com", Phone: &phone, Role: entity.RoleCustomer, IsActive: true}
	other := &entity.User{Base: entity.Base{ID: uuid.New()}, Username: "Nadia", Email: "nadia@example.com", Role: entity.RoleCustomer, IsActive: true}
	admin := &entity.User{Base: entity.Base{ID: uuid.New()}, Username: "ops", Email: "ops@example.com", Role: entity.RoleAdmin, IsActive: true}

	vendorID := uuid.New()
	service := &entity.Service{
		ID:          uuid.New(),
		VendorID:    vendorID,
		CompanyName: "Dhaka Sound & Light",
		Packages: []entity.Package{
			{ID: "basic", Name: "Basic", Price: 50000, Features: []string{"PA system"}},
			{ID: "premium", Name: "Premium", Price: 150000, Features: []string{"PA system", "Stage lights", "Crew of 6"}},
		},
	}
	contact := &entity.VendorContact{VendorID: vendorID, Phone: "+8801999000111", Email: "bookings@dsl.example"}

	h := &harness{
		bookings:  newFakeBookingRepo(),
		catalog:   &fakeCatalog{services: map[uuid.UUID]*entity.Service{service.ID: service}, contacts: map[uuid.UUID]*entity.VendorContact{vendorID: contact}},
		callbacks: newFakeCallbacks(),
		gateway:   &fakeGateway{},
		notifier:  newFakeNotifier(),
		customer:  Actor{UserID: customer.ID, Role: entity.RoleCustomer},
		other:     Actor{UserID: other.ID, Role: entity.RoleCustomer},
		admin:     Actor{UserID: admin.ID, Role: entity.RoleAdmin},
		service:   service,
		contact:   contact,
	}

	repo := &repository.Repository{
		User:     fakeUsers{customer.ID: customer, other.ID: other, admin.ID: admin},
		Catalog:  h.catalog,
		Booking:  h.bookings,
		Callback: h.callbacks,
	}

	bs := NewBookingService(repo, log).(*bookingService)
	bs.now = func() time.Time { return fixedNow }
	ls := NewLifecycleService(repo, h.gateway, h.notifier, log).(*lifecycleService)
	ls.now = func() time.Time { return fixedNow }

	h.booking = bs
	h.lifecycle = ls
	return h
}

func (h *harness) createRequest(packageID string) *request.CreateBookingRequest {
	return &request.CreateBookingRequest{
		ServiceID:    h.service.ID.String(),
		PackageID:    packageID,
		EventDate:    "2026-12-20",
		EventAddress: "House 12, Road 7, Gulshan",
		EventCity:    "Dhaka",
	}
}

func (h *harness) create(t *testing.T) uuid.UUID {
	t.Helper()
	view, err := h.booking.CreateBooking(context.Background(), h.customer.UserID, h.createRequest("premium"))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	return uuid.MustParse(view.ID)
}

func (h *harness) approved(t *testing.T) uuid.UUID {
	t.Helper()
	id := h.create(t)
	if _, err := h.lifecycle.AdminDecide(context.Background(), id, &request.AdminDecisionRequest{Decision: "approve"}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	h.notifier.expect(t, notification.EventBookingApproved)
	return id
}

func (h *harness) paymentPending(t *testing.T) uuid.UUID {
	t.Helper()
	id := h.approved(t)
	if _, err := h.lifecycle.InitiatePayment(context.Background(), h.customer, id); err != nil {
		t.Fatalf("initiate payment: %v", err)
	}
	return id
}

func (h *harness) stored(t *testing.T, id uuid.UUID) *entity.Booking {
	t.Helper()
	b, _ := h.bookings.FindByID(context.Background(), id)
	if b == nil {
		t.Fatalf("booking %s not stored", id)
	}
	return b
}

func success(id uuid.UUID, txID string, amount int64, eventID string) *gateway.VerificationResult {
	return &gateway.VerificationResult{
		OK:            true,
		BookingID:     id,
		TransactionID: txID,
		Amount:        amount,
		EventID:       eventID,
		EventType:     "payment.succeeded",
	}
}

func failure(id uuid.UUID, kind gateway.FailureKind, eventID string) *gateway.VerificationResult {
	return &gateway.VerificationResult{
		BookingID:   id,
		FailureKind: kind,
		EventID:     eventID,
		EventType:   "payment.failed",
	}
}

func payload(t *testing.T, result *gateway.VerificationResult) []byte {
	t.Helper()
	body, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	return body
}
