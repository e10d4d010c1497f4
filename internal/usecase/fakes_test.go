package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"event-marketplace/internal/data/entity"
	"event-marketplace/internal/data/repository"
	"event-marketplace/internal/gateway"
	"event-marketplace/internal/notification"

	"github.com/google/uuid"
)

// fakeBookingRepo mirrors the conditional update semantics of the Postgres
// store: a guarded write either matches and applies atomically or returns
// (nil, nil).
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*entity.Booking
	order    []uuid.UUID

	// settleErr, when set, fails the next SettleAdvance call.
	settleErr error
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*entity.Booking)}
}

func clone(b *entity.Booking) *entity.Booking {
	c := *b
	return &c
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bookings[booking.ID]; ok {
		return fmt.Errorf("booking %s exists", booking.ID)
	}
	f.bookings[booking.ID] = clone(booking)
	f.order = append(f.order, booking.ID)
	return nil
}

func (f *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, nil
	}
	return clone(b), nil
}

func (f *fakeBookingRepo) FindByTransactionID(_ context.Context, transactionID string) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Payment.TransactionID != nil && *b.Payment.TransactionID == transactionID {
			return clone(b), nil
		}
	}
	return nil, nil
}

func (f *fakeBookingRepo) filter(keep func(*entity.Booking) bool) []*entity.Booking {
	var out []*entity.Booking
	for i := len(f.order) - 1; i >= 0; i-- {
		if b := f.bookings[f.order[i]]; keep(b) {
			out = append(out, clone(b))
		}
	}
	return out
}

func page(all []*entity.Booking, limit, offset int) []*entity.Booking {
	if offset >= len(all) {
		return nil
	}
	end := min(offset+limit, len(all))
	return all[offset:end]
}

func (f *fakeBookingRepo) FindByCustomerID(_ context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return page(f.filter(func(b *entity.Booking) bool { return b.CustomerID == customerID }), limit, offset), nil
}

func (f *fakeBookingRepo) CountByCustomerID(_ context.Context, customerID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.filter(func(b *entity.Booking) bool { return b.CustomerID == customerID }))), nil
}

func (f *fakeBookingRepo) FindByStatus(_ context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return page(f.filter(func(b *entity.Booking) bool { return status == nil || b.Status == *status }), limit, offset), nil
}

func (f *fakeBookingRepo) CountByStatus(_ context.Context, status *entity.BookingStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.filter(func(b *entity.Booking) bool { return status == nil || b.Status == *status }))), nil
}

func (f *fakeBookingRepo) Transition(_ context.Context, id uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus, patch entity.TransitionPatch) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || !slices.Contains(from, b.Status) {
		return nil, nil
	}

	b.Status = to
	if patch.RejectionReason != nil {
		b.RejectionReason = patch.RejectionReason
	}
	if patch.CancellationReason != nil {
		b.CancellationReason = patch.CancellationReason
	}
	if patch.CancelledBy != nil {
		b.CancelledBy = patch.CancelledBy
	}
	if patch.GatewayReference != nil {
		b.Payment.GatewayReference = patch.GatewayReference
	}
	b.UpdatedAt = time.Now()
	return clone(b), nil
}

func (f *fakeBookingRepo) SettleAdvance(_ context.Context, id uuid.UUID, from []entity.BookingStatus, transactionID string, paidAt time.Time) (*entity.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.settleErr; err != nil {
		f.settleErr = nil
		return nil, err
	}
	b, ok := f.bookings[id]
	if !ok || !slices.Contains(from, b.Status) || b.Payment.AdvancePaid {
		return nil, nil
	}
	for otherID, other := range f.bookings {
		if otherID != id && other.Payment.TransactionID != nil && *other.Payment.TransactionID == transactionID {
			return nil, repository.ErrDuplicateTransaction
		}
	}

	tx := transactionID
	b.Status = entity.BookingStatusPaymentCompleted
	b.Payment.AdvancePaid = true
	b.Payment.TransactionID = &tx
	b.Payment.AdvancePaidAt = &paidAt
	b.VendorContactShared = true
	b.UpdatedAt = time.Now()
	return clone(b), nil
}

func (f *fakeBookingRepo) failNextSettle(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settleErr = err
}

// set overwrites a stored booking, for arranging states directly.
func (f *fakeBookingRepo) set(t *testing.T, id uuid.UUID, mutate func(*entity.Booking)) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		t.Fatalf("booking %s not stored", id)
	}
	mutate(b)
}

type fakeCatalog struct {
	services map[uuid.UUID]*entity.Service
	contacts map[uuid.UUID]*entity.VendorContact
}

func (f *fakeCatalog) FindServiceByID(_ context.Context, id uuid.UUID) (*entity.Service, error) {
	return f.services[id], nil
}

func (f *fakeCatalog) FindVendorContact(_ context.Context, vendorID uuid.UUID) (*entity.VendorContact, error) {
	return f.contacts[vendorID], nil
}

type fakeUsers map[uuid.UUID]*entity.User

func (f fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return f[id], nil
}

type fakeCallbacks struct {
	mu      sync.Mutex
	records map[string]*entity.GatewayCallback
}

func newFakeCallbacks() *fakeCallbacks {
	return &fakeCallbacks{records: make(map[string]*entity.GatewayCallback)}
}

func (f *fakeCallbacks) Record(_ context.Context, callback *entity.GatewayCallback) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := callback.Provider + "/" + callback.EventID
	if existing, ok := f.records[key]; ok {
		processed := existing.ProcessedAt != nil && (existing.Outcome == nil || *existing.Outcome != entity.CallbackOutcomeError)
		return processed, nil
	}
	c := *callback
	f.records[key] = &c
	return false, nil
}

func (f *fakeCallbacks) MarkProcessed(_ context.Context, provider, eventID, outcome string, processingErr *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.records[provider+"/"+eventID]
	if !ok {
		return fmt.Errorf("callback %s not found", eventID)
	}
	now := time.Now()
	c.Outcome = &outcome
	c.ProcessingError = processingErr
	c.ProcessedAt = &now
	return nil
}

func (f *fakeCallbacks) get(eventID string) *entity.GatewayCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[fakeProvider+"/"+eventID]
}

func (f *fakeCallbacks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

const (
	fakeProvider   = "fake"
	validSignature = "valid-signature"
)

// fakeGateway accepts callbacks whose payload is a JSON encoded
// VerificationResult signed with validSignature.
type fakeGateway struct {
	mu          sync.Mutex
	initiateErr error
	initiated   []gateway.InitiateRequest
	lookup      *gateway.VerificationResult
	lookupErr   error
}

func (g *fakeGateway) Name() string            { return fakeProvider }
func (g *fakeGateway) SignatureHeader() string { return "X-Signature" }

func (g *fakeGateway) Initiate(_ context.Context, req gateway.InitiateRequest) (*gateway.Initiation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initiated = append(g.initiated, req)
	if g.initiateErr != nil {
		return nil, g.initiateErr
	}
	return &gateway.Initiation{
		RedirectURL:      "https://pay.example/checkout/" + req.BookingID.String(),
		GatewayReference: "ref-" + req.BookingID.String(),
	}, nil
}

func (g *fakeGateway) ParseCallback(payload []byte, signature string) (*gateway.VerificationResult, error) {
	if signature != validSignature {
		return nil, fmt.Errorf("%w: signature mismatch", gateway.ErrUnauthenticated)
	}
	var result gateway.VerificationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrUnauthenticated, err)
	}
	return &result, nil
}

func (g *fakeGateway) Lookup(_ context.Context, _ string) (*gateway.VerificationResult, error) {
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	r := *g.lookup
	return &r, nil
}

type fakeNotifier struct {
	ch chan notification.Message
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan notification.Message, 32)}
}

func (n *fakeNotifier) Publish(_ context.Context, msg notification.Message) error {
	n.ch <- msg
	return nil
}

func (n *fakeNotifier) expect(t *testing.T, event notification.Event) notification.Message {
	t.Helper()
	select {
	case msg := <-n.ch:
		if msg.Event != event {
			t.Fatalf("notification = %s, want %s", msg.Event, event)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s notification", event)
	}
	return notification.Message{}
}

func (n *fakeNotifier) expectNone(t *testing.T) {
	t.Helper()
	select {
	case msg := <-n.ch:
		t.Fatalf("unexpected notification %s", msg.Event)
	case <-time.After(50 * time.Millisecond):
	}
}
