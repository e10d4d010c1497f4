package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"event-marketplace/pkg/utils"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_secret"

type fakeSessions struct {
	created *stripe.CheckoutSessionParams
	newErr  error
	session *stripe.CheckoutSession
	getErr  error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	if f.newErr != nil {
		return nil, f.newErr
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.example/cs_test_1"}, nil
}

func (f *fakeSessions) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

func newTestGateway(sessions checkoutSessions) *StripeGateway {
	return newStripeGateway(sessions, utils.PaymentConfig{
		WebhookSecret:   testWebhookSecret,
		Currency:        "BDT",
		MinorUnitFactor: 100,
		SuccessURL:      "https://app.example/payment/success",
		CancelURL:       "https://app.example/payment/cancel?from=checkout",
	}, zap.NewNop())
}

func sign(t *testing.T, payload []byte, secret string, ts time.Time) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func sessionEvent(eventType, clientRef, paymentStatus, status string, amountTotal int64) []byte {
	return []byte(fmt.Sprintf(`{
  "id": "evt_%s",
  "object": "event",
  "api_version": %q,
  "type": %q,
  "data": {
    "object": {
      "id": "cs_test_1",
      "object": "checkout.session",
      "client_reference_id": %q,
      "amount_total": %d,
      "currency": "bdt",
      "payment_status": %q,
      "status": %q,
      "payment_intent": "pi_123"
    }
  }
}`, strings.ReplaceAll(eventType, ".", "_"), stripe.APIVersion, eventType, clientRef, amountTotal, paymentStatus, status))
}

func TestStripeInitiate(t *testing.T) {
	sessions := &fakeSessions{}
	g := newTestGateway(sessions)
	bookingID := uuid.New()

	initiation, err := g.Initiate(context.Background(), InitiateRequest{
		BookingID:     bookingID,
		OrderID:       "ORD-1",
		Amount:        15000,
		Description:   "Advance for Premium",
		CustomerEmail: "a@example.com",
	})
	if err != nil {
		t.Fatalf("Initiate returned error: %v", err)
	}
	if initiation.RedirectURL != "https://checkout.example/cs_test_1" || initiation.GatewayReference != "cs_test_1" {
		t.Errorf("unexpected initiation %+v", initiation)
	}

	p := sessions.created
	if got := *p.LineItems[0].PriceData.UnitAmount; got != 1500000 {
		t.Errorf("unit amount = %d, want 1500000", got)
	}
	if got := *p.LineItems[0].PriceData.Currency; got != "bdt" {
		t.Errorf("currency = %q, want bdt", got)
	}
	if got := *p.ClientReferenceID; got != bookingID.String() {
		t.Errorf("client reference = %q, want %q", got, bookingID)
	}
	if got := *p.CancelURL; got != "https://app.example/payment/cancel?from=checkout&booking_id="+bookingID.String() {
		t.Errorf("cancel url = %q", got)
	}
	if p.Metadata[metadataBookingID] != bookingID.String() {
		t.Errorf("metadata booking id = %q", p.Metadata[metadataBookingID])
	}
}

func TestStripeInitiateUnavailable(t *testing.T) {
	g := newTestGateway(&fakeSessions{newErr: errors.New("dial tcp: connection refused")})

	_, err := g.Initiate(context.Background(), InitiateRequest{BookingID: uuid.New(), Amount: 10})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestStripeParseCallback(t *testing.T) {
	bookingID := uuid.New()
	now := time.Now()

	tests := []struct {
		name          string
		payload       []byte
		ok            bool
		ignored       bool
		failure       FailureKind
		amount        int64
		transactionID string
	}{
		{
			name:          "completed and paid",
			payload:       sessionEvent(eventSessionCompleted, bookingID.String(), "paid", "complete", 1500000),
			ok:            true,
			amount:        15000,
			transactionID: "pi_123",
		},
		{
			name:          "async payment succeeded",
			payload:       sessionEvent(eventAsyncPaymentSucceeded, bookingID.String(), "paid", "complete", 1500000),
			ok:            true,
			amount:        15000,
			transactionID: "pi_123",
		},
		{
			name:    "completed but awaiting async payment",
			payload: sessionEvent(eventSessionCompleted, bookingID.String(), "unpaid", "complete", 1500000),
			ignored: true,
			amount:  15000,
		},
		{
			name:    "async payment failed",
			payload: sessionEvent(eventAsyncPaymentFailed, bookingID.String(), "unpaid", "complete", 1500000),
			failure: FailurePaymentFailed,
			amount:  15000,
		},
		{
			name:    "session expired",
			payload: sessionEvent(eventSessionExpired, bookingID.String(), "unpaid", "expired", 1500000),
			failure: FailureUserCancelled,
			amount:  15000,
		},
		{
			name:    "fractional amount never matches",
			payload: sessionEvent(eventSessionCompleted, bookingID.String(), "paid", "complete", 1500050),
			ok:      true,
			amount:  -1,
		},
		{
			name:    "missing booking reference",
			payload: sessionEvent(eventSessionCompleted, "not-a-uuid", "paid", "complete", 1500000),
			failure: FailureBookingNotFound,
			amount:  15000,
		},
	}

	g := newTestGateway(&fakeSessions{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := g.ParseCallback(tt.payload, sign(t, tt.payload, testWebhookSecret, now))
			if err != nil {
				t.Fatalf("ParseCallback returned error: %v", err)
			}
			if result.OK != tt.ok || result.Ignored != tt.ignored || result.FailureKind != tt.failure {
				t.Errorf("got ok=%v ignored=%v failure=%q, want ok=%v ignored=%v failure=%q",
					result.OK, result.Ignored, result.FailureKind, tt.ok, tt.ignored, tt.failure)
			}
			if result.Amount != tt.amount {
				t.Errorf("amount = %d, want %d", result.Amount, tt.amount)
			}
			if tt.transactionID != "" && result.TransactionID != tt.transactionID {
				t.Errorf("transaction id = %q, want %q", result.TransactionID, tt.transactionID)
			}
			if tt.failure != FailureBookingNotFound && result.BookingID != bookingID {
				t.Errorf("booking id = %s, want %s", result.BookingID, bookingID)
			}
			if result.EventID == "" || result.Reference != "cs_test_1" {
				t.Errorf("event id %q reference %q not populated", result.EventID, result.Reference)
			}
		})
	}
}

func TestStripeParseCallbackIgnoresUnrelatedEvents(t *testing.T) {
	g := newTestGateway(&fakeSessions{})
	payload := []byte(fmt.Sprintf(`{"id":"evt_9","object":"event","api_version":%q,"type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`, stripe.APIVersion))

	result, err := g.ParseCallback(payload, sign(t, payload, testWebhookSecret, time.Now()))
	if err != nil {
		t.Fatalf("ParseCallback returned error: %v", err)
	}
	if !result.Ignored || result.OK {
		t.Errorf("expected ignored result, got %+v", result)
	}
	if result.EventID != "evt_9" {
		t.Errorf("event id = %q, want evt_9", result.EventID)
	}
}

func TestStripeParseCallbackRejectsForgedPayload(t *testing.T) {
	g := newTestGateway(&fakeSessions{})
	payload := sessionEvent(eventSessionCompleted, uuid.NewString(), "paid", "complete", 1500000)

	tests := []struct {
		name      string
		signature string
	}{
		{name: "wrong secret", signature: sign(t, payload, "whsec_other", time.Now())},
		{name: "stale timestamp", signature: sign(t, payload, testWebhookSecret, time.Now().Add(-time.Hour))},
		{name: "missing header", signature: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.ParseCallback(payload, tt.signature); !errors.Is(err, ErrUnauthenticated) {
				t.Fatalf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}

	t.Run("tampered body", func(t *testing.T) {
		sig := sign(t, payload, testWebhookSecret, time.Now())
		tampered := []byte(strings.Replace(string(payload), "1500000", "100", 1))
		if _, err := g.ParseCallback(tampered, sig); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestStripeLookup(t *testing.T) {
	bookingID := uuid.New()

	tests := []struct {
		name    string
		session *stripe.CheckoutSession
		ok      bool
		ignored bool
		failure FailureKind
	}{
		{
			name: "paid",
			session: &stripe.CheckoutSession{
				ID: "cs_1", ClientReferenceID: bookingID.String(), AmountTotal: 1500000,
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid, Status: stripe.CheckoutSessionStatusComplete,
				PaymentIntent: &stripe.PaymentIntent{ID: "pi_9"},
			},
			ok: true,
		},
		{
			name: "still open",
			session: &stripe.CheckoutSession{
				ID: "cs_1", ClientReferenceID: bookingID.String(), AmountTotal: 1500000,
				PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid, Status: stripe.CheckoutSessionStatusOpen,
			},
			ignored: true,
		},
		{
			name: "expired",
			session: &stripe.CheckoutSession{
				ID: "cs_1", ClientReferenceID: bookingID.String(), AmountTotal: 1500000,
				PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid, Status: stripe.CheckoutSessionStatusExpired,
			},
			failure: FailureUserCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(&fakeSessions{session: tt.session})
			result, err := g.Lookup(context.Background(), "cs_1")
			if err != nil {
				t.Fatalf("Lookup returned error: %v", err)
			}
			if result.OK != tt.ok || result.Ignored != tt.ignored || result.FailureKind != tt.failure {
				t.Errorf("got %+v", result)
			}
			if result.BookingID != bookingID || result.Amount != 15000 {
				t.Errorf("booking %s amount %d", result.BookingID, result.Amount)
			}
		})
	}

	t.Run("provider error", func(t *testing.T) {
		g := newTestGateway(&fakeSessions{getErr: errors.New("timeout")})
		if _, err := g.Lookup(context.Background(), "cs_1"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	})
}
