package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"event-marketplace/pkg/utils"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const (
	ProviderStripe = "stripe"

	metadataBookingID = "booking_id"
	metadataOrderID   = "order_id"

	eventSessionCompleted      = "checkout.session.completed"
	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	eventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	eventSessionExpired        = "checkout.session.expired"
)

// checkoutSessions is the subset of the Stripe checkout session client in use.
type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeGateway implements Adapter with Stripe Checkout: the customer is
// redirected to a hosted checkout session and the outcome arrives as a signed
// webhook event.
type StripeGateway struct {
	sessions        checkoutSessions
	webhookSecret   string
	currency        string
	minorUnitFactor int64
	successURL      string
	cancelURL       string
	tolerance       time.Duration
	log             *zap.Logger
}

func NewStripeGateway(cfg utils.PaymentConfig, log *zap.Logger) *StripeGateway {
	var backends *stripe.Backends
	if cfg.APIBaseURL != "" {
		backends = &stripe.Backends{
			API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
				URL: stripe.String(cfg.APIBaseURL),
			}),
			Uploads: stripe.GetBackend(stripe.UploadsBackend),
		}
	}
	sc := client.New(cfg.SecretKey, backends)

	return newStripeGateway(sc.CheckoutSessions, cfg, log)
}

func newStripeGateway(sessions checkoutSessions, cfg utils.PaymentConfig, log *zap.Logger) *StripeGateway {
	factor := cfg.MinorUnitFactor
	if factor < 1 {
		factor = 1
	}
	tolerance := cfg.CallbackTolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}

	return &StripeGateway{
		sessions:        sessions,
		webhookSecret:   cfg.WebhookSecret,
		currency:        strings.ToLower(cfg.Currency),
		minorUnitFactor: factor,
		successURL:      cfg.SuccessURL,
		cancelURL:       cfg.CancelURL,
		tolerance:       tolerance,
		log:             log.With(zap.String("gateway", ProviderStripe)),
	}
}

func (g *StripeGateway) Name() string { return ProviderStripe }

func (g *StripeGateway) SignatureHeader() string { return "Stripe-Signature" }

func (g *StripeGateway) Initiate(ctx context.Context, req InitiateRequest) (*Initiation, error) {
	bookingID := req.BookingID.String()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(withBookingID(g.successURL, bookingID)),
		CancelURL:         stripe.String(withBookingID(g.cancelURL, bookingID)),
		ClientReferenceID: stripe.String(bookingID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.currency),
					UnitAmount: stripe.Int64(req.Amount * g.minorUnitFactor),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				metadataBookingID: bookingID,
				metadataOrderID:   req.OrderID,
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata(metadataBookingID, bookingID)
	params.AddMetadata(metadataOrderID, req.OrderID)
	params.Context = ctx

	session, err := g.sessions.New(params)
	if err != nil {
		g.log.Warn("Checkout session creation failed",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrUnavailable, err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("%w: checkout session %s has no redirect url", ErrUnavailable, session.ID)
	}

	g.log.Info("Checkout session created",
		zap.String("booking_id", bookingID),
		zap.String("session_id", session.ID),
		zap.Int64("amount", req.Amount),
	)

	return &Initiation{
		RedirectURL:      session.URL,
		GatewayReference: session.ID,
	}, nil
}

func (g *StripeGateway) ParseCallback(payload []byte, signature string) (*VerificationResult, error) {
	event, err := webhook.ConstructEventWithTolerance(payload, signature, g.webhookSecret, g.tolerance)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	result := &VerificationResult{
		EventID:   event.ID,
		EventType: string(event.Type),
	}

	switch result.EventType {
	case eventSessionCompleted, eventAsyncPaymentSucceeded, eventAsyncPaymentFailed, eventSessionExpired:
	default:
		result.Ignored = true
		return result, nil
	}

	if event.Data == nil || len(event.Data.Raw) == 0 {
		result.FailureKind = FailureServerError
		return result, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		g.log.Warn("Malformed checkout session in event",
			zap.Error(err),
			zap.String("event_id", event.ID),
		)
		result.FailureKind = FailureServerError
		return result, nil
	}

	g.normalize(&session, result)

	switch result.EventType {
	case eventAsyncPaymentFailed:
		result.OK, result.Ignored = false, false
		result.FailureKind = FailurePaymentFailed
	case eventSessionExpired:
		result.OK, result.Ignored = false, false
		result.FailureKind = FailureUserCancelled
	}
	if result.BookingID == uuid.Nil {
		result.OK, result.Ignored = false, false
		result.FailureKind = FailureBookingNotFound
	}

	return result, nil
}

func (g *StripeGateway) Lookup(ctx context.Context, reference string) (*VerificationResult, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := g.sessions.Get(reference, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			g.log.Warn("Checkout session lookup failed",
				zap.String("session_id", reference),
				zap.Int("status", stripeErr.HTTPStatusCode),
			)
		}
		return nil, fmt.Errorf("%w: get checkout session %s: %v", ErrUnavailable, reference, err)
	}

	result := &VerificationResult{EventID: "lookup:" + session.ID, EventType: "lookup"}
	g.normalize(session, result)

	if session.Status == stripe.CheckoutSessionStatusExpired {
		result.OK = false
		result.FailureKind = FailureUserCancelled
	}
	if result.BookingID == uuid.Nil {
		result.OK, result.Ignored = false, false
		result.FailureKind = FailureBookingNotFound
	}

	return result, nil
}

// normalize fills the result from a checkout session. A session is settled
// only when Stripe reports it paid; anything else that is not a failure is
// left for a later event.
func (g *StripeGateway) normalize(session *stripe.CheckoutSession, result *VerificationResult) {
	result.Reference = session.ID
	result.BookingID = bookingIDFromSession(session)
	result.Amount = g.fromMinorUnits(session.AmountTotal)

	result.TransactionID = session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		result.TransactionID = session.PaymentIntent.ID
	}

	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		result.OK = true
		return
	}
	result.Ignored = session.Status != stripe.CheckoutSessionStatusExpired
}

// fromMinorUnits converts a provider amount back to whole units. Amounts that
// are not a whole number of units return -1 so they can never match.
func (g *StripeGateway) fromMinorUnits(amount int64) int64 {
	if amount%g.minorUnitFactor != 0 {
		return -1
	}
	return amount / g.minorUnitFactor
}

func bookingIDFromSession(session *stripe.CheckoutSession) uuid.UUID {
	candidates := []string{session.ClientReferenceID}
	if session.Metadata != nil {
		candidates = append(candidates, session.Metadata[metadataBookingID])
	}
	for _, c := range candidates {
		if id, err := uuid.Parse(c); err == nil {
			return id
		}
	}
	return uuid.Nil
}

func withBookingID(rawURL, bookingID string) string {
	if rawURL == "" {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + "booking_id=" + bookingID
}
