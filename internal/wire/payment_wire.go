package wire

import (
	"net/http"

	"event-marketplace/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, limiter func(http.Handler) http.Handler) {
	// Called by the payment gateway; authenticated by the payload signature
	r.With(limiter).Post("/api/payments/webhook", paymentHandler.Webhook)
}
