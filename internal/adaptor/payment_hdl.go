package adaptor

import (
	"io"
	"net/http"

	"event-marketplace/internal/usecase"
	"event-marketplace/pkg/utils"

	"go.uber.org/zap"
)

const maxCallbackBytes = 64 << 10

type PaymentHandler struct {
	lifecycle       usecase.LifecycleService
	signatureHeader string
	log             *zap.Logger
}

func NewPaymentHandler(lifecycle usecase.LifecycleService, signatureHeader string, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		lifecycle:       lifecycle,
		signatureHeader: signatureHeader,
		log:             log.With(zap.String("handler", "payment")),
	}
}

// Webhook handles POST /api/payments/webhook. The gateway receives 200 once
// the callback is journaled, whatever the business outcome.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxCallbackBytes))
	if err != nil {
		h.log.Warn("Failed to read gateway callback", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := h.lifecycle.HandleGatewayCallback(r.Context(), payload, r.Header.Get(h.signatureHeader)); err != nil {
		writeServiceError(w, h.log, err, "gateway callback")
		return
	}

	utils.ResponseSuccess(w, "received", nil)
}
