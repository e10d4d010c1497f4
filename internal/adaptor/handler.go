package adaptor

import (
	"event-marketplace/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking *BookingHandler
	Admin   *AdminHandler
	Payment *PaymentHandler
}

func NewHandler(service *usecase.Service, signatureHeader string, log *zap.Logger) *Handler {
	return &Handler{
		Booking: NewBookingHandler(service.Booking, service.Lifecycle, log),
		Admin:   NewAdminHandler(service.Booking, service.Lifecycle, log),
		Payment: NewPaymentHandler(service.Lifecycle, signatureHeader, log),
	}
}
