package adaptor

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"event-marketplace/internal/dto/request"
	"event-marketplace/internal/usecase"
	"event-marketplace/pkg/utils"

	"go.uber.org/zap"
)

type BookingHandler struct {
	booking   usecase.BookingService
	lifecycle usecase.LifecycleService
	log       *zap.Logger
}

func NewBookingHandler(booking usecase.BookingService, lifecycle usecase.LifecycleService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		booking:   booking,
		lifecycle: lifecycle,
		log:       log.With(zap.String("handler", "booking")),
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req request.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.booking.CreateBooking(r.Context(), actor.UserID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create booking")
		return
	}

	utils.ResponseCreated(w, "Booking request submitted", booking)
}

// GetMyBookings handles GET /api/bookings
func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	page, perPage := paginationFromQuery(r)
	req := &request.PaginatedRequest{Page: page, PerPage: perPage}

	bookings, err := h.booking.GetCustomerBookings(r.Context(), actor.UserID, req)
	if err != nil {
		writeServiceError(w, h.log, err, "get customer bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBooking handles GET /api/bookings/{id} and GET /api/admin/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	bookingID, ok := bookingIDParam(w, r)
	if !ok {
		return
	}

	booking, err := h.booking.GetBooking(r.Context(), bookingID, actor)
	if err != nil {
		writeServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// InitiatePayment handles POST /api/bookings/{id}/payment
func (h *BookingHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	bookingID, ok := bookingIDParam(w, r)
	if !ok {
		return
	}

	payment, err := h.lifecycle.InitiatePayment(r.Context(), actor, bookingID)
	if err != nil {
		writeServiceError(w, h.log, err, "initiate payment")
		return
	}

	utils.ResponseSuccess(w, "Redirect to payment gateway", payment)
}

// RefreshPayment handles POST /api/bookings/{id}/payment/refresh
func (h *BookingHandler) RefreshPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	bookingID, ok := bookingIDParam(w, r)
	if !ok {
		return
	}

	status, err := h.lifecycle.RefreshPayment(r.Context(), actor, bookingID)
	if err != nil {
		writeServiceError(w, h.log, err, "refresh payment")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}

// CancelBooking handles PUT /api/bookings/{id}/cancel and PUT /api/admin/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(w, r)
	if !ok {
		return
	}
	bookingID, ok := bookingIDParam(w, r)
	if !ok {
		return
	}

	var req request.CancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.lifecycle.CancelBooking(r.Context(), bookingID, actor, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", booking)
}
