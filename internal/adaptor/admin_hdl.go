package adaptor

import (
	"context"
	"encoding/json"
	"net/http"

	"event-marketplace/internal/dto/request"
	"event-marketplace/internal/dto/response"
	"event-marketplace/internal/usecase"
	"event-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AdminHandler struct {
	booking   usecase.BookingService
	lifecycle usecase.LifecycleService
	log       *zap.Logger
}

func NewAdminHandler(booking usecase.BookingService, lifecycle usecase.LifecycleService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		booking:   booking,
		lifecycle: lifecycle,
		log:       log.With(zap.String("handler", "admin")),
	}
}

// ListBookings handles GET /api/admin/bookings?status=
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	page, perPage := paginationFromQuery(r)
	req := &request.BookingListRequest{
		PaginatedRequest: request.PaginatedRequest{Page: page, PerPage: perPage},
		Status:           r.URL.Query().Get("status"),
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	bookings, err := h.booking.ListBookings(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.log, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// Decide handles PUT /api/admin/bookings/{id}/decision
func (h *AdminHandler) Decide(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDParam(w, r)
	if !ok {
		return
	}

	var req request.AdminDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	booking, err := h.lifecycle.AdminDecide(r.Context(), bookingID, &req)
	if err != nil {
		writeServiceError(w, h.log, err, "admin decision")
		return
	}

	utils.ResponseSuccess(w, "Decision recorded", booking)
}

// StartReview handles PUT /api/admin/bookings/{id}/review
func (h *AdminHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	h.progress(w, r, "start review", h.lifecycle.StartReview)
}

// Confirm handles PUT /api/admin/bookings/{id}/confirm
func (h *AdminHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.progress(w, r, "confirm booking", h.lifecycle.Confirm)
}

// MarkVendorContacted handles PUT /api/admin/bookings/{id}/vendor-contacted
func (h *AdminHandler) MarkVendorContacted(w http.ResponseWriter, r *http.Request) {
	h.progress(w, r, "mark vendor contacted", h.lifecycle.MarkVendorContacted)
}

// MarkInProgress handles PUT /api/admin/bookings/{id}/in-progress
func (h *AdminHandler) MarkInProgress(w http.ResponseWriter, r *http.Request) {
	h.progress(w, r, "mark in progress", h.lifecycle.MarkInProgress)
}

// Complete handles PUT /api/admin/bookings/{id}/complete
func (h *AdminHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.progress(w, r, "complete booking", h.lifecycle.Complete)
}

func (h *AdminHandler) progress(
	w http.ResponseWriter,
	r *http.Request,
	operation string,
	fn func(context.Context, uuid.UUID) (*response.BookingView, error),
) {
	bookingID, ok := bookingIDParam(w, r)
	if !ok {
		return
	}

	booking, err := fn(r.Context(), bookingID)
	if err != nil {
		writeServiceError(w, h.log, err, operation)
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}
