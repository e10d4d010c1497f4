package adaptor

import (
	"errors"
	"net/http"

	"event-marketplace/internal/data/entity"
	"event-marketplace/internal/usecase"
	"event-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// writeServiceError maps usecase errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	fields := []zap.Field{zap.Error(err), zap.String("operation", operation)}

	switch {
	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" validation failed", fields...)
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", fields...)
		utils.ResponseNotFound(w, "Booking not found")

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden", fields...)
		utils.ResponseForbidden(w, "You are not allowed to access this booking")

	case errors.Is(err, usecase.ErrInvalidTransition):
		log.Warn(operation+" failed - invalid state", fields...)
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrDuplicateTransaction):
		log.Warn(operation+" failed - duplicate transaction", fields...)
		utils.ResponseConflict(w, "Transaction already used by another booking")

	case errors.Is(err, usecase.ErrServiceUnavailable):
		log.Warn(operation+" failed - service unavailable", fields...)
		utils.ResponseConflict(w, "The selected service package is no longer available")

	case errors.Is(err, usecase.ErrAmountMismatch):
		log.Warn(operation+" failed - amount mismatch", fields...)
		utils.ResponseUnprocessable(w, "Paid amount does not match the advance payment")

	case errors.Is(err, usecase.ErrGatewayUnavailable):
		log.Warn(operation+" failed - gateway unavailable", fields...)
		utils.ResponseServiceUnavailable(w, "Payment gateway is unavailable, please try again")

	case errors.Is(err, usecase.ErrUnauthenticated):
		log.Warn(operation+" failed - unauthenticated payload", fields...)
		utils.ResponseBadRequest(w, "Invalid signature", nil)

	default:
		log.Error(operation+" failed", fields...)
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func actorFromRequest(w http.ResponseWriter, r *http.Request) (usecase.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return usecase.Actor{}, false
	}
	role, _ := utils.GetRoleFromContext(r.Context())

	return usecase.Actor{UserID: userID, Role: entity.UserRole(role)}, true
}

func bookingIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid booking ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

func paginationFromQuery(r *http.Request) (page, perPage int) {
	query := r.URL.Query()
	return utils.ParseInt(query.Get("page"), 1), utils.ParseInt(query.Get("per_page"), 10)
}
