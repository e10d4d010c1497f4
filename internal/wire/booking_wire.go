package wire

import (
	"net/http"

	"event-marketplace/internal/adaptor"
	"event-marketplace/internal/data/repository"
	"event-marketplace/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	limiter func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		r.Get("/", bookingHandler.GetMyBookings)
		r.Get("/{id}", bookingHandler.GetBooking)

		// Writes are rate limited per user and route
		r.Group(func(r chi.Router) {
			r.Use(limiter)

			r.Post("/", bookingHandler.CreateBooking)
			r.Post("/{id}/payment", bookingHandler.InitiatePayment)
			r.Post("/{id}/payment/refresh", bookingHandler.RefreshPayment)
			r.Put("/{id}/cancel", bookingHandler.CancelBooking)
		})
	})
}
