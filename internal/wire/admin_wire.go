package wire

import (
	"event-marketplace/internal/adaptor"
	"event-marketplace/internal/data/repository"
	"event-marketplace/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/admin/bookings", func(r chi.Router) {
		// Require both authentication AND admin role
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(log))

		r.Get("/", adminHandler.ListBookings)
		r.Get("/{id}", bookingHandler.GetBooking)

		r.Put("/{id}/decision", adminHandler.Decide)
		r.Put("/{id}/cancel", bookingHandler.CancelBooking)

		r.Put("/{id}/review", adminHandler.StartReview)
		r.Put("/{id}/confirm", adminHandler.Confirm)
		r.Put("/{id}/vendor-contacted", adminHandler.MarkVendorContacted)
		r.Put("/{id}/in-progress", adminHandler.MarkInProgress)
		r.Put("/{id}/complete", adminHandler.Complete)
	})
}
