package repository

import (
	"event-marketplace/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User     UserRepository
	Session  SessionRepository
	Catalog  CatalogRepository
	Booking  BookingRepository
	Callback CallbackRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(db, log),
		Session:  NewSessionRepository(db, log),
		Catalog:  NewCatalogRepository(db, log),
		Booking:  NewBookingRepository(db, log),
		Callback: NewCallbackRepository(db, log),
	}
}
