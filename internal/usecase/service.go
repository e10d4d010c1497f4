package usecase

import (
	"event-marketplace/internal/data/repository"
	"event-marketplace/internal/gateway"

	"go.uber.org/zap"
)

type Service struct {
	Booking   BookingService
	Lifecycle LifecycleService
}

func NewService(repo *repository.Repository, gw gateway.Adapter, notifier Notifier, log *zap.Logger) *Service {
	return &Service{
		Booking:   NewBookingService(repo, log),
		Lifecycle: NewLifecycleService(repo, gw, notifier, log),
	}
}
