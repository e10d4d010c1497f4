package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"event-marketplace/internal/data/entity"
	"event-marketplace/internal/data/repository"
	"event-marketplace/internal/dto/request"
	"event-marketplace/internal/dto/response"
	"event-marketplace/internal/pricing"
	"event-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   entity.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

type BookingService interface {
	CreateBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingView, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID, viewer Actor) (*response.BookingView, error)
	GetCustomerBookings(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingView], error)

	// Admin
	ListBookings(ctx context.Context, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingView], error)
}

type bookingService struct {
	repo  *repository.Repository
	views viewBuilder
	log   *zap.Logger
	now   func() time.Time
}

func NewBookingService(repo *repository.Repository, log *zap.Logger) BookingService {
	log = log.With(zap.String("service", "booking"))
	return &bookingService{
		repo:  repo,
		views: viewBuilder{catalog: repo.Catalog, log: log},
		log:   log,
		now:   time.Now,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, customerID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingView, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid service ID %s", ErrValidation, req.ServiceID)
	}

	eventDate, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid event date %s", ErrValidation, req.EventDate)
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if eventDate.Before(today) {
		return nil, fmt.Errorf("%w: event date %s is in the past", ErrValidation, req.EventDate)
	}

	customer, err := s.repo.User.FindByID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load customer %s: %w", customerID, err)
	}
	if customer == nil || !customer.IsActive {
		return nil, fmt.Errorf("%w: customer %s is not active", ErrForbidden, customerID)
	}

	service, err := s.repo.Catalog.FindServiceByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load service %s: %w", serviceID, err)
	}
	if service == nil {
		return nil, fmt.Errorf("%w: service %s not found", ErrServiceUnavailable, serviceID)
	}

	pkg, ok := service.FindPackage(req.PackageID)
	if !ok {
		return nil, fmt.Errorf("%w: package %s not offered by service %s", ErrServiceUnavailable, req.PackageID, serviceID)
	}

	split, err := pricing.ComputeSplit(pkg.Price)
	if err != nil {
		s.log.Error("Catalog package has invalid price",
			zap.String("service_id", serviceID.String()),
			zap.String("package_id", pkg.ID),
			zap.Int64("price", pkg.Price),
		)
		return nil, fmt.Errorf("%w: package %s has invalid price", ErrServiceUnavailable, pkg.ID)
	}

	phone := ""
	if customer.Phone != nil {
		phone = *customer.Phone
	}

	var specialRequests *string
	if req.SpecialRequests != nil && strings.TrimSpace(*req.SpecialRequests) != "" {
		trimmed := strings.TrimSpace(*req.SpecialRequests)
		specialRequests = &trimmed
	}

	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		OrderID:    utils.GenerateOrderID(now),
		CustomerID: customerID,
		Customer: entity.CustomerSnapshot{
			Name:  customer.Username,
			Email: customer.Email,
			Phone: phone,
		},
		ServiceID:        service.ID,
		VendorID:         service.VendorID,
		SelectedPackage:  pkg,
		TotalPrice:       split.Total,
		AdvancePayment:   split.Advance,
		RemainingPayment: split.Remaining,
		EventDate:        eventDate,
		EventAddress:     strings.TrimSpace(req.EventAddress),
		EventCity:        strings.TrimSpace(req.EventCity),
		SpecialRequests:  specialRequests,
		Status:           entity.BookingStatusPending,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("order_id", booking.OrderID),
		zap.String("customer_id", customerID.String()),
		zap.String("service_id", serviceID.String()),
		zap.Int64("total_price", split.Total),
		zap.Int64("advance_payment", split.Advance),
	)

	view := response.NewBookingView(booking, nil)
	return &view, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, viewer Actor) (*response.BookingView, error) {
	booking, err := loadBooking(ctx, s.repo.Booking, bookingID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() && booking.CustomerID != viewer.UserID {
		return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID)
	}

	view := s.views.build(ctx, booking)
	return &view, nil
}

func (s *bookingService) GetCustomerBookings(ctx context.Context, customerID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingView], error) {
	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByCustomerID(ctx, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get customer bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByCustomerID(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("count customer bookings: %w", err)
	}

	return response.NewPaginatedResponse(s.views.buildAll(ctx, bookings), req.Page, limit, total), nil
}

func (s *bookingService) ListBookings(ctx context.Context, req *request.BookingListRequest) (*response.PaginatedResponse[response.BookingView], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	var status *entity.BookingStatus
	if req.Status != "" {
		st := entity.BookingStatus(req.Status)
		status = &st
	}

	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("count bookings: %w", err)
	}

	return response.NewPaginatedResponse(s.views.buildAll(ctx, bookings), req.Page, limit, total), nil
}

func loadBooking(ctx context.Context, bookings repository.BookingRepository, id uuid.UUID) (*entity.Booking, error) {
	booking, err := bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", id, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return booking, nil
}

// viewBuilder turns bookings into views, loading vendor contact only for
// bookings that pass the disclosure gate.
type viewBuilder struct {
	catalog repository.CatalogRepository
	log     *zap.Logger
}

func (v viewBuilder) build(ctx context.Context, booking *entity.Booking) response.BookingView {
	if !booking.CanDiscloseContact() {
		return response.NewBookingView(booking, nil)
	}

	contact, err := v.catalog.FindVendorContact(ctx, booking.VendorID)
	if err != nil {
		v.log.Warn("Vendor contact unavailable",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("vendor_id", booking.VendorID.String()),
		)
		contact = nil
	}

	return response.NewBookingView(booking, contact)
}

func (v viewBuilder) buildAll(ctx context.Context, bookings []*entity.Booking) []response.BookingView {
	views := make([]response.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, v.build(ctx, b))
	}
	return views
}
