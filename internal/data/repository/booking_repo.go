package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"event-marketplace/internal/data/entity"
	"event-marketplace/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingRepository is the booking store. Every state change is a single
// conditional UPDATE guarded on the current status, so concurrent writers
// can never both succeed from the same state. When the guard does not match
// the methods return (nil, nil) and the caller decides how to classify it.
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*entity.Booking, error)
	FindByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error)
	FindByStatus(ctx context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error)
	CountByStatus(ctx context.Context, status *entity.BookingStatus) (int64, error)

	// Transition moves the booking to `to` if its status is one of `from`.
	Transition(ctx context.Context, id uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus, patch entity.TransitionPatch) (*entity.Booking, error)

	// SettleAdvance records a verified advance payment and moves the booking to
	// payment_completed if its status is one of `from` and no advance was
	// recorded yet. Returns ErrDuplicateTransaction when transactionID is
	// already bound to another booking.
	SettleAdvance(ctx context.Context, id uuid.UUID, from []entity.BookingStatus, transactionID string, paidAt time.Time) (*entity.Booking, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `
	id, order_id, customer_id, customer_name, customer_email, customer_phone,
	service_id, vendor_id, selected_package, total_price, advance_payment, remaining_payment,
	event_date, event_address, event_city, special_requests, booking_status,
	advance_paid, transaction_id, advance_paid_at, gateway_reference, vendor_contact_shared,
	cancellation_reason, cancelled_by, rejection_reason, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.OrderID,
		&b.CustomerID,
		&b.Customer.Name,
		&b.Customer.Email,
		&b.Customer.Phone,
		&b.ServiceID,
		&b.VendorID,
		&b.SelectedPackage,
		&b.TotalPrice,
		&b.AdvancePayment,
		&b.RemainingPayment,
		&b.EventDate,
		&b.EventAddress,
		&b.EventCity,
		&b.SpecialRequests,
		&b.Status,
		&b.Payment.AdvancePaid,
		&b.Payment.TransactionID,
		&b.Payment.AdvancePaidAt,
		&b.Payment.GatewayReference,
		&b.VendorContactShared,
		&b.CancellationReason,
		&b.CancelledBy,
		&b.RejectionReason,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func statusStrings(statuses []entity.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, order_id, customer_id, customer_name, customer_email, customer_phone,
		                      service_id, vendor_id, selected_package, total_price, advance_payment,
		                      remaining_payment, event_date, event_address, event_city, special_requests,
		                      booking_status, advance_paid, vendor_contact_shared, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, FALSE, FALSE, $18, $19)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.OrderID,
		booking.CustomerID,
		booking.Customer.Name,
		booking.Customer.Email,
		booking.Customer.Phone,
		booking.ServiceID,
		booking.VendorID,
		booking.SelectedPackage,
		booking.TotalPrice,
		booking.AdvancePayment,
		booking.RemainingPayment,
		booking.EventDate,
		booking.EventAddress,
		booking.EventCity,
		booking.SpecialRequests,
		booking.Status,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("order_id", booking.OrderID),
			zap.String("customer_id", booking.CustomerID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.OrderID, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE transaction_id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, transactionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by transaction ID",
			zap.Error(err),
			zap.String("transaction_id", transactionID),
		)
		return nil, fmt.Errorf("find booking by transaction ID %s: %w", transactionID, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by customer ID",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by customer ID %s: %w", customerID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByCustomerID(ctx context.Context, customerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE customer_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, customerID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by customer ID",
			zap.Error(err),
			zap.String("customer_id", customerID.String()),
		)
		return 0, fmt.Errorf("count bookings by customer ID %s: %w", customerID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) FindByStatus(ctx context.Context, status *entity.BookingStatus, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1::text IS NULL OR booking_status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, status, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by status",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by status: %w", err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByStatus(ctx context.Context, status *entity.BookingStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE ($1::text IS NULL OR booking_status = $1)`

	var count int64
	if err := r.db.QueryRow(ctx, query, status).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by status", zap.Error(err))
		return 0, fmt.Errorf("count bookings by status: %w", err)
	}

	return count, nil
}

func (r *bookingRepository) Transition(
	ctx context.Context,
	id uuid.UUID,
	from []entity.BookingStatus,
	to entity.BookingStatus,
	patch entity.TransitionPatch,
) (*entity.Booking, error) {
	query := `
		UPDATE bookings
		SET booking_status = $3,
		    rejection_reason = COALESCE($4, rejection_reason),
		    cancellation_reason = COALESCE($5, cancellation_reason),
		    cancelled_by = COALESCE($6, cancelled_by),
		    gateway_reference = COALESCE($7, gateway_reference),
		    updated_at = NOW()
		WHERE id = $1 AND booking_status = ANY($2)
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.db.QueryRow(ctx, query,
		id,
		statusStrings(from),
		to,
		patch.RejectionReason,
		patch.CancellationReason,
		patch.CancelledBy,
		patch.GatewayReference,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to transition booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("to", string(to)),
		)
		return nil, fmt.Errorf("transition booking %s to %s: %w", id.String(), to, err)
	}

	return booking, nil
}

func (r *bookingRepository) SettleAdvance(
	ctx context.Context,
	id uuid.UUID,
	from []entity.BookingStatus,
	transactionID string,
	paidAt time.Time,
) (*entity.Booking, error) {
	query := `
		UPDATE bookings
		SET booking_status = $3,
		    advance_paid = TRUE,
		    transaction_id = $4,
		    advance_paid_at = $5,
		    vendor_contact_shared = TRUE,
		    updated_at = NOW()
		WHERE id = $1 AND booking_status = ANY($2) AND advance_paid = FALSE
		RETURNING ` + bookingColumns

	booking, err := scanBooking(r.db.QueryRow(ctx, query,
		id,
		statusStrings(from),
		entity.BookingStatusPaymentCompleted,
		transactionID,
		paidAt,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if isUniqueViolation(err, transactionIDConstraint) {
		r.log.Warn("Transaction ID already bound to another booking",
			zap.String("booking_id", id.String()),
			zap.String("transaction_id", transactionID),
		)
		return nil, ErrDuplicateTransaction
	}
	if err != nil {
		r.log.Error("Failed to settle advance payment",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("transaction_id", transactionID),
		)
		return nil, fmt.Errorf("settle advance for booking %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}
