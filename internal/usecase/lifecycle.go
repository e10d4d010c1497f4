package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"event-marketplace/internal/data/entity"
	"event-marketplace/internal/data/repository"
	"event-marketplace/internal/dto/request"
	"event-marketplace/internal/dto/response"
	"event-marketplace/internal/gateway"
	"event-marketplace/internal/notification"
	"event-marketplace/internal/pricing"
	"event-marketplace/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type event string

const (
	eventStartReview      event = "start_review"
	eventApprove          event = "admin_approve"
	eventReject           event = "admin_reject"
	eventCustomerCancel   event = "cancel"
	eventAdminCancel      event = "admin_cancel"
	eventInitiatePayment  event = "initiate_payment"
	eventPaymentFailed    event = "payment_failed"
	eventConfirm          event = "admin_confirm"
	eventVendorContacted  event = "mark_vendor_contacted"
	eventInProgress       event = "mark_in_progress"
	eventComplete         event = "mark_completed"
	eventPaymentSucceeded event = "payment_succeeded"
)

type rule struct {
	from []entity.BookingStatus
	to   entity.BookingStatus
}

// transitions is the booking state machine. Settlement is the one event not
// listed here because it writes payment columns and has its own store method.
var transitions = map[event]rule{
	eventStartReview: {
		from: []entity.BookingStatus{entity.BookingStatusPending},
		to:   entity.BookingStatusAdminReviewing,
	},
	eventApprove: {
		from: []entity.BookingStatus{entity.BookingStatusPending, entity.BookingStatusAdminReviewing},
		to:   entity.BookingStatusApproved,
	},
	eventReject: {
		from: []entity.BookingStatus{entity.BookingStatusPending, entity.BookingStatusAdminReviewing, entity.BookingStatusApproved},
		to:   entity.BookingStatusRejected,
	},
	eventCustomerCancel: {
		from: []entity.BookingStatus{entity.BookingStatusPending, entity.BookingStatusAdminReviewing, entity.BookingStatusApproved},
		to:   entity.BookingStatusCancelled,
	},
	eventAdminCancel: {
		from: []entity.BookingStatus{entity.BookingStatusPending, entity.BookingStatusAdminReviewing, entity.BookingStatusApproved, entity.BookingStatusPaymentPending},
		to:   entity.BookingStatusCancelled,
	},
	eventInitiatePayment: {
		from: []entity.BookingStatus{entity.BookingStatusApproved},
		to:   entity.BookingStatusPaymentPending,
	},
	eventPaymentFailed: {
		from: []entity.BookingStatus{entity.BookingStatusPaymentPending},
		to:   entity.BookingStatusApproved,
	},
	eventConfirm: {
		from: []entity.BookingStatus{entity.BookingStatusPaymentCompleted},
		to:   entity.BookingStatusConfirmed,
	},
	eventVendorContacted: {
		from: []entity.BookingStatus{entity.BookingStatusConfirmed},
		to:   entity.BookingStatusVendorContacted,
	},
	eventInProgress: {
		from: []entity.BookingStatus{entity.BookingStatusVendorContacted},
		to:   entity.BookingStatusInProgress,
	},
	eventComplete: {
		from: []entity.BookingStatus{entity.BookingStatusInProgress},
		to:   entity.BookingStatusCompleted,
	},
}

// settleFrom lists the states a verified payment may settle. approved is
// accepted because a stale failure callback can revert the booking before the
// success arrives.
var settleFrom = []entity.BookingStatus{entity.BookingStatusPaymentPending, entity.BookingStatusApproved}

// Payment outcomes reported to callers and stored in the callback journal.
const (
	OutcomeSettled  = "settled"
	OutcomePending  = "pending"
	OutcomeFailed   = "failed"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
	OutcomeError    = entity.CallbackOutcomeError
)

// LifecycleService owns booking state changes. Every change is applied by a
// single conditional update in the store; the current status read before a
// change is only used to pick an error, never to allow one.
type LifecycleService interface {
	AdminDecide(ctx context.Context, bookingID uuid.UUID, req *request.AdminDecisionRequest) (*response.BookingView, error)
	StartReview(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error)
	Confirm(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error)
	MarkVendorContacted(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error)
	MarkInProgress(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error)
	Complete(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor, req *request.CancelBookingRequest) (*response.BookingView, error)

	InitiatePayment(ctx context.Context, actor Actor, bookingID uuid.UUID) (*response.PaymentInitiationResponse, error)
	VerifyPayment(ctx context.Context, result *gateway.VerificationResult) (*entity.Booking, error)
	RefreshPayment(ctx context.Context, actor Actor, bookingID uuid.UUID) (*response.PaymentStatusResponse, error)
	HandleGatewayCallback(ctx context.Context, payload []byte, signature string) error
}

type lifecycleService struct {
	repo    *repository.Repository
	gateway gateway.Adapter
	notify  dispatcher
	views   viewBuilder
	log     *zap.Logger
	now     func() time.Time
}

func NewLifecycleService(repo *repository.Repository, gw gateway.Adapter, notifier Notifier, log *zap.Logger) LifecycleService {
	log = log.With(zap.String("service", "lifecycle"))
	return &lifecycleService{
		repo:    repo,
		gateway: gw,
		notify:  dispatcher{notifier: notifier, log: log},
		views:   viewBuilder{catalog: repo.Catalog, log: log},
		log:     log,
		now:     time.Now,
	}
}

// apply runs one transition of the state machine.
func (s *lifecycleService) apply(ctx context.Context, id uuid.UUID, ev event, patch entity.TransitionPatch) (*entity.Booking, error) {
	r, ok := transitions[ev]
	if !ok {
		return nil, fmt.Errorf("unknown booking event %s", ev)
	}

	booking, err := s.repo.Booking.Transition(ctx, id, r.from, r.to, patch)
	if err != nil {
		return nil, fmt.Errorf("%s booking %s: %w", ev, id, err)
	}
	if booking == nil {
		return nil, s.rejected(ctx, id, ev)
	}

	s.log.Info("Booking transitioned",
		zap.String("booking_id", id.String()),
		zap.String("event", string(ev)),
		zap.String("status", string(booking.Status)),
	)
	return booking, nil
}

// rejected explains why a conditional update matched no row.
func (s *lifecycleService) rejected(ctx context.Context, id uuid.UUID, ev event) error {
	current, err := loadBooking(ctx, s.repo.Booking, id)
	if err != nil {
		return err
	}

	s.log.Warn("Booking transition rejected",
		zap.String("booking_id", id.String()),
		zap.String("event", string(ev)),
		zap.String("status", string(current.Status)),
	)
	return fmt.Errorf("%w: cannot %s booking in status %s", ErrInvalidTransition, ev, current.Status)
}

func (s *lifecycleService) viewOf(ctx context.Context, booking *entity.Booking) *response.BookingView {
	view := s.views.build(ctx, booking)
	return &view
}

func (s *lifecycleService) AdminDecide(ctx context.Context, bookingID uuid.UUID, req *request.AdminDecisionRequest) (*response.BookingView, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	if req.IsApprove() {
		booking, err := s.apply(ctx, bookingID, eventApprove, entity.TransitionPatch{})
		if err != nil {
			return nil, err
		}
		s.notify.send(ctx, notification.EventBookingApproved, booking, nil)
		return s.viewOf(ctx, booking), nil
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection reason is required", ErrValidation)
	}

	booking, err := s.apply(ctx, bookingID, eventReject, entity.TransitionPatch{RejectionReason: &reason})
	if err != nil {
		return nil, err
	}
	s.notify.send(ctx, notification.EventBookingRejected, booking, &reason)
	return s.viewOf(ctx, booking), nil
}

func (s *lifecycleService) StartReview(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error) {
	return s.progress(ctx, bookingID, eventStartReview)
}

func (s *lifecycleService) Confirm(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error) {
	return s.progress(ctx, bookingID, eventConfirm)
}

func (s *lifecycleService) MarkVendorContacted(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error) {
	return s.progress(ctx, bookingID, eventVendorContacted)
}

func (s *lifecycleService) MarkInProgress(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error) {
	return s.progress(ctx, bookingID, eventInProgress)
}

func (s *lifecycleService) Complete(ctx context.Context, bookingID uuid.UUID) (*response.BookingView, error) {
	return s.progress(ctx, bookingID, eventComplete)
}

func (s *lifecycleService) progress(ctx context.Context, bookingID uuid.UUID, ev event) (*response.BookingView, error) {
	booking, err := s.apply(ctx, bookingID, ev, entity.TransitionPatch{})
	if err != nil {
		return nil, err
	}
	return s.viewOf(ctx, booking), nil
}

func (s *lifecycleService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor, req *request.CancelBookingRequest) (*response.BookingView, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	ev := eventAdminCancel
	if !actor.IsAdmin() {
		ev = eventCustomerCancel

		current, err := loadBooking(ctx, s.repo.Booking, bookingID)
		if err != nil {
			return nil, err
		}
		if current.CustomerID != actor.UserID {
			return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID)
		}
	}

	role := actor.Role
	patch := entity.TransitionPatch{CancelledBy: &role}

	var reason *string
	if trimmed := strings.TrimSpace(req.Reason); trimmed != "" {
		reason = &trimmed
		patch.CancellationReason = reason
	}

	booking, err := s.apply(ctx, bookingID, ev, patch)
	if err != nil {
		return nil, err
	}
	s.notify.send(ctx, notification.EventBookingCancelled, booking, reason)
	return s.viewOf(ctx, booking), nil
}

func (s *lifecycleService) InitiatePayment(ctx context.Context, actor Actor, bookingID uuid.UUID) (*response.PaymentInitiationResponse, error) {
	booking, err := loadBooking(ctx, s.repo.Booking, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CustomerID != actor.UserID {
		return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID)
	}

	// Skip the gateway round trip for bookings that cannot move. The
	// conditional update below still decides.
	if booking.Status != entity.BookingStatusApproved || booking.Payment.AdvancePaid {
		return nil, fmt.Errorf("%w: cannot %s booking in status %s", ErrInvalidTransition, eventInitiatePayment, booking.Status)
	}

	split, err := pricing.ComputeSplit(booking.SelectedPackage.Price)
	if err != nil {
		return nil, fmt.Errorf("price booking %s: %w", bookingID, err)
	}
	if split.Advance != booking.AdvancePayment {
		s.log.Error("Stored advance differs from package price",
			zap.String("booking_id", bookingID.String()),
			zap.Int64("stored", booking.AdvancePayment),
			zap.Int64("computed", split.Advance),
		)
	}

	initiation, err := s.gateway.Initiate(ctx, gateway.InitiateRequest{
		BookingID:     booking.ID,
		OrderID:       booking.OrderID,
		Amount:        split.Advance,
		Description:   fmt.Sprintf("Advance payment for %s (%s)", booking.SelectedPackage.Name, booking.OrderID),
		CustomerName:  booking.Customer.Name,
		CustomerEmail: booking.Customer.Email,
		CustomerPhone: booking.Customer.Phone,
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, fmt.Errorf("initiate payment for booking %s: %w", bookingID, err)
	}

	reference := initiation.GatewayReference
	if _, err := s.apply(ctx, bookingID, eventInitiatePayment, entity.TransitionPatch{GatewayReference: &reference}); err != nil {
		return nil, err
	}

	s.log.Info("Payment initiated",
		zap.String("booking_id", bookingID.String()),
		zap.String("gateway", s.gateway.Name()),
		zap.String("gateway_reference", reference),
		zap.Int64("amount", split.Advance),
	)

	return &response.PaymentInitiationResponse{
		BookingID:   bookingID.String(),
		RedirectURL: initiation.RedirectURL,
	}, nil
}

// VerifyPayment applies a normalized gateway result to its booking. A failed
// payment returns the booking to approved; a successful one settles the
// advance exactly once.
func (s *lifecycleService) VerifyPayment(ctx context.Context, result *gateway.VerificationResult) (*entity.Booking, error) {
	if result.BookingID == uuid.Nil {
		return nil, fmt.Errorf("%w: gateway result carries no booking reference", ErrNotFound)
	}

	booking, err := loadBooking(ctx, s.repo.Booking, result.BookingID)
	if err != nil {
		return nil, err
	}

	if result.Ignored {
		return booking, nil
	}
	if !result.OK {
		return s.failPayment(ctx, booking, result)
	}
	return s.settlePayment(ctx, booking, result)
}

func (s *lifecycleService) failPayment(ctx context.Context, booking *entity.Booking, result *gateway.VerificationResult) (*entity.Booking, error) {
	s.log.Info("Gateway reported payment failure",
		zap.String("booking_id", booking.ID.String()),
		zap.String("failure", string(result.FailureKind)),
	)

	// A late failure for a booking that has moved on is not an error to
	// the gateway; the booking is left untouched.
	if booking.Status != entity.BookingStatusPaymentPending {
		return booking, nil
	}
	if staleAttempt(booking, result) {
		s.log.Info("Ignoring failure of superseded payment attempt",
			zap.String("booking_id", booking.ID.String()),
			zap.String("reference", result.Reference),
			zap.Stringp("current_reference", booking.Payment.GatewayReference),
		)
		return booking, nil
	}

	updated, err := s.apply(ctx, booking.ID, eventPaymentFailed, entity.TransitionPatch{})
	if errors.Is(err, ErrInvalidTransition) {
		return loadBooking(ctx, s.repo.Booking, booking.ID)
	}
	return updated, err
}

// staleAttempt reports whether result belongs to a checkout other than the
// one the booking is currently waiting on.
func staleAttempt(booking *entity.Booking, result *gateway.VerificationResult) bool {
	current := booking.Payment.GatewayReference
	return result.Reference != "" && current != nil && *current != result.Reference
}

func (s *lifecycleService) settlePayment(ctx context.Context, booking *entity.Booking, result *gateway.VerificationResult) (*entity.Booking, error) {
	txID := result.TransactionID
	if txID == "" {
		return nil, fmt.Errorf("%w: successful payment without transaction id", ErrInvalidTransition)
	}

	if booking.Payment.AdvancePaid {
		return s.alreadySettled(booking, txID)
	}

	split, err := pricing.ComputeSplit(booking.SelectedPackage.Price)
	if err != nil {
		return nil, fmt.Errorf("price booking %s: %w", booking.ID, err)
	}
	if result.Amount != split.Advance {
		s.log.Warn("Paid amount does not match advance",
			zap.String("booking_id", booking.ID.String()),
			zap.String("transaction_id", txID),
			zap.Int64("paid", result.Amount),
			zap.Int64("expected", split.Advance),
		)
		return nil, fmt.Errorf("%w: paid %d, expected %d", ErrAmountMismatch, result.Amount, split.Advance)
	}

	updated, err := s.repo.Booking.SettleAdvance(ctx, booking.ID, settleFrom, txID, s.now())
	if errors.Is(err, ErrDuplicateTransaction) {
		return nil, s.duplicateTransaction(ctx, booking.ID, txID, err)
	}
	if err != nil {
		return nil, fmt.Errorf("settle booking %s: %w", booking.ID, err)
	}
	if updated == nil {
		current, err := loadBooking(ctx, s.repo.Booking, booking.ID)
		if err != nil {
			return nil, err
		}
		if current.Payment.AdvancePaid {
			return s.alreadySettled(current, txID)
		}
		s.log.Error("Verified payment for booking that cannot settle",
			zap.String("booking_id", booking.ID.String()),
			zap.String("transaction_id", txID),
			zap.String("status", string(current.Status)),
		)
		return nil, fmt.Errorf("%w: cannot %s booking in status %s", ErrInvalidTransition, eventPaymentSucceeded, current.Status)
	}

	s.log.Info("Advance payment settled",
		zap.String("booking_id", updated.ID.String()),
		zap.String("transaction_id", txID),
		zap.Int64("amount", result.Amount),
	)
	s.notify.send(ctx, notification.EventPaymentCompleted, updated, nil)
	return updated, nil
}

// duplicateTransaction names the booking already holding txID.
func (s *lifecycleService) duplicateTransaction(ctx context.Context, bookingID uuid.UUID, txID string, cause error) error {
	holder, err := s.repo.Booking.FindByTransactionID(ctx, txID)
	if err != nil || holder == nil {
		s.log.Error("Transaction already bound to another booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("transaction_id", txID),
		)
		return fmt.Errorf("settle booking %s: %w", bookingID, cause)
	}

	s.log.Error("Transaction already bound to another booking",
		zap.String("booking_id", bookingID.String()),
		zap.String("transaction_id", txID),
		zap.String("holder_booking_id", holder.ID.String()),
		zap.String("holder_order_id", holder.OrderID),
	)
	return fmt.Errorf("settle booking %s: %w: held by booking %s", bookingID, cause, holder.ID)
}

// alreadySettled makes replays of the settling transaction a no-op. Any other
// transaction for a settled booking is held for manual review.
func (s *lifecycleService) alreadySettled(booking *entity.Booking, txID string) (*entity.Booking, error) {
	if booking.Payment.TransactionID != nil && *booking.Payment.TransactionID == txID {
		return booking, nil
	}

	s.log.Error("Second payment for settled booking requires manual review",
		zap.String("booking_id", booking.ID.String()),
		zap.String("transaction_id", txID),
		zap.Stringp("settled_transaction_id", booking.Payment.TransactionID),
	)
	return nil, fmt.Errorf("%w: booking %s already settled by another transaction", ErrInvalidTransition, booking.ID)
}

func (s *lifecycleService) RefreshPayment(ctx context.Context, actor Actor, bookingID uuid.UUID) (*response.PaymentStatusResponse, error) {
	booking, err := loadBooking(ctx, s.repo.Booking, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && booking.CustomerID != actor.UserID {
		return nil, fmt.Errorf("%w: booking %s", ErrForbidden, bookingID)
	}

	if booking.Status != entity.BookingStatusPaymentPending || booking.Payment.GatewayReference == nil {
		return &response.PaymentStatusResponse{
			Outcome: outcomeOf(booking),
			Booking: *s.viewOf(ctx, booking),
		}, nil
	}

	result, err := s.gateway.Lookup(ctx, *booking.Payment.GatewayReference)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, fmt.Errorf("lookup payment for booking %s: %w", bookingID, err)
	}
	if result.BookingID != booking.ID {
		s.log.Error("Gateway reference resolved to another booking",
			zap.String("booking_id", bookingID.String()),
			zap.String("resolved_booking_id", result.BookingID.String()),
		)
		return nil, fmt.Errorf("gateway reference of booking %s resolved to %s", bookingID, result.BookingID)
	}

	updated, err := s.VerifyPayment(ctx, result)
	if err != nil {
		return nil, err
	}

	resp := &response.PaymentStatusResponse{
		Outcome: outcomeOf(updated),
		Booking: *s.viewOf(ctx, updated),
	}
	if !result.OK && !result.Ignored {
		resp.Outcome = OutcomeFailed
		resp.FailureReason = string(result.FailureKind)
	}
	return resp, nil
}

func outcomeOf(booking *entity.Booking) string {
	switch {
	case booking.Payment.AdvancePaid:
		return OutcomeSettled
	case booking.Status == entity.BookingStatusPaymentPending:
		return OutcomePending
	default:
		return OutcomeIgnored
	}
}

// HandleGatewayCallback authenticates a callback, journals it, then applies
// it. Once the journal write succeeds the callback is acknowledged even when
// the business outcome is a failure; the outcome is kept on the journal row.
// An infrastructure failure is journaled as OutcomeError and returned so the
// gateway redelivers, and the redelivery is applied again.
func (s *lifecycleService) HandleGatewayCallback(ctx context.Context, payload []byte, signature string) error {
	result, err := s.gateway.ParseCallback(payload, signature)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthenticated) {
			s.log.Warn("Rejected unauthenticated gateway callback", zap.Error(err))
			return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return fmt.Errorf("parse gateway callback: %w", err)
	}

	var bookingRef *uuid.UUID
	if result.BookingID != uuid.Nil {
		id := result.BookingID
		bookingRef = &id
	}

	provider := s.gateway.Name()
	record := repository.NewCallbackRecord(provider, result.EventID, result.EventType, bookingRef, payload)
	processed, err := s.repo.Callback.Record(ctx, record)
	if err != nil {
		return fmt.Errorf("journal gateway callback %s: %w", result.EventID, err)
	}
	if processed {
		s.log.Info("Duplicate gateway callback acknowledged",
			zap.String("event_id", result.EventID),
			zap.String("event_type", result.EventType),
		)
		return nil
	}

	outcome, procErr, applyErr := s.applyCallback(ctx, result)

	// The outcome is stored even when the request context is gone.
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.Callback.MarkProcessed(markCtx, provider, result.EventID, outcome, procErr); err != nil {
		s.log.Error("Failed to store callback outcome",
			zap.Error(err),
			zap.String("event_id", result.EventID),
			zap.String("outcome", outcome),
		)
	}

	if applyErr != nil {
		return fmt.Errorf("apply gateway callback %s: %w", result.EventID, applyErr)
	}
	return nil
}

// applyCallback returns the journal outcome of result. The error is non-nil
// only when processing stopped on infrastructure and must be retried.
func (s *lifecycleService) applyCallback(ctx context.Context, result *gateway.VerificationResult) (string, *string, error) {
	if result.Ignored {
		return OutcomeIgnored, nil, nil
	}

	booking, err := s.VerifyPayment(ctx, result)
	if err != nil {
		msg := err.Error()
		fields := []zap.Field{
			zap.Error(err),
			zap.String("event_id", result.EventID),
			zap.String("booking_id", result.BookingID.String()),
		}

		if !finalRejection(err) {
			s.log.Error("Gateway callback failed, awaiting redelivery", fields...)
			return OutcomeError, &msg, err
		}

		s.log.Warn("Gateway callback not applied", append(fields, zap.String("reason", string(FailureReason(err))))...)
		return OutcomeRejected, &msg, nil
	}

	if !result.OK {
		// Only a failure that actually returned the booking to approved counts.
		if booking.Status != entity.BookingStatusApproved {
			return OutcomeIgnored, nil, nil
		}
		reason := string(result.FailureKind)
		return OutcomeFailed, &reason, nil
	}
	return outcomeOf(booking), nil, nil
}

// finalRejection reports whether err is a business decision that redelivery
// cannot change.
func finalRejection(err error) bool {
	return errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrDuplicateTransaction) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrNotFound)
}
