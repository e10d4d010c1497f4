package repository

import (
	"context"
	"fmt"
	"time"

	"event-marketplace/internal/data/entity"
	"event-marketplace/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallbackRepository journals raw gateway callbacks before they are applied.
type CallbackRepository interface {
	// Record stores the callback. Redelivery of a journaled event is not an
	// error; processed reports whether an earlier delivery already reached a
	// final outcome. Events never marked processed, or marked with
	// entity.CallbackOutcomeError, report false so they are applied again.
	Record(ctx context.Context, callback *entity.GatewayCallback) (processed bool, err error)
	MarkProcessed(ctx context.Context, provider, eventID, outcome string, processingErr *string) error
}

type callbackRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCallbackRepository(db database.PgxIface, log *zap.Logger) CallbackRepository {
	return &callbackRepository{
		db:  db,
		log: log.With(zap.String("repository", "gateway_callback")),
	}
}

func (r *callbackRepository) Record(ctx context.Context, callback *entity.GatewayCallback) (bool, error) {
	// The no-op update makes RETURNING yield the existing row on redelivery.
	query := `
		INSERT INTO gateway_callbacks (id, provider, event_id, event_type, booking_id,
		                               payload, signature_valid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT ` + callbackEventIDConstraint + `
		DO UPDATE SET event_type = EXCLUDED.event_type
		RETURNING processed_at IS NOT NULL AND outcome IS DISTINCT FROM $9
	`

	var processed bool
	err := r.db.QueryRow(ctx, query,
		callback.ID,
		callback.Provider,
		callback.EventID,
		callback.EventType,
		callback.BookingID,
		callback.Payload,
		callback.SignatureValid,
		callback.CreatedAt,
		entity.CallbackOutcomeError,
	).Scan(&processed)
	if err != nil {
		r.log.Error("Failed to record gateway callback",
			zap.Error(err),
			zap.String("provider", callback.Provider),
			zap.String("event_id", callback.EventID),
		)
		return false, fmt.Errorf("record callback %s: %w", callback.EventID, err)
	}

	return processed, nil
}

func (r *callbackRepository) MarkProcessed(ctx context.Context, provider, eventID, outcome string, processingErr *string) error {
	query := `
		UPDATE gateway_callbacks
		SET outcome = $3, processing_error = $4, processed_at = $5
		WHERE provider = $1 AND event_id = $2
	`

	result, err := r.db.Exec(ctx, query, provider, eventID, outcome, processingErr, time.Now())
	if err != nil {
		r.log.Error("Failed to mark gateway callback processed",
			zap.Error(err),
			zap.String("event_id", eventID),
		)
		return fmt.Errorf("mark callback %s processed: %w", eventID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("callback %s not found", eventID)
	}

	return nil
}

// NewCallbackRecord builds a journal entry for a received payload.
func NewCallbackRecord(provider, eventID, eventType string, bookingID *uuid.UUID, payload []byte) *entity.GatewayCallback {
	return &entity.GatewayCallback{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		Provider:       provider,
		EventID:        eventID,
		EventType:      eventType,
		BookingID:      bookingID,
		Payload:        payload,
		SignatureValid: true,
	}
}
