package usecase

import (
	"context"
	"time"

	"event-marketplace/internal/data/entity"
	"event-marketplace/internal/notification"

	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

// Notifier delivers lifecycle events. Implementations live in the
// notification package.
type Notifier interface {
	Publish(ctx context.Context, msg notification.Message) error
}

// dispatcher sends notifications in the background. A failed delivery is
// logged and never rolls back the transition that caused it.
type dispatcher struct {
	notifier Notifier
	log      *zap.Logger
}

func (d dispatcher) send(ctx context.Context, event notification.Event, booking *entity.Booking, reason *string) {
	if d.notifier == nil {
		return
	}
	msg := notification.NewMessage(event, booking, reason)

	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := d.notifier.Publish(ctx, msg); err != nil {
			d.log.Warn("Failed to deliver notification",
				zap.Error(err),
				zap.String("event", string(event)),
				zap.String("booking_id", booking.ID.String()),
			)
		}
	}()
}
