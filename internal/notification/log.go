package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier records messages in the application log. It is used when no
// broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("notifier", "log"))}
}

func (n *LogNotifier) Publish(_ context.Context, msg Message) error {
	fields := []zap.Field{
		zap.String("event", string(msg.Event)),
		zap.String("booking_id", msg.BookingID.String()),
		zap.String("order_id", msg.OrderID),
		zap.String("customer_email", msg.CustomerEmail),
		zap.String("status", string(msg.Status)),
	}
	if msg.Reason != nil {
		fields = append(fields, zap.String("reason", *msg.Reason))
	}

	n.log.Info("Booking notification", fields...)
	return nil
}
