package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher publishes messages to a durable RabbitMQ queue through the
// default exchange. A connection is opened per publish; lifecycle events are
// rare enough that a long lived channel is not worth its reconnect handling.
type AMQPPublisher struct {
	url   string
	queue string
	log   *zap.Logger
}

func NewAMQPPublisher(url, queue string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:   url,
		queue: queue,
		log:   log.With(zap.String("notifier", "amqp"), zap.String("queue", queue)),
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Event, err)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		p.log.Warn("Broker dial failed", zap.Error(err))
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID.String(),
		Type:         string(msg.Event),
		Timestamp:    msg.OccurredAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("Publish failed",
			zap.Error(err),
			zap.String("event", string(msg.Event)),
			zap.String("booking_id", msg.BookingID.String()),
		)
		return fmt.Errorf("publish %s: %w", msg.Event, err)
	}

	p.log.Info("Notification published",
		zap.String("event", string(msg.Event)),
		zap.String("booking_id", msg.BookingID.String()),
	)
	return nil
}
