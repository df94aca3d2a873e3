package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const producerName = "trunkline"

// AMQPBroadcaster publishes events to a RabbitMQ topic exchange. Tenant
// events use routing key tenant.<id>.<event>, user notifications
// user.<id>.<event>, so the realtime gateway can bind per room.
type AMQPBroadcaster struct {
	conn     *amqp091.Connection
	exchange string
	log      *zap.Logger
}

var _ Broadcaster = (*AMQPBroadcaster)(nil)

// NewAMQP connects to the broker and declares the topic exchange.
func NewAMQP(url, exchange string, logger *zap.Logger) (*AMQPBroadcaster, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial %s: %w", url, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: declare exchange %s: %w", exchange, err)
	}
	return &AMQPBroadcaster{conn: conn, exchange: exchange, log: logger}, nil
}

// PublishToTenant publishes an event to the tenant's room.
func (b *AMQPBroadcaster) PublishToTenant(ctx context.Context, tenantID, event string, payload any) error {
	return b.publish(ctx, "tenant."+tenantID+"."+event, event, payload)
}

// PublishToUser publishes a direct notification to one user.
func (b *AMQPBroadcaster) PublishToUser(ctx context.Context, userID, event string, payload any) error {
	return b.publish(ctx, "user."+userID+"."+event, event, payload)
}

// Close shuts down the broker connection.
func (b *AMQPBroadcaster) Close() error {
	return b.conn.Close()
}

func (b *AMQPBroadcaster) publish(ctx context.Context, key, event string, payload any) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("events: open channel: %w", err)
	}
	defer ch.Close()

	id := uuid.NewString()
	env := Envelope{
		Meta: Meta{
			ID:            id,
			Type:          event,
			Producer:      producerName,
			CorrelationID: id,
			Time:          time.Now().UTC(),
		},
		Data: payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", event, err)
	}

	err = ch.PublishWithContext(ctx, b.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		MessageId:     env.Meta.ID,
		CorrelationId: env.Meta.CorrelationID,
		Timestamp:     env.Meta.Time,
		DeliveryMode:  amqp091.Persistent,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", key, err)
	}
	b.log.Debug("event published", zap.String("key", key), zap.String("event", event))
	return nil
}
