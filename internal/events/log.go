package events

import (
	"context"

	"go.uber.org/zap"
)

// LogBroadcaster writes events to the service log instead of a broker. Used
// when no AMQP URL is configured (development, one-shot CLI commands).
type LogBroadcaster struct {
	log *zap.Logger
}

var _ Broadcaster = (*LogBroadcaster)(nil)

// NewLog creates a log-only broadcaster.
func NewLog(logger *zap.Logger) *LogBroadcaster {
	return &LogBroadcaster{log: logger}
}

// PublishToTenant logs the event.
func (b *LogBroadcaster) PublishToTenant(_ context.Context, tenantID, event string, payload any) error {
	b.log.Info("tenant event",
		zap.String("tenant", tenantID),
		zap.String("event", event),
		zap.Any("payload", payload))
	return nil
}

// PublishToUser logs the notification.
func (b *LogBroadcaster) PublishToUser(_ context.Context, userID, event string, payload any) error {
	b.log.Info("user event",
		zap.String("user", userID),
		zap.String("event", event),
		zap.Any("payload", payload))
	return nil
}

// Close is a no-op.
func (b *LogBroadcaster) Close() error { return nil }
