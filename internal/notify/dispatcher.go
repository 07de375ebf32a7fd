package notify

import (
	"fmt"

	"go.uber.org/zap"

	"projectpulse/contracts/mq"
	"projectpulse/pkg/clock"
	"projectpulse/pkg/metrics"
)

// Publisher is the slice of the message queue publisher the dispatcher
// needs.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// Dispatcher stamps composed notifications and hands them to the queue.
// Delivery is the worker's job; a dispatch failure means the event was
// never enqueued and the caller decides whether that is fatal.
type Dispatcher struct {
	publisher Publisher
	clock     clock.Clock
	logger    *zap.Logger
}

func NewDispatcher(publisher Publisher, clk clock.Clock, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

func (d *Dispatcher) Dispatch(payload mq.NotificationCreatedPayload) error {
	payload.CreatedAt = d.clock.Now()

	if err := d.publisher.Publish(mq.RoutingKeyNotificationCreated, payload); err != nil {
		d.logger.Error("Failed to publish notification",
			zap.String("kind", payload.Kind),
			zap.String("project", payload.ProjectName),
			zap.Error(err))
		return fmt.Errorf("publish notification %s: %w", payload.Kind, err)
	}

	metrics.IncrementNotificationPublished(payload.Kind)
	d.logger.Info("Notification published",
		zap.String("kind", payload.Kind),
		zap.String("project", payload.ProjectName))
	return nil
}
