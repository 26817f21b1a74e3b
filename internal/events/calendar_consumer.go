package events

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/cache"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
)

// CalendarEventConsumer listens to calendar-sync events and invalidates the
// availability cache for the affected dates and employee. A missed or failed
// invalidation is bounded by the cache TTL.
type CalendarEventConsumer struct {
	consumer *kafka.Consumer
	cache    *cache.AvailabilityCache
	logger   *zap.Logger
}

// NewCalendarEventConsumer creates a consumer on the calendar events topic.
func NewCalendarEventConsumer(
	brokers []string,
	groupID string,
	availCache *cache.AvailabilityCache,
	logger *zap.Logger,
) *CalendarEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicCalendarEvents, logger)
	return &CalendarEventConsumer{
		consumer: consumer,
		cache:    availCache,
		logger:   logger,
	}
}

// Start begins consuming calendar events. This blocks until the context is cancelled.
func (c *CalendarEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *CalendarEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *CalendarEventConsumer) handleMessage(_ context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from calendar topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	if cloudEvent.Type != CalendarSynced {
		c.logger.Debug("ignoring unhandled calendar event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	var evt CalendarSyncedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse CalendarSyncedEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	for _, date := range evt.Dates {
		c.cache.InvalidateDate(date)
	}
	c.cache.InvalidateTag(cache.EmployeeTag(evt.EmployeeID.String()))

	c.logger.Info("invalidated availability cache after calendar sync",
		zap.String("employee_id", evt.EmployeeID.String()),
		zap.Int("dates", len(evt.Dates)),
		zap.String("provider", evt.Provider),
	)
	return nil
}
