// Package messaging holds event publishers that do not need a broker.
package messaging

import (
	"context"

	"ideabox/domain/events"

	"go.uber.org/zap"
)

// LogPublisher writes events to the log. It stands in for EventBridge when
// publishing is disabled, so local runs still show what would be sent.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.logger.Info("Event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Int("version", event.GetVersion()),
	)
	return nil
}

func (p *LogPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	for _, event := range batch {
		if err := p.Publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
