package dynamodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ideabox/application/ports"

	"go.uber.org/zap"
)

// OutboxStore is what the processor needs from the journal.
type OutboxStore interface {
	GetPendingEvents(ctx context.Context, limit int32) ([]*EventRecord, error)
	MarkEventAsPublished(ctx context.Context, record *EventRecord) error
	MarkEventAsFailed(ctx context.Context, record *EventRecord, errorMsg string, attempts, maxAttempts int) error
}

// OutboxProcessor publishes journaled events that have not been published
// yet, so publishing never blocks the write path.
type OutboxProcessor struct {
	store     OutboxStore
	publisher ports.EventPublisher
	logger    *zap.Logger

	batchSize  int32
	interval   time.Duration
	maxRetries int

	stopOnce    sync.Once
	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewOutboxProcessor creates a new outbox processor
func NewOutboxProcessor(store OutboxStore, publisher ports.EventPublisher, batchSize int, interval time.Duration, maxRetries int, logger *zap.Logger) *OutboxProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &OutboxProcessor{
		store:       store,
		publisher:   publisher,
		logger:      logger,
		batchSize:   int32(batchSize),
		interval:    interval,
		maxRetries:  maxRetries,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins the background processing of outbox events
func (op *OutboxProcessor) Start(ctx context.Context) {
	op.logger.Info("Starting outbox processor",
		zap.Int32("batchSize", op.batchSize),
		zap.Duration("interval", op.interval),
	)
	go op.processLoop(ctx)
}

// Stop gracefully stops the outbox processor
func (op *OutboxProcessor) Stop() {
	op.stopOnce.Do(func() { close(op.stopChan) })
	<-op.stoppedChan
	op.logger.Info("Outbox processor stopped")
}

func (op *OutboxProcessor) processLoop(ctx context.Context) {
	defer close(op.stoppedChan)

	ticker := time.NewTicker(op.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-op.stopChan:
			return
		case <-ticker.C:
			if _, err := op.ProcessBatch(ctx); err != nil {
				op.logger.Error("Error processing outbox batch", zap.Error(err))
			}
		}
	}
}

// ProcessBatch publishes one batch and reports how many records went out.
// Lambda handlers call it directly instead of running the loop.
func (op *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	pending, err := op.store.GetPendingEvents(ctx, op.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending events: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	published := 0
	for _, record := range pending {
		if err := op.processEvent(ctx, record); err != nil {
			op.logger.Warn("Failed to publish outbox event",
				zap.String("eventID", record.EventID),
				zap.String("eventType", record.EventType),
				zap.Error(err),
			)
			continue
		}
		published++
	}

	op.logger.Debug("Completed outbox batch",
		zap.Int("published", published),
		zap.Int("failed", len(pending)-published),
	)
	return published, nil
}

func (op *OutboxProcessor) processEvent(ctx context.Context, record *EventRecord) error {
	event, err := record.Event()
	if err != nil {
		return op.markFailed(ctx, record, fmt.Sprintf("decode: %v", err))
	}
	if err := op.publisher.Publish(ctx, event); err != nil {
		return op.markFailed(ctx, record, fmt.Sprintf("publish: %v", err))
	}
	return op.store.MarkEventAsPublished(ctx, record)
}

func (op *OutboxProcessor) markFailed(ctx context.Context, record *EventRecord, msg string) error {
	attempts := record.PublishAttempts + 1
	if err := op.store.MarkEventAsFailed(ctx, record, msg, attempts, op.maxRetries); err != nil {
		return err
	}
	if attempts >= op.maxRetries {
		op.logger.Warn("Event permanently failed after max retries",
			zap.String("eventID", record.EventID),
			zap.String("eventType", record.EventType),
			zap.Int("attempts", attempts),
		)
	}
	return fmt.Errorf("event %s: %s", record.EventID, msg)
}
