package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ideabox/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PublishStatus represents the publishing status of an event
type PublishStatus string

const (
	PublishStatusPending   PublishStatus = "pending"
	PublishStatusPublished PublishStatus = "published"
	PublishStatusFailed    PublishStatus = "failed"
)

const (
	batchWriteLimit      = 25
	batchWriteMaxRetries = 5
	eventRetention       = 365 * 24 * time.Hour
)

// EventRecord is one journaled event. Records double as the outbox: they
// start pending and the outbox processor marks them published.
type EventRecord struct {
	PK            string `dynamodbav:"PK"` // EVENTS#<idea id>
	SK            string `dynamodbav:"SK"` // EVENT#<version>#<seq>
	EventID       string `dynamodbav:"EventID"`
	EventType     string `dynamodbav:"EventType"`
	AggregateID   string `dynamodbav:"AggregateID"`
	AggregateType string `dynamodbav:"AggregateType"`
	Payload       string `dynamodbav:"Payload"`
	Timestamp     string `dynamodbav:"Timestamp"`
	Version       int    `dynamodbav:"Version"`
	Actor         string `dynamodbav:"Actor"`

	PublishStatus   string `dynamodbav:"PublishStatus"`
	PublishAttempts int    `dynamodbav:"PublishAttempts"`
	LastPublishTry  string `dynamodbav:"LastPublishTry,omitempty"`
	PublishedAt     string `dynamodbav:"PublishedAt,omitempty"`
	ErrorMessage    string `dynamodbav:"ErrorMessage,omitempty"`

	TTL int64 `dynamodbav:"TTL,omitempty"`
}

// EventStore journals domain events per idea.
type EventStore struct {
	client    Client
	tableName string
	now       func() time.Time
	logger    *zap.Logger
}

// NewEventStore creates a DynamoDB event store
func NewEventStore(client Client, tableName string, logger *zap.Logger) *EventStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventStore{client: client, tableName: tableName, now: time.Now, logger: logger}
}

// SaveEvents appends events in batches of 25, retrying unprocessed items.
func (es *EventStore) SaveEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	writeRequests := make([]types.WriteRequest, 0, len(domainEvents))
	for seq, event := range domainEvents {
		record, err := es.eventToRecord(event, seq)
		if err != nil {
			return err
		}
		item, err := attributevalue.MarshalMap(record)
		if err != nil {
			return storageError("marshal event", err)
		}
		writeRequests = append(writeRequests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}

	for i := 0; i < len(writeRequests); i += batchWriteLimit {
		end := i + batchWriteLimit
		if end > len(writeRequests) {
			end = len(writeRequests)
		}
		if err := es.writeBatch(ctx, writeRequests[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (es *EventStore) writeBatch(ctx context.Context, batch []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{es.tableName: batch}
	backoff := 50 * time.Millisecond

	for attempt := 0; len(pending[es.tableName]) > 0; attempt++ {
		if attempt > batchWriteMaxRetries {
			return storageError("save events", fmt.Errorf("%d events left unprocessed", len(pending[es.tableName])))
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		out, err := es.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return storageError("save events", err)
		}
		pending = out.UnprocessedItems
	}
	return nil
}

// GetEvents returns an idea's events in the order they were raised.
func (es *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(eventsPK(aggregateID)))).
		Build()
	if err != nil {
		return nil, storageError("build events query", err)
	}

	paginator := dynamodb.NewQueryPaginator(es.client, &dynamodb.QueryInput{
		TableName:                 aws.String(es.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})

	var out []events.DomainEvent
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storageError("query events", err)
		}
		for _, item := range page.Items {
			var record EventRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				return nil, storageError("unmarshal event", err)
			}
			event, err := record.Event()
			if err != nil {
				return nil, storageError("decode event", err)
			}
			out = append(out, event)
		}
	}
	return out, nil
}

// GetPendingEvents returns up to limit records not yet published.
func (es *EventStore) GetPendingEvents(ctx context.Context, limit int32) ([]*EventRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	filter := expression.Name("PublishStatus").Equal(expression.Value(string(PublishStatusPending))).
		And(expression.Name("PK").BeginsWith("EVENTS#"))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, storageError("build pending filter", err)
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(es.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	// Scan limits count evaluated items, not matches, so keep paging.
	records := make([]*EventRecord, 0, limit)
	paginator := dynamodb.NewScanPaginator(es.client, input)
	for paginator.HasMorePages() && int32(len(records)) < limit {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storageError("scan pending events", err)
		}
		for _, item := range page.Items {
			var record EventRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				es.logger.Warn("Skipping malformed event record", zap.Error(err))
				continue
			}
			records = append(records, &record)
			if int32(len(records)) == limit {
				break
			}
		}
	}
	return records, nil
}

// MarkEventAsPublished marks an event as successfully published
func (es *EventStore) MarkEventAsPublished(ctx context.Context, record *EventRecord) error {
	update := expression.Set(expression.Name("PublishStatus"), expression.Value(string(PublishStatusPublished))).
		Set(expression.Name("PublishedAt"), expression.Value(es.now().UTC().Format(time.RFC3339)))
	return es.updateRecord(ctx, record, update, "mark event published")
}

// MarkEventAsFailed records a failed attempt. The record stays pending until
// it has used up maxAttempts.
func (es *EventStore) MarkEventAsFailed(ctx context.Context, record *EventRecord, errorMsg string, attempts, maxAttempts int) error {
	status := PublishStatusPending
	if attempts >= maxAttempts {
		status = PublishStatusFailed
	}

	update := expression.Set(expression.Name("PublishStatus"), expression.Value(string(status))).
		Set(expression.Name("PublishAttempts"), expression.Value(attempts)).
		Set(expression.Name("LastPublishTry"), expression.Value(es.now().UTC().Format(time.RFC3339))).
		Set(expression.Name("ErrorMessage"), expression.Value(errorMsg))
	return es.updateRecord(ctx, record, update, "mark event failed")
}

func (es *EventStore) updateRecord(ctx context.Context, record *EventRecord, update expression.UpdateBuilder, operation string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return storageError(operation, err)
	}

	_, err = es.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(es.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: record.PK},
			"SK": &types.AttributeValueMemberS{Value: record.SK},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return storageError(operation, err)
	}
	return nil
}

func (es *EventStore) eventToRecord(event events.DomainEvent, seq int) (*EventRecord, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, storageError("marshal event payload", err)
	}

	timestamp := event.GetTimestamp().UTC()
	record := &EventRecord{
		PK:            eventsPK(event.GetAggregateID()),
		SK:            fmt.Sprintf("EVENT#%010d#%03d", event.GetVersion(), seq),
		EventID:       uuid.NewString(),
		EventType:     event.GetEventType(),
		AggregateID:   event.GetAggregateID(),
		AggregateType: "idea",
		Payload:       string(payload),
		Timestamp:     timestamp.Format(time.RFC3339Nano),
		Version:       event.GetVersion(),
		PublishStatus: string(PublishStatusPending),
		TTL:           timestamp.Add(eventRetention).Unix(),
	}
	var actor struct {
		Actor string `json:"actor"`
	}
	if json.Unmarshal(payload, &actor) == nil {
		record.Actor = actor.Actor
	}
	return record, nil
}

// Event decodes the stored payload back into its concrete event.
func (r EventRecord) Event() (events.DomainEvent, error) {
	return events.Decode(r.EventType, []byte(r.Payload))
}

func eventsPK(aggregateID string) string {
	return "EVENTS#" + aggregateID
}
