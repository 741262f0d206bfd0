package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ideabox/application/ports/mocks"
	"ideabox/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeOutbox struct {
	pending   []*EventRecord
	published []string
	failed    map[string]int
	maxSeen   int
}

func (f *fakeOutbox) GetPendingEvents(context.Context, int32) ([]*EventRecord, error) {
	return f.pending, nil
}

func (f *fakeOutbox) MarkEventAsPublished(_ context.Context, r *EventRecord) error {
	f.published = append(f.published, r.EventID)
	return nil
}

func (f *fakeOutbox) MarkEventAsFailed(_ context.Context, r *EventRecord, _ string, attempts, maxAttempts int) error {
	if f.failed == nil {
		f.failed = map[string]int{}
	}
	f.failed[r.EventID] = attempts
	f.maxSeen = maxAttempts
	return nil
}

func record(t *testing.T, id string, event events.DomainEvent, attempts int) *EventRecord {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return &EventRecord{
		EventID:         id,
		EventType:       event.GetEventType(),
		Payload:         string(payload),
		PublishStatus:   string(PublishStatusPending),
		PublishAttempts: attempts,
	}
}

func TestOutboxProcessor_ProcessBatch(t *testing.T) {
	// Arrange
	created := events.NewIdeaCreated("i-1", "Team lunch", "S100", "alice", 1, t0)
	voted := events.NewIdeaVoted("i-2", "v-1", "bob", "alice", "Bike racks", 1, 2, t0)
	store := &fakeOutbox{pending: []*EventRecord{
		record(t, "e-1", created, 0),
		record(t, "e-2", voted, 1),
	}}
	publisher := new(mocks.MockEventPublisher)
	publisher.On("Publish", mock.Anything, created).Return(nil)
	publisher.On("Publish", mock.Anything, voted).Return(errors.New("bus unavailable"))
	processor := NewOutboxProcessor(store, publisher, 10, 0, 3, nil)

	// Act
	n, err := processor.ProcessBatch(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"e-1"}, store.published)
	assert.Equal(t, map[string]int{"e-2": 2}, store.failed)
	assert.Equal(t, 3, store.maxSeen)
	publisher.AssertExpectations(t)
}

func TestOutboxProcessor_UndecodablePayloadIsMarkedFailed(t *testing.T) {
	store := &fakeOutbox{pending: []*EventRecord{{EventID: "e-9", EventType: events.TypeIdeaCreated, Payload: "{"}}}
	publisher := new(mocks.MockEventPublisher)
	processor := NewOutboxProcessor(store, publisher, 10, 0, 3, nil)

	n, err := processor.ProcessBatch(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, store.failed["e-9"])
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
