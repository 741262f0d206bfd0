package eventbridge

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"ideabox/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	calls [][]types.PutEventsRequestEntry
	put   func(*eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error)
}

func (f *fakeAPI) PutEvents(_ context.Context, in *eventbridge.PutEventsInput, _ ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error) {
	f.calls = append(f.calls, in.Entries)
	if f.put != nil {
		return f.put(in)
	}
	return &eventbridge.PutEventsOutput{}, nil
}

var t0 = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func TestPublisher_PublishBatchChunksByTen(t *testing.T) {
	// Arrange
	api := &fakeAPI{}
	p := NewPublisher(api, "ideabox-events", "ideabox.ideas", nil)
	batch := make([]events.DomainEvent, 0, 23)
	for i := 0; i < 23; i++ {
		batch = append(batch, events.NewIdeaRemoved(fmt.Sprintf("i-%d", i), "alice", 2, t0))
	}

	// Act
	err := p.PublishBatch(context.Background(), batch)

	// Assert
	require.NoError(t, err)
	require.Len(t, api.calls, 3)
	assert.Len(t, api.calls[0], 10)
	assert.Len(t, api.calls[2], 3)
	first := api.calls[0][0]
	assert.Equal(t, "ideabox-events", aws.ToString(first.EventBusName))
	assert.Equal(t, "ideabox.ideas", aws.ToString(first.Source))
	assert.Equal(t, events.TypeIdeaRemoved, aws.ToString(first.DetailType))
	assert.Equal(t, []string{"idea/i-0"}, first.Resources)
	assert.Contains(t, aws.ToString(first.Detail), `"aggregate_id":"i-0"`)
}

func TestPublisher_Failures(t *testing.T) {
	event := events.NewIdeaCreated("i-1", "Team lunch", "S100", "alice", 1, t0)

	tests := []struct {
		name string
		put  func(*eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error)
		want string
	}{
		{
			name: "transport error",
			put: func(*eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
				return nil, errors.New("connection reset")
			},
			want: "connection reset",
		},
		{
			name: "rejected entry",
			put: func(*eventbridge.PutEventsInput) (*eventbridge.PutEventsOutput, error) {
				return &eventbridge.PutEventsOutput{
					FailedEntryCount: 1,
					Entries:          []types.PutEventsResultEntry{{ErrorCode: aws.String("InternalFailure")}},
				}, nil
			},
			want: "1 events failed to publish",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPublisher(&fakeAPI{put: tt.put}, "bus", "src", nil)

			err := p.Publish(context.Background(), event)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
