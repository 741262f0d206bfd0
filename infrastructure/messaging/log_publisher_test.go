package messaging

import (
	"context"
	"testing"
	"time"

	"ideabox/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPublisher_PublishBatch(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	err := p.PublishBatch(context.Background(), []events.DomainEvent{
		events.NewIdeaCreated("i-1", "Team lunch", "S100", "alice", 1, at),
		events.NewIdeaRemoved("i-1", "alice", 2, at),
	})

	require.NoError(t, err)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, events.TypeIdeaRemoved, logs.All()[1].ContextMap()["eventType"])
}
