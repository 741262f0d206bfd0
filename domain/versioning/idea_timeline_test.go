package versioning_test

import (
	"testing"
	"time"

	"ideabox/domain/core/entities"
	"ideabox/domain/versioning"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplay(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []entities.HistoryEntry{
		entities.NewHistoryEntry("h1", entities.Change{Title: entities.StringPtr("Lunch"), Status: entities.StringPtr("S100")}, "alice", at),
		entities.NewHistoryEntry("h2", entities.Change{Description: entities.StringPtr("Fridays")}, "alice", at.Add(time.Hour)),
		entities.NewHistoryEntry("h3", entities.Change{Status: entities.StringPtr("S200")}, "mod", at.Add(2*time.Hour)),
	}

	revs := versioning.Replay(history)

	require.Len(t, revs, 3)
	assert.Equal(t, "Lunch", revs[2].Title)
	assert.Equal(t, "Fridays", revs[2].Description)
	assert.Equal(t, "S200", revs[2].Status)
	assert.Equal(t, []string{"status"}, revs[2].Changed)
	assert.Equal(t, 3, revs[2].Sequence)
	assert.NotEqual(t, revs[0].Checksum, revs[1].Checksum)

	diff := versioning.Diff(revs[0], revs[2])
	assert.Len(t, diff, 2)

	state, ok := versioning.StateAt(history, at.Add(90*time.Minute))
	require.True(t, ok)
	assert.Equal(t, "S100", state.Status)
	assert.Equal(t, "Fridays", state.Description)

	_, ok = versioning.StateAt(history, at.Add(-time.Minute))
	assert.False(t, ok)
}
