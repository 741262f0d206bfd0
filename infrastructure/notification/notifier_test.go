package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"ideabox/application/ports"
	"ideabox/application/ports/mocks"
	"ideabox/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var notice = ports.VoteNotice{
	IdeaID:    "i-1",
	Title:     "Team lunch",
	Recipient: "alice",
	Voter:     "bob",
	VoteCount: 3,
	At:        time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
}

func TestEventNotifier_NotifyVote(t *testing.T) {
	tests := []struct {
		name      string
		contacts  func() ports.ContactDirectory
		wantEmail string
	}{
		{
			name:      "without directory",
			contacts:  func() ports.ContactDirectory { return nil },
			wantEmail: "",
		},
		{
			name: "email on file",
			contacts: func() ports.ContactDirectory {
				m := new(mocks.MockContactDirectory)
				m.On("EmailOf", mock.Anything, "alice").Return("alice@example.com", nil)
				return m
			},
			wantEmail: "alice@example.com",
		},
		{
			name: "lookup failure still notifies",
			contacts: func() ports.ContactDirectory {
				m := new(mocks.MockContactDirectory)
				m.On("EmailOf", mock.Anything, "alice").Return("", errors.New("db down"))
				return m
			},
			wantEmail: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			publisher := new(mocks.MockEventPublisher)
			want := events.NewVoteReceived("i-1", "Team lunch", "alice", tt.wantEmail, "bob", 3, notice.At)
			publisher.On("Publish", mock.Anything, want).Return(nil)
			n := NewEventNotifier(publisher, tt.contacts(), nil)

			// Act
			err := n.NotifyVote(context.Background(), notice)

			// Assert
			require.NoError(t, err)
			publisher.AssertExpectations(t)
		})
	}
}

func TestEventNotifier_PublishFailure(t *testing.T) {
	publisher := new(mocks.MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("bus unavailable"))
	n := NewEventNotifier(publisher, nil, nil)

	err := n.NotifyVote(context.Background(), notice)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bus unavailable")
}
