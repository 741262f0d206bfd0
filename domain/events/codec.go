package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// VoteReceived tells an idea's creator that someone voted for it. It is not
// journaled; notifiers publish it directly.
type VoteReceived struct {
	BaseEvent
	Recipient string `json:"recipient"`
	Email     string `json:"email,omitempty"`
	Title     string `json:"title"`
	Voter     string `json:"voter"`
	VoteCount int    `json:"vote_count"`
}

// NewVoteReceived creates a VoteReceived event
func NewVoteReceived(ideaID, title, recipient, email, voter string, voteCount int, at time.Time) VoteReceived {
	return VoteReceived{
		BaseEvent: newBase(ideaID, TypeVoteNotification, voter, 0, at),
		Recipient: recipient,
		Email:     email,
		Title:     title,
		Voter:     voter,
		VoteCount: voteCount,
	}
}

// Decode rebuilds a concrete event from its type name and JSON payload.
// Unknown types decode to a BaseEvent so journals stay readable across releases.
func Decode(eventType string, payload []byte) (DomainEvent, error) {
	var target DomainEvent
	switch eventType {
	case TypeIdeaCreated:
		target = &IdeaCreated{}
	case TypeIdeaUpdated:
		target = &IdeaUpdated{}
	case TypeIdeaRemoved:
		target = &IdeaRemoved{}
	case TypeIdeaVoted:
		target = &IdeaVoted{}
	case TypeIdeaUnvoted:
		target = &IdeaUnvoted{}
	case TypeCommentAdded:
		target = &CommentAdded{}
	case TypeCommentRemoved:
		target = &CommentRemoved{}
	case TypeCommentAnnotated:
		target = &CommentAnnotated{}
	case TypeStatusChanged:
		target = &StatusChanged{}
	case TypeVoteNotification:
		target = &VoteReceived{}
	default:
		target = &BaseEvent{}
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return nil, fmt.Errorf("decode %s: %w", eventType, err)
	}
	return deref(target), nil
}

// deref returns events by value, the way the aggregate raises them.
func deref(e DomainEvent) DomainEvent {
	switch v := e.(type) {
	case *IdeaCreated:
		return *v
	case *IdeaUpdated:
		return *v
	case *IdeaRemoved:
		return *v
	case *IdeaVoted:
		return *v
	case *IdeaUnvoted:
		return *v
	case *CommentAdded:
		return *v
	case *CommentRemoved:
		return *v
	case *CommentAnnotated:
		return *v
	case *StatusChanged:
		return *v
	case *VoteReceived:
		return *v
	case *BaseEvent:
		return *v
	}
	return e
}
