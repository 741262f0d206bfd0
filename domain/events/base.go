package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
	Actor       string    `json:"actor"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event type names. They double as EventBridge detail types.
const (
	TypeIdeaCreated      = "idea.created"
	TypeIdeaUpdated      = "idea.updated"
	TypeIdeaRemoved      = "idea.removed"
	TypeIdeaVoted        = "idea.voted"
	TypeIdeaUnvoted      = "idea.unvoted"
	TypeCommentAdded     = "idea.commented"
	TypeCommentRemoved   = "idea.comment_removed"
	TypeCommentAnnotated = "idea.comment_annotated"
	TypeStatusChanged    = "idea.status_changed"
	TypeVoteNotification = "notification.vote_received"
)

func newBase(ideaID, eventType, actor string, version int, at time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: ideaID,
		EventType:   eventType,
		Timestamp:   at,
		Version:     version,
		Actor:       actor,
	}
}

// IdeaCreated is raised when an idea is submitted
type IdeaCreated struct {
	BaseEvent
	Title  string `json:"title"`
	Status string `json:"status"`
}

// NewIdeaCreated creates an IdeaCreated event
func NewIdeaCreated(ideaID, title, status, actor string, version int, at time.Time) IdeaCreated {
	return IdeaCreated{BaseEvent: newBase(ideaID, TypeIdeaCreated, actor, version, at), Title: title, Status: status}
}

// IdeaUpdated is raised when title or description change
type IdeaUpdated struct {
	BaseEvent
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// NewIdeaUpdated creates an IdeaUpdated event
func NewIdeaUpdated(ideaID string, title, description *string, actor string, version int, at time.Time) IdeaUpdated {
	return IdeaUpdated{
		BaseEvent:   newBase(ideaID, TypeIdeaUpdated, actor, version, at),
		Title:       title,
		Description: description,
	}
}

// StatusChanged is raised when an idea moves to another status
type StatusChanged struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// NewStatusChanged creates a StatusChanged event
func NewStatusChanged(ideaID, from, to, actor string, version int, at time.Time) StatusChanged {
	return StatusChanged{BaseEvent: newBase(ideaID, TypeStatusChanged, actor, version, at), From: from, To: to}
}

// IdeaRemoved is raised when an idea is tombstoned
type IdeaRemoved struct {
	BaseEvent
}

// NewIdeaRemoved creates an IdeaRemoved event
func NewIdeaRemoved(ideaID, actor string, version int, at time.Time) IdeaRemoved {
	return IdeaRemoved{BaseEvent: newBase(ideaID, TypeIdeaRemoved, actor, version, at)}
}

// IdeaVoted is raised when a vote is added
type IdeaVoted struct {
	BaseEvent
	VoteID    string `json:"vote_id"`
	CreatedBy string `json:"created_by"`
	Title     string `json:"title"`
	VoteCount int    `json:"vote_count"`
}

// NewIdeaVoted creates an IdeaVoted event
func NewIdeaVoted(ideaID, voteID, voter, createdBy, title string, voteCount, version int, at time.Time) IdeaVoted {
	return IdeaVoted{
		BaseEvent: newBase(ideaID, TypeIdeaVoted, voter, version, at),
		VoteID:    voteID,
		CreatedBy: createdBy,
		Title:     title,
		VoteCount: voteCount,
	}
}

// IdeaUnvoted is raised when a vote is withdrawn
type IdeaUnvoted struct {
	BaseEvent
	VoteID    string `json:"vote_id"`
	VoteCount int    `json:"vote_count"`
}

// NewIdeaUnvoted creates an IdeaUnvoted event
func NewIdeaUnvoted(ideaID, voteID, voter string, voteCount, version int, at time.Time) IdeaUnvoted {
	return IdeaUnvoted{
		BaseEvent: newBase(ideaID, TypeIdeaUnvoted, voter, version, at),
		VoteID:    voteID,
		VoteCount: voteCount,
	}
}

// CommentAdded is raised when a comment is attached
type CommentAdded struct {
	BaseEvent
	CommentID string `json:"comment_id"`
	Text      string `json:"text"`
	Annotated bool   `json:"annotated"`
}

// NewCommentAdded creates a CommentAdded event
func NewCommentAdded(ideaID, commentID, text, author string, annotated bool, version int, at time.Time) CommentAdded {
	return CommentAdded{
		BaseEvent: newBase(ideaID, TypeCommentAdded, author, version, at),
		CommentID: commentID,
		Text:      text,
		Annotated: annotated,
	}
}

// CommentRemoved is raised when a comment is tombstoned
type CommentRemoved struct {
	BaseEvent
	CommentID string `json:"comment_id"`
}

// NewCommentRemoved creates a CommentRemoved event
func NewCommentRemoved(ideaID, commentID, actor string, version int, at time.Time) CommentRemoved {
	return CommentRemoved{BaseEvent: newBase(ideaID, TypeCommentRemoved, actor, version, at), CommentID: commentID}
}

// CommentAnnotated is raised when a missing annotation is filled in later
type CommentAnnotated struct {
	BaseEvent
	CommentID string `json:"comment_id"`
	Sentiment string `json:"sentiment"`
}

// NewCommentAnnotated creates a CommentAnnotated event
func NewCommentAnnotated(ideaID, commentID, sentiment, actor string, version int, at time.Time) CommentAnnotated {
	return CommentAnnotated{
		BaseEvent: newBase(ideaID, TypeCommentAnnotated, actor, version, at),
		CommentID: commentID,
		Sentiment: sentiment,
	}
}
