package entities

import "time"

// Annotation is sentiment data attached to a comment by an external provider.
// The engine stores it as-is and never interprets it.
type Annotation struct {
	Sentiment    string `json:"sentiment,omitempty"`
	EvaluationID string `json:"evaluation_id,omitempty"`
}

// IsZero reports a missing annotation.
func (a Annotation) IsZero() bool {
	return a.Sentiment == "" && a.EvaluationID == ""
}

// Comment is a remark on an idea. Only its author may tombstone it.
type Comment struct {
	id         string
	text       string
	author     string
	annotation Annotation
	active     bool
	created    Stamp
	modified   Stamp
}

// NewComment creates an active comment.
func NewComment(id, text, author string, annotation Annotation, at time.Time) Comment {
	stamp := NewStamp(author, at)
	return Comment{
		id:         id,
		text:       text,
		author:     author,
		annotation: annotation,
		active:     true,
		created:    stamp,
		modified:   stamp,
	}
}

// ReconstructComment rebuilds a comment from storage.
func ReconstructComment(id, text, author string, annotation Annotation, active bool, created, modified Stamp) Comment {
	return Comment{
		id:         id,
		text:       text,
		author:     author,
		annotation: annotation,
		active:     active,
		created:    created,
		modified:   modified,
	}
}

func (c Comment) ID() string             { return c.id }
func (c Comment) Text() string           { return c.text }
func (c Comment) Author() string         { return c.author }
func (c Comment) Annotation() Annotation { return c.annotation }
func (c Comment) IsActive() bool         { return c.active }
func (c Comment) Created() Stamp         { return c.created }
func (c Comment) Modified() Stamp        { return c.modified }

// IsAuthoredBy reports whether actor wrote the comment.
func (c Comment) IsAuthoredBy(actor string) bool {
	return c.author == actor
}

// Deactivate returns the tombstoned comment.
func (c Comment) Deactivate(by string, at time.Time) Comment {
	c.active = false
	c.modified = NewStamp(by, at)
	return c
}

// Annotate returns the comment with its annotation replaced.
func (c Comment) Annotate(a Annotation, at time.Time) Comment {
	c.annotation = a
	c.modified = NewStamp(c.modified.By, at)
	return c
}
