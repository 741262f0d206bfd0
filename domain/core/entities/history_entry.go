package entities

import "time"

// HistoryEntry is one immutable record in an idea's journal. Only the fields
// supplied by the change are set.
type HistoryEntry struct {
	id          string
	title       *string
	description *string
	status      *string
	actor       string
	at          time.Time
}

// Change lists the fields supplied by one mutation. Nil means not supplied.
type Change struct {
	Title       *string
	Description *string
	Status      *string
}

// IsEmpty reports a change that supplies nothing.
func (c Change) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.Status == nil
}

// NewHistoryEntry records a change.
func NewHistoryEntry(id string, change Change, actor string, at time.Time) HistoryEntry {
	return HistoryEntry{
		id:          id,
		title:       copyString(change.Title),
		description: copyString(change.Description),
		status:      copyString(change.Status),
		actor:       actor,
		at:          at.UTC(),
	}
}

func (h HistoryEntry) ID() string      { return h.id }
func (h HistoryEntry) Actor() string   { return h.actor }
func (h HistoryEntry) At() time.Time   { return h.at }
func (h HistoryEntry) Title() *string  { return copyString(h.title) }
func (h HistoryEntry) Status() *string { return copyString(h.status) }

// Description returns the recorded description, nil when not part of the change.
func (h HistoryEntry) Description() *string {
	return copyString(h.description)
}

// Change returns the recorded fields.
func (h HistoryEntry) Change() Change {
	return Change{Title: h.Title(), Description: h.Description(), Status: h.Status()}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// StringPtr is a small helper for building changes.
func StringPtr(s string) *string {
	return &s
}
