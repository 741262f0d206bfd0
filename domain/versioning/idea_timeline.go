// Package versioning replays an idea's history journal into the sequence of
// states it passed through.
package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"ideabox/domain/core/entities"
)

// Revision is the reconstructed title/description/status after one journal entry.
type Revision struct {
	Sequence    int       `json:"sequence"`
	EntryID     string    `json:"entryId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Actor       string    `json:"actor"`
	At          time.Time `json:"at"`
	Changed     []string  `json:"changed"`
	Checksum    string    `json:"checksum"`
}

// FieldChange is one difference between two revisions.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Replay folds the journal into cumulative revisions, one per entry, in journal order.
func Replay(history []entities.HistoryEntry) []Revision {
	revisions := make([]Revision, 0, len(history))
	var state Revision

	for n, entry := range history {
		state.Changed = nil
		if t := entry.Title(); t != nil {
			state.Title = *t
			state.Changed = append(state.Changed, "title")
		}
		if d := entry.Description(); d != nil {
			state.Description = *d
			state.Changed = append(state.Changed, "description")
		}
		if s := entry.Status(); s != nil {
			state.Status = *s
			state.Changed = append(state.Changed, "status")
		}
		state.Sequence = n + 1
		state.EntryID = entry.ID()
		state.Actor = entry.Actor()
		state.At = entry.At()
		state.Checksum = checksum(state)

		revisions = append(revisions, state)
	}
	return revisions
}

// StateAt returns the revision in force at instant at. It reports false when
// the journal has no entry at or before at.
func StateAt(history []entities.HistoryEntry, at time.Time) (Revision, bool) {
	var (
		found Revision
		ok    bool
	)
	for _, rev := range Replay(history) {
		if rev.At.After(at) {
			break
		}
		found, ok = rev, true
	}
	return found, ok
}

// Diff lists the fields that differ between two revisions.
func Diff(from, to Revision) []FieldChange {
	var out []FieldChange
	if from.Title != to.Title {
		out = append(out, FieldChange{Field: "title", From: from.Title, To: to.Title})
	}
	if from.Description != to.Description {
		out = append(out, FieldChange{Field: "description", From: from.Description, To: to.Description})
	}
	if from.Status != to.Status {
		out = append(out, FieldChange{Field: "status", From: from.Status, To: to.Status})
	}
	return out
}

func checksum(r Revision) string {
	data, err := json.Marshal(struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}{r.Title, r.Description, r.Status})
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
