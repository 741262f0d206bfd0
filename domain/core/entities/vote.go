package entities

import "time"

// Vote is one voter's support for an idea. It is never removed; withdrawing a
// vote tombstones it.
type Vote struct {
	id       string
	voter    string
	active   bool
	created  Stamp
	modified Stamp
}

// NewVote creates an active vote.
func NewVote(id, voter string, at time.Time) Vote {
	stamp := NewStamp(voter, at)
	return Vote{id: id, voter: voter, active: true, created: stamp, modified: stamp}
}

// ReconstructVote rebuilds a vote from storage.
func ReconstructVote(id, voter string, active bool, created, modified Stamp) Vote {
	return Vote{id: id, voter: voter, active: active, created: created, modified: modified}
}

func (v Vote) ID() string      { return v.id }
func (v Vote) Voter() string   { return v.voter }
func (v Vote) IsActive() bool  { return v.active }
func (v Vote) Created() Stamp  { return v.created }
func (v Vote) Modified() Stamp { return v.modified }

// Deactivate returns the tombstoned vote.
func (v Vote) Deactivate(by string, at time.Time) Vote {
	v.active = false
	v.modified = NewStamp(by, at)
	return v
}
