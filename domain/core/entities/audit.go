package entities

import "time"

// Stamp records who touched a record and when.
type Stamp struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

// NewStamp creates a stamp in UTC.
func NewStamp(by string, at time.Time) Stamp {
	return Stamp{By: by, At: at.UTC()}
}

// IsZero reports an empty stamp.
func (s Stamp) IsZero() bool {
	return s.By == "" && s.At.IsZero()
}
