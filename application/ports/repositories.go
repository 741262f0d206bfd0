package ports

import (
	"context"
	"time"

	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/listing"
	"ideabox/domain/core/valueobjects"
	"ideabox/domain/events"
)

// IdeaRepository defines the interface for idea persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type IdeaRepository interface {
	// Load retrieves an idea with every vote, comment and history entry,
	// tombstoned ones included. A missing id is a NotFound error.
	Load(ctx context.Context, id valueobjects.IdeaID) (*aggregates.Idea, error)

	// Save replaces the whole aggregate atomically. It must fail with a
	// VersionConflict when the stored version differs from idea.PersistedVersion().
	Save(ctx context.Context, idea *aggregates.Idea) error

	// LoadMany retrieves the ideas that exist; unknown ids are skipped.
	LoadMany(ctx context.Context, ids []valueobjects.IdeaID) ([]*aggregates.Idea, error)

	// ListActive returns active ideas matching filter, ranked by order.
	ListActive(ctx context.Context, filter listing.Filter, order listing.SortOrder) ([]*aggregates.Idea, error)

	// ActiveTitles returns the folded titles of all active ideas.
	ActiveTitles(ctx context.Context) ([]string, error)

	// LoadHistory returns the journal of an idea, including a removed one.
	LoadHistory(ctx context.Context, id valueobjects.IdeaID) ([]entities.HistoryEntry, error)
}

// StatusChoiceRepository defines the interface for status choice persistence
type StatusChoiceRepository interface {
	// List returns every choice ordered by code
	List(ctx context.Context) ([]entities.StatusChoice, error)

	// Create stores a new choice. An existing code is a StatusCodeTaken conflict.
	Create(ctx context.Context, choice entities.StatusChoice) error
}

// EventStore defines the interface for event persistence
type EventStore interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves events for an aggregate
	GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value []byte, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error
}

// TitleLock serializes the duplicate-title check across writers.
type TitleLock interface {
	// Acquire takes the lock for key and returns its release function.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// SentimentProvider annotates comment text. The engine treats the result as opaque.
type SentimentProvider interface {
	Annotate(ctx context.Context, text string) (entities.Annotation, error)
}

// VoteNotice is what the creator of an idea is told about a new vote.
type VoteNotice struct {
	IdeaID    string
	Title     string
	Recipient string
	Voter     string
	VoteCount int
	At        time.Time
}

// Notifier delivers best-effort notices.
type Notifier interface {
	NotifyVote(ctx context.Context, notice VoteNotice) error
}

// ContactDirectory resolves user ids to contact details.
type ContactDirectory interface {
	// EmailOf returns the address on file, or "" when there is none.
	EmailOf(ctx context.Context, userID string) (string, error)
}

// RoleDirectory returns roles granted to a user outside of the token.
type RoleDirectory interface {
	RolesOf(ctx context.Context, userID string) (valueobjects.RoleSet, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Metrics records engine counters.
type Metrics interface {
	IncCounter(name string, labels map[string]string)
	ObserveDuration(name string, d time.Duration, labels map[string]string)
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) IncCounter(string, map[string]string)                     {}
func (NoopMetrics) ObserveDuration(string, time.Duration, map[string]string) {}
