// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"
	"time"

	"ideabox/application/ports"
	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/listing"
	"ideabox/domain/core/valueobjects"
	"ideabox/domain/events"

	"github.com/stretchr/testify/mock"
)

// MockIdeaRepository mocks ports.IdeaRepository
type MockIdeaRepository struct {
	mock.Mock
}

func (m *MockIdeaRepository) Load(ctx context.Context, id valueobjects.IdeaID) (*aggregates.Idea, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*aggregates.Idea), args.Error(1)
}

func (m *MockIdeaRepository) Save(ctx context.Context, idea *aggregates.Idea) error {
	args := m.Called(ctx, idea)
	return args.Error(0)
}

func (m *MockIdeaRepository) LoadMany(ctx context.Context, ids []valueobjects.IdeaID) ([]*aggregates.Idea, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*aggregates.Idea), args.Error(1)
}

func (m *MockIdeaRepository) ListActive(ctx context.Context, filter listing.Filter, order listing.SortOrder) ([]*aggregates.Idea, error) {
	args := m.Called(ctx, filter, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*aggregates.Idea), args.Error(1)
}

func (m *MockIdeaRepository) ActiveTitles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockIdeaRepository) LoadHistory(ctx context.Context, id valueobjects.IdeaID) ([]entities.HistoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.HistoryEntry), args.Error(1)
}

// MockStatusChoiceRepository mocks ports.StatusChoiceRepository
type MockStatusChoiceRepository struct {
	mock.Mock
}

func (m *MockStatusChoiceRepository) List(ctx context.Context) ([]entities.StatusChoice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.StatusChoice), args.Error(1)
}

func (m *MockStatusChoiceRepository) Create(ctx context.Context, choice entities.StatusChoice) error {
	args := m.Called(ctx, choice)
	return args.Error(0)
}

// MockEventStore mocks ports.EventStore
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) SaveEvents(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

func (m *MockEventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	args := m.Called(ctx, aggregateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]events.DomainEvent), args.Error(1)
}

// MockEventPublisher mocks ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

// MockCache mocks ports.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).([]byte), args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockTitleLock mocks ports.TitleLock
type MockTitleLock struct {
	mock.Mock
}

func (m *MockTitleLock) Acquire(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func()), args.Error(1)
}

// MockSentimentProvider mocks ports.SentimentProvider
type MockSentimentProvider struct {
	mock.Mock
}

func (m *MockSentimentProvider) Annotate(ctx context.Context, text string) (entities.Annotation, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(entities.Annotation), args.Error(1)
}

// MockNotifier mocks ports.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyVote(ctx context.Context, notice ports.VoteNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}

// MockContactDirectory mocks ports.ContactDirectory
type MockContactDirectory struct {
	mock.Mock
}

func (m *MockContactDirectory) EmailOf(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// MockRoleDirectory mocks ports.RoleDirectory
type MockRoleDirectory struct {
	mock.Mock
}

func (m *MockRoleDirectory) RolesOf(ctx context.Context, userID string) (valueobjects.RoleSet, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(valueobjects.RoleSet), args.Error(1)
}

// FixedClock returns a settable instant.
type FixedClock struct {
	At time.Time
}

func (c *FixedClock) Now() time.Time { return c.At }

// Advance moves the clock forward.
func (c *FixedClock) Advance(d time.Duration) { c.At = c.At.Add(d) }
