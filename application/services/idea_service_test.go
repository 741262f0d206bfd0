package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ideabox/application/ports"
	"ideabox/application/ports/mocks"
	"ideabox/domain/config"
	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/listing"
	"ideabox/domain/core/valueobjects"
	"ideabox/domain/events"
	"ideabox/infrastructure/persistence/memory"
	pkgerrors "ideabox/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	alice = valueobjects.NewActor("alice", valueobjects.NewRoleSet())
	bob   = valueobjects.NewActor("bob", valueobjects.NewRoleSet())
	admin = valueobjects.NewActor("root", valueobjects.NewRoleSet(valueobjects.RoleAdmin))
	mod   = valueobjects.NewActor("mona", valueobjects.NewRoleSet(valueobjects.RoleModerator))
)

type harness struct {
	svc   *IdeaService
	repo  *memory.IdeaRepository
	clock *mocks.FixedClock
}

type harnessOption func(*harnessDeps)

type harnessDeps struct {
	cfg        *config.DomainConfig
	sentiment  ports.SentimentProvider
	notifier   ports.Notifier
	eventStore ports.EventStore
}

func withMatchMode(mode config.TitleMatchMode) harnessOption {
	return func(d *harnessDeps) { d.cfg.TitleMatchMode = mode }
}

func withInitialStatus(code string) harnessOption {
	return func(d *harnessDeps) { d.cfg.InitialStatus = code }
}

func withSentiment(p ports.SentimentProvider) harnessOption {
	return func(d *harnessDeps) { d.sentiment = p }
}

func withNotifier(n ports.Notifier) harnessOption {
	return func(d *harnessDeps) { d.notifier = n }
}

func withEventStore(s ports.EventStore) harnessOption {
	return func(d *harnessDeps) { d.eventStore = s }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	deps := &harnessDeps{cfg: config.DefaultDomainConfig()}
	for _, opt := range opts {
		opt(deps)
	}

	clock := &mocks.FixedClock{At: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)}
	repo := memory.NewIdeaRepository()
	choices := NewStatusChoiceService(
		memory.NewStatusChoiceRepository(entities.DefaultStatusChoices(clock.At)...),
		nil, 0, clock, zap.NewNop(),
	)
	svc := NewIdeaService(repo, choices, memory.NewTitleLock(), deps.sentiment, deps.notifier, deps.eventStore, clock, nil, deps.cfg, zap.NewNop())
	return &harness{svc: svc, repo: repo, clock: clock}
}

func (h *harness) create(t *testing.T, title string, actor valueobjects.Actor) aggregates.PublicView {
	t.Helper()
	view, err := h.svc.Create(context.Background(), CreateIdeaInput{Title: title}, actor)
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	return view
}

func (h *harness) history(t *testing.T, id string) []entities.HistoryEntry {
	t.Helper()
	ideaID, err := valueobjects.NewIdeaIDFromString(id)
	require.NoError(t, err)
	entries, err := h.repo.LoadHistory(context.Background(), ideaID)
	require.NoError(t, err)
	return entries
}

func ptr(s string) *string { return &s }

func TestIdeaService_Create(t *testing.T) {
	// Arrange
	h := newHarness(t)

	// Act
	view, err := h.svc.Create(context.Background(), CreateIdeaInput{Title: "  Team Lunch ", Description: "Fridays"}, alice)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Team Lunch", view.Title)
	assert.Equal(t, "Fridays", view.Description)
	assert.Equal(t, "S100", view.StatusCode)
	assert.Equal(t, "Submitted", view.Status)
	assert.Equal(t, "alice", view.CreatedBy)
	assert.Equal(t, 1, view.Version)
	assert.Len(t, h.history(t, view.ID), 1)
}

func TestIdeaService_Create_Validation(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name  string
		input CreateIdeaInput
		actor valueobjects.Actor
		check func(error) bool
	}{
		{"empty title", CreateIdeaInput{Title: "  "}, alice, pkgerrors.IsValidation},
		{"title too long", CreateIdeaInput{Title: "This title is far longer than thirty"}, alice, pkgerrors.IsValidation},
		{"description too long", CreateIdeaInput{Title: "Ok", Description: "This description runs well past the fifty character limit"}, alice, pkgerrors.IsValidation},
		{"no actor", CreateIdeaInput{Title: "Ok"}, valueobjects.Actor{}, func(err error) bool {
			return pkgerrors.IsType(err, pkgerrors.ErrorTypeUnauthenticated)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Create(context.Background(), tt.input, tt.actor)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestIdeaService_Create_DuplicateTitle(t *testing.T) {
	tests := []struct {
		name      string
		mode      config.TitleMatchMode
		candidate string
		duplicate bool
	}{
		{"exact: case and space variant", config.TitleMatchExact, "team lunch ", true},
		{"exact: suffix is distinct", config.TitleMatchExact, "Lunch", false},
		{"exact: substring is distinct", config.TitleMatchExact, "am lu", false},
		{"suffix: trailing word collides", config.TitleMatchSuffix, "LUNCH", true},
		{"suffix: full title collides", config.TitleMatchSuffix, "Team Lunch", true},
		{"suffix: prefix is distinct", config.TitleMatchSuffix, "Team", false},
		{"contains: prefix collides", config.TitleMatchContains, "team", true},
		{"contains: inner fragment collides", config.TitleMatchContains, "m lu", true},
		{"contains: unrelated is distinct", config.TitleMatchContains, "Dinner", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			h := newHarness(t, withMatchMode(tt.mode))
			h.create(t, "Team Lunch", alice)

			// Act
			_, err := h.svc.Create(context.Background(), CreateIdeaInput{Title: tt.candidate}, bob)

			// Assert
			if tt.duplicate {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsDuplicateTitle(err))
				assert.True(t, pkgerrors.IsConflict(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIdeaService_Create_Concurrent(t *testing.T) {
	// Arrange
	h := newHarness(t)
	titles := []string{"Team Lunch", "team lunch "}
	const writers = 20

	var (
		wg   sync.WaitGroup
		errs = make([]error, writers)
	)

	// Act
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Create(context.Background(), CreateIdeaInput{Title: titles[i%len(titles)]}, bob)
		}(i)
	}
	wg.Wait()

	// Assert
	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.True(t, pkgerrors.IsDuplicateTitle(err), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, created)

	page, err := h.svc.List(context.Background(), ListIdeasInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestIdeaService_Create_InitialStatusIsNormalized(t *testing.T) {
	h := newHarness(t, withInitialStatus(" s200 "))

	view, err := h.svc.Create(context.Background(), CreateIdeaInput{Title: "Team Lunch"}, alice)

	require.NoError(t, err)
	assert.Equal(t, "S200", view.StatusCode)
	assert.NotEmpty(t, view.Status)
}

func TestIdeaService_Create_RemovedTitleIsFree(t *testing.T) {
	h := newHarness(t)
	first := h.create(t, "Team Lunch", alice)
	require.NoError(t, h.svc.Remove(context.Background(), first.ID, alice))

	_, err := h.svc.Create(context.Background(), CreateIdeaInput{Title: "team lunch"}, bob)

	assert.NoError(t, err)
}

func TestIdeaService_Get(t *testing.T) {
	h := newHarness(t)
	created := h.create(t, "Bike racks", alice)

	t.Run("active idea", func(t *testing.T) {
		view, err := h.svc.Get(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, view.ID)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, err := h.svc.Get(context.Background(), "not-a-uuid")
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := h.svc.Get(context.Background(), valueobjects.NewIdeaID().String())
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeIdeaNotFound))
	})

	t.Run("removed idea", func(t *testing.T) {
		require.NoError(t, h.svc.Remove(context.Background(), created.ID, alice))
		_, err := h.svc.Get(context.Background(), created.ID)
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestIdeaService_Update_Authorization(t *testing.T) {
	tests := []struct {
		name    string
		actor   valueobjects.Actor
		allowed bool
	}{
		{"creator", alice, true},
		{"admin", admin, true},
		{"other user", bob, false},
		{"moderator", mod, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			created := h.create(t, "Standing desks", alice)

			view, err := h.svc.Update(context.Background(), created.ID, UpdateIdeaInput{Title: ptr("Sit-stand desks")}, tt.actor)

			if tt.allowed {
				require.NoError(t, err)
				assert.Equal(t, "Sit-stand desks", view.Title)
				assert.Equal(t, tt.actor.ID, view.ModifiedBy)
				assert.Len(t, h.history(t, created.ID), 2)
			} else {
				assert.True(t, pkgerrors.IsUnauthorized(err))
				assert.Len(t, h.history(t, created.ID), 1)
			}
		})
	}
}

func TestIdeaService_Update_Journal(t *testing.T) {
	h := newHarness(t)
	created := h.create(t, "Standing desks", alice)

	// Act
	view, err := h.svc.Update(context.Background(), created.ID, UpdateIdeaInput{Status: ptr("s200"), Description: ptr("Two floors")}, alice)
	require.NoError(t, err)
	_, err = h.svc.Update(context.Background(), created.ID, UpdateIdeaInput{}, alice)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "S200", view.StatusCode)
	assert.Equal(t, "Under review", view.Status)
	assert.Equal(t, 2, view.Version)

	entries := h.history(t, created.ID)
	require.Len(t, entries, 2, "empty patch must not journal")
	last := entries[1]
	assert.Nil(t, last.Title())
	require.NotNil(t, last.Status())
	assert.Equal(t, "S200", *last.Status())
	require.NotNil(t, last.Description())
	assert.Equal(t, "Two floors", *last.Description())
	assert.Equal(t, "alice", last.Actor())
}

func TestIdeaService_Update_UnknownStatusLeavesLabelEmpty(t *testing.T) {
	h := newHarness(t)
	created := h.create(t, "Night shuttle", alice)

	view, err := h.svc.Update(context.Background(), created.ID, UpdateIdeaInput{Status: ptr("S999")}, alice)

	require.NoError(t, err)
	assert.Equal(t, "S999", view.StatusCode)
	assert.Empty(t, view.Status)
}

func TestIdeaService_Remove(t *testing.T) {
	h := newHarness(t)
	created := h.create(t, "Quiet room", alice)

	err := h.svc.Remove(context.Background(), created.ID, bob)
	assert.True(t, pkgerrors.IsUnauthorized(err))

	require.NoError(t, h.svc.Remove(context.Background(), created.ID, admin))

	err = h.svc.Remove(context.Background(), created.ID, admin)
	assert.True(t, pkgerrors.IsNotFound(err), "second removal sees a tombstone")
	assert.Len(t, h.history(t, created.ID), 1, "history survives removal")
}

func TestIdeaService_VoteLifecycle(t *testing.T) {
	// Arrange
	h := newHarness(t)
	created := h.create(t, "Free fruit", alice)
	ctx := context.Background()

	// Act / Assert
	view, err := h.svc.AddVote(ctx, created.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, view.VoteCount)

	_, err = h.svc.AddVote(ctx, created.ID, bob)
	assert.True(t, pkgerrors.IsAlreadyVoted(err))

	view, err = h.svc.RemoveVote(ctx, created.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, 0, view.VoteCount)
	assert.Empty(t, view.Votes)

	_, err = h.svc.RemoveVote(ctx, created.ID, bob)
	assert.True(t, pkgerrors.IsVoteNotFound(err))

	view, err = h.svc.AddVote(ctx, created.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, 1, view.VoteCount)
	require.Len(t, view.Votes, 1)
	assert.Equal(t, "bob", view.Votes[0].CreatedBy)

	ideaID, _ := valueobjects.NewIdeaIDFromString(created.ID)
	stored, err := h.repo.Load(ctx, ideaID)
	require.NoError(t, err)
	assert.Len(t, stored.Votes(), 2, "tombstoned vote stays in storage")
	assert.Len(t, h.history(t, created.ID), 1, "votes are not journaled")
}

func TestIdeaService_AddVote_NotificationIsBestEffort(t *testing.T) {
	// Arrange
	notifier := new(mocks.MockNotifier)
	notifier.On("NotifyVote", mock.Anything, mock.MatchedBy(func(n ports.VoteNotice) bool {
		return n.Recipient == "alice" && n.Voter == "bob" && n.VoteCount == 1 && n.Title == "Free fruit"
	})).Return(errors.New("smtp down"))
	h := newHarness(t, withNotifier(notifier))
	created := h.create(t, "Free fruit", alice)

	// Act
	view, err := h.svc.AddVote(context.Background(), created.ID, bob)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, view.VoteCount)
	notifier.AssertExpectations(t)
}

func TestIdeaService_AddVote_SelfVoteIsNotAnnounced(t *testing.T) {
	notifier := new(mocks.MockNotifier)
	h := newHarness(t, withNotifier(notifier))
	created := h.create(t, "Free fruit", alice)

	_, err := h.svc.AddVote(context.Background(), created.ID, alice)

	require.NoError(t, err)
	notifier.AssertNotCalled(t, "NotifyVote", mock.Anything, mock.Anything)
}

func TestIdeaService_Comments(t *testing.T) {
	sentiment := new(mocks.MockSentimentProvider)
	sentiment.On("Annotate", mock.Anything, "Love it").
		Return(entities.Annotation{Sentiment: "positive", EvaluationID: "eval-1"}, nil)
	sentiment.On("Annotate", mock.Anything, "Meh").
		Return(entities.Annotation{}, errors.New("provider timeout"))

	h := newHarness(t, withSentiment(sentiment))
	created := h.create(t, "Team Lunch", alice)
	ctx := context.Background()

	t.Run("annotated comment", func(t *testing.T) {
		view, err := h.svc.AddComment(ctx, created.ID, "  Love it ", bob)
		require.NoError(t, err)
		require.Len(t, view.Comments, 1)
		assert.Equal(t, "Love it", view.Comments[0].Text)
		assert.Equal(t, "positive", view.Comments[0].Sentiment)
		assert.Equal(t, "eval-1", view.Comments[0].EvaluationID)
	})

	t.Run("provider failure leaves annotation empty", func(t *testing.T) {
		view, err := h.svc.AddComment(ctx, created.ID, "Meh", bob)
		require.NoError(t, err)
		require.Len(t, view.Comments, 2)
		assert.Empty(t, view.Comments[1].Sentiment)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := h.svc.AddComment(ctx, created.ID, "   ", bob)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("admin cannot remove another author's comment", func(t *testing.T) {
		view, err := h.svc.Get(ctx, created.ID)
		require.NoError(t, err)
		err = h.svc.RemoveComment(ctx, created.ID, view.Comments[0].ID, admin)
		assert.True(t, pkgerrors.IsUnauthorized(err))
	})

	t.Run("author removes own comment", func(t *testing.T) {
		view, err := h.svc.Get(ctx, created.ID)
		require.NoError(t, err)
		commentID := view.Comments[0].ID

		require.NoError(t, h.svc.RemoveComment(ctx, created.ID, commentID, bob))

		view, err = h.svc.Get(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, view.Comments, 1)
		assert.NotEqual(t, commentID, view.Comments[0].ID)

		err = h.svc.RemoveComment(ctx, created.ID, commentID, bob)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCommentNotFound))
	})
}

func TestIdeaService_AnnotateComment(t *testing.T) {
	sentiment := new(mocks.MockSentimentProvider)
	sentiment.On("Annotate", mock.Anything, "Great").Return(entities.Annotation{}, errors.New("down")).Once()
	h := newHarness(t, withSentiment(sentiment))
	created := h.create(t, "Team Lunch", alice)
	ctx := context.Background()

	view, err := h.svc.AddComment(ctx, created.ID, "Great", bob)
	require.NoError(t, err)
	commentID := view.Comments[0].ID

	sentiment.On("Annotate", mock.Anything, "Great").Return(entities.Annotation{Sentiment: "positive"}, nil).Once()

	// Act
	annotated, err := h.svc.AnnotateComment(ctx, created.ID, commentID)

	// Assert
	require.NoError(t, err)
	assert.True(t, annotated)
	view, err = h.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "positive", view.Comments[0].Sentiment)

	annotated, err = h.svc.AnnotateComment(ctx, created.ID, commentID)
	require.NoError(t, err)
	assert.False(t, annotated, "already annotated")
	sentiment.AssertExpectations(t)
}

func TestIdeaService_BulkStatusUpdate(t *testing.T) {
	// Arrange
	h := newHarness(t)
	ctx := context.Background()
	a := h.create(t, "Idea A", alice)
	b := h.create(t, "Idea B", alice)
	_, err := h.svc.Update(ctx, a.ID, UpdateIdeaInput{Status: ptr("S200")}, alice)
	require.NoError(t, err)
	beforeA := len(h.history(t, a.ID))
	beforeB := len(h.history(t, b.ID))

	// Act
	result, err := h.svc.BulkStatusUpdate(ctx, []string{a.ID, b.ID, valueobjects.NewIdeaID().String()}, "S200", mod)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.ModifiedCount)
	assert.Empty(t, result.Conflicts)
	assert.Len(t, h.history(t, a.ID), beforeA)
	assert.Len(t, h.history(t, b.ID), beforeB+1)

	viewB, err := h.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "S200", viewB.StatusCode)
	assert.Equal(t, "mona", viewB.ModifiedBy)
}

func TestIdeaService_BulkStatusUpdate_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.BulkStatusUpdate(context.Background(), nil, "S200", alice)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = h.svc.BulkStatusUpdate(context.Background(), []string{valueobjects.NewIdeaID().String()}, " ", alice)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestIdeaService_BulkStatusUpdate_MalformedIDs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.create(t, "Idea A", alice)
	b := h.create(t, "Idea B", alice)
	_, err := h.svc.Update(ctx, a.ID, UpdateIdeaInput{Status: ptr("S200")}, alice)
	require.NoError(t, err)

	tests := []struct {
		name         string
		ids          []string
		wantModified int
	}{
		{"only malformed", []string{"nope"}, 0},
		{"malformed mixed with valid", []string{a.ID, b.ID, "not-a-uuid"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.svc.BulkStatusUpdate(ctx, tt.ids, "S200", mod)

			require.NoError(t, err)
			assert.Equal(t, tt.wantModified, result.ModifiedCount)
		})
	}

	viewB, err := h.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "S200", viewB.StatusCode)
}

func TestIdeaService_List(t *testing.T) {
	// Arrange
	h := newHarness(t)
	ctx := context.Background()
	lunch := h.create(t, "Team Lunch", alice)
	bikes := h.create(t, "Bike racks", alice)
	learn := h.create(t, "Lunch and learn", bob)
	removed := h.create(t, "Late lunch", bob)
	require.NoError(t, h.svc.Remove(ctx, removed.ID, bob))

	for _, voter := range []valueobjects.Actor{alice, bob, mod} {
		_, err := h.svc.AddVote(ctx, lunch.ID, voter)
		require.NoError(t, err)
	}
	_, err := h.svc.AddVote(ctx, learn.ID, mod)
	require.NoError(t, err)

	ids := func(views []aggregates.PublicView) []string {
		out := make([]string, 0, len(views))
		for _, v := range views {
			out = append(out, v.ID)
		}
		return out
	}

	tests := []struct {
		name  string
		input ListIdeasInput
		want  []string
	}{
		{"newest first", ListIdeasInput{}, []string{learn.ID, bikes.ID, lunch.ID}},
		{"search ignores case", ListIdeasInput{Search: "LUNCH"}, []string{learn.ID, lunch.ID}},
		{"suffix search", ListIdeasInput{Search: "lunch", SearchMode: config.TitleMatchSuffix}, []string{lunch.ID}},
		{"favourites by votes", ListIdeasInput{FavouritesOf: "mona"}, []string{lunch.ID, learn.ID}},
		{"explicit most voted", ListIdeasInput{Sort: listing.SortMostVoted}, []string{lunch.ID, learn.ID, bikes.ID}},
		{"paged", ListIdeasInput{Limit: 1, Offset: 1}, []string{bikes.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := h.svc.List(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page.Ideas))
		})
	}
}

func TestIdeaService_List_Window(t *testing.T) {
	h := newHarness(t)
	for _, title := range []string{"Idea A", "Idea B", "Idea C", "Idea D"} {
		h.create(t, title, alice)
	}

	tests := []struct {
		name     string
		limit    int
		offset   int
		wantLen  int
		wantMore bool
	}{
		{"first page", 2, 0, 2, true},
		{"last page exactly full", 2, 2, 2, false},
		{"unbounded", 0, 0, 4, false},
		{"offset past end", 2, 8, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := h.svc.List(context.Background(), ListIdeasInput{Limit: tt.limit, Offset: tt.offset})

			require.NoError(t, err)
			assert.Len(t, page.Ideas, tt.wantLen)
			assert.Equal(t, 4, page.Total)
			assert.Equal(t, tt.wantMore, page.HasMore)
		})
	}
}

func TestIdeaService_History(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.create(t, "Team Lunch", alice)
	_, err := h.svc.Update(ctx, created.ID, UpdateIdeaInput{Title: ptr("Team Dinner")}, alice)
	require.NoError(t, err)
	h.clock.Advance(time.Minute)
	_, err = h.svc.Update(ctx, created.ID, UpdateIdeaInput{Status: ptr("S300")}, admin)
	require.NoError(t, err)

	t.Run("stranger is refused", func(t *testing.T) {
		_, err := h.svc.History(ctx, created.ID, bob, nil)
		assert.True(t, pkgerrors.IsUnauthorized(err))
	})

	t.Run("creator sees the journal", func(t *testing.T) {
		view, err := h.svc.History(ctx, created.ID, alice, nil)
		require.NoError(t, err)
		assert.Len(t, view.Entries, 3)
		assert.Len(t, view.Revisions, 3)
		assert.Nil(t, view.State)
	})

	t.Run("moderator replays to an instant", func(t *testing.T) {
		at := h.clock.At.Add(-30 * time.Second)
		view, err := h.svc.History(ctx, created.ID, mod, &at)
		require.NoError(t, err)
		require.NotNil(t, view.State)
		assert.Equal(t, "Team Dinner", view.State.Title)
		assert.Equal(t, "S100", view.State.Status)
	})

	t.Run("removed idea stays auditable", func(t *testing.T) {
		require.NoError(t, h.svc.Remove(ctx, created.ID, alice))
		view, err := h.svc.History(ctx, created.ID, mod, nil)
		require.NoError(t, err)
		assert.Len(t, view.Entries, 3)
	})
}

func TestIdeaService_JournalsEvents(t *testing.T) {
	store := new(mocks.MockEventStore)
	store.On("SaveEvents", mock.Anything, mock.MatchedBy(func(evts []events.DomainEvent) bool {
		return len(evts) == 1 && evts[0].GetEventType() == events.TypeIdeaCreated
	})).Return(errors.New("table throttled"))
	h := newHarness(t, withEventStore(store))

	_, err := h.svc.Create(context.Background(), CreateIdeaInput{Title: "Team Lunch"}, alice)

	assert.NoError(t, err, "journal failure does not fail the mutation")
	store.AssertExpectations(t)
}

func TestIdeaService_SaveFailures(t *testing.T) {
	tests := []struct {
		name    string
		saveErr func(id string) error
		check   func(error) bool
	}{
		{
			name:    "version conflict passes through",
			saveErr: func(id string) error { return pkgerrors.NewVersionConflictError(id, 1) },
			check:   pkgerrors.IsVersionConflict,
		},
		{
			name:    "driver error becomes storage failure",
			saveErr: func(string) error { return errors.New("connection reset") },
			check:   pkgerrors.IsStorageFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			title, err := valueobjects.NewTitle("Team Lunch")
			require.NoError(t, err)
			stored, err := aggregates.NewIdea(title, valueobjects.Description{}, "S100", "alice", time.Now())
			require.NoError(t, err)
			stored.MarkPersisted()

			repo := new(mocks.MockIdeaRepository)
			repo.On("Load", mock.Anything, stored.ID()).Return(stored, nil)
			repo.On("Save", mock.Anything, stored).Return(tt.saveErr(stored.ID().String()))
			choices := NewStatusChoiceService(memory.NewStatusChoiceRepository(), nil, 0, nil, nil)
			svc := NewIdeaService(repo, choices, nil, nil, nil, nil, nil, nil, nil, nil)

			// Act
			_, err = svc.AddVote(context.Background(), stored.ID().String(), bob)

			// Assert
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
			repo.AssertExpectations(t)
		})
	}
}
