package aggregates

import (
	"math"
	"strings"
	"time"

	"ideabox/domain/config"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/policy"
	"ideabox/domain/core/valueobjects"
	"ideabox/domain/events"
	pkgerrors "ideabox/pkg/errors"
)

// Idea is the aggregate root. It exclusively owns its votes, comments and
// history; they are loaded and saved with it as one unit.
//
// Nothing is ever removed from the owned collections. Removal tombstones the
// record and the history journal only grows.
type Idea struct {
	id          valueobjects.IdeaID
	title       valueobjects.Title
	description valueobjects.Description
	status      valueobjects.StatusCode
	voteCount   int
	votes       []entities.Vote
	comments    []entities.Comment
	history     []entities.HistoryEntry
	created     entities.Stamp
	modified    entities.Stamp
	active      bool

	// version is the value the next save will write. persistedVersion is the
	// value the store held when the idea was loaded; zero for a new idea.
	version          int
	persistedVersion int

	events []events.DomainEvent
}

// Patch carries the optional fields of an update. Nil means not supplied.
type Patch struct {
	Title       *valueobjects.Title
	Description *valueobjects.Description
	Status      *valueobjects.StatusCode
}

// IsEmpty reports a patch that supplies nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// NewIdea creates a submitted idea and writes its first history entry.
func NewIdea(title valueobjects.Title, description valueobjects.Description, status valueobjects.StatusCode, creator string, at time.Time) (*Idea, error) {
	creator = strings.TrimSpace(creator)
	if creator == "" {
		return nil, pkgerrors.NewValidationError("creator cannot be empty")
	}
	if status == "" {
		return nil, pkgerrors.NewValidationError("initial status cannot be empty")
	}

	stamp := entities.NewStamp(creator, at)
	idea := &Idea{
		id:          valueobjects.NewIdeaID(),
		title:       title,
		description: description,
		status:      status,
		votes:       []entities.Vote{},
		comments:    []entities.Comment{},
		history:     []entities.HistoryEntry{},
		created:     stamp,
		modified:    stamp,
		active:      true,
		version:     1,
		events:      []events.DomainEvent{},
	}

	initial := entities.Change{
		Title:  entities.StringPtr(title.String()),
		Status: entities.StringPtr(status.String()),
	}
	if !description.IsEmpty() {
		initial.Description = entities.StringPtr(description.String())
	}
	idea.appendHistory(initial, creator, at)

	idea.addEvent(events.NewIdeaCreated(idea.id.String(), title.String(), status.String(), creator, idea.version, stamp.At))
	return idea, nil
}

// Snapshot is the storage shape of an idea. Adapters translate it to their
// own records; it is not a public projection.
type Snapshot struct {
	ID          string
	Title       string
	Description string
	Status      string
	Votes       []entities.Vote
	Comments    []entities.Comment
	History     []entities.HistoryEntry
	Created     entities.Stamp
	Modified    entities.Stamp
	Active      bool
	Version     int
}

// ReconstructIdea rebuilds an idea from storage. The vote count is always
// recomputed from the votes; any stored count is ignored.
func ReconstructIdea(s Snapshot) (*Idea, error) {
	id, err := valueobjects.NewIdeaIDFromString(s.ID)
	if err != nil {
		return nil, pkgerrors.NewStorageError("reconstruct idea", err)
	}
	if s.Created.By == "" {
		return nil, pkgerrors.NewStorageError("reconstruct idea", pkgerrors.NewValidationError("creator missing"))
	}

	idea := &Idea{
		id:               id,
		title:            titleFromStorage(s.Title),
		description:      descriptionFromStorage(s.Description),
		status:           valueobjects.StatusCode(s.Status),
		votes:            append([]entities.Vote{}, s.Votes...),
		comments:         append([]entities.Comment{}, s.Comments...),
		history:          append([]entities.HistoryEntry{}, s.History...),
		created:          s.Created,
		modified:         s.Modified,
		active:           s.Active,
		version:          s.Version,
		persistedVersion: s.Version,
		events:           []events.DomainEvent{},
	}
	idea.recountVotes()
	return idea, nil
}

// Snapshot exports the full stored state, including tombstoned records and history.
func (i *Idea) Snapshot() Snapshot {
	return Snapshot{
		ID:          i.id.String(),
		Title:       i.title.String(),
		Description: i.description.String(),
		Status:      i.status.String(),
		Votes:       i.Votes(),
		Comments:    i.Comments(),
		History:     i.History(),
		Created:     i.created,
		Modified:    i.modified,
		Active:      i.active,
		Version:     i.version,
	}
}

func (i *Idea) ID() valueobjects.IdeaID               { return i.id }
func (i *Idea) Title() valueobjects.Title             { return i.title }
func (i *Idea) Description() valueobjects.Description { return i.description }
func (i *Idea) Status() valueobjects.StatusCode       { return i.status }
func (i *Idea) VoteCount() int                        { return i.voteCount }
func (i *Idea) CreatedBy() string                     { return i.created.By }
func (i *Idea) CreatedAt() time.Time                  { return i.created.At }
func (i *Idea) Modified() entities.Stamp              { return i.modified }
func (i *Idea) IsActive() bool                        { return i.active }
func (i *Idea) Version() int                          { return i.version }
func (i *Idea) PersistedVersion() int                 { return i.persistedVersion }

// IsNew reports an idea that has never been saved.
func (i *Idea) IsNew() bool {
	return i.persistedVersion == 0
}

// Votes returns every vote, active or not.
func (i *Idea) Votes() []entities.Vote {
	out := make([]entities.Vote, len(i.votes))
	copy(out, i.votes)
	return out
}

// Comments returns every comment, active or not.
func (i *Idea) Comments() []entities.Comment {
	out := make([]entities.Comment, len(i.comments))
	copy(out, i.comments)
	return out
}

// History returns the journal in append order.
func (i *Idea) History() []entities.HistoryEntry {
	out := make([]entities.HistoryEntry, len(i.history))
	copy(out, i.history)
	return out
}

// HasActiveVoteBy reports whether voter currently supports the idea.
func (i *Idea) HasActiveVoteBy(voter string) bool {
	_, ok := i.activeVoteIndex(voter)
	return ok
}

// ActiveComment returns the active comment with the given id.
func (i *Idea) ActiveComment(commentID string) (entities.Comment, bool) {
	idx, ok := i.activeCommentIndex(commentID)
	if !ok {
		return entities.Comment{}, false
	}
	return i.comments[idx], true
}

// Update applies the supplied fields and journals them as one entry.
// It reports whether anything was supplied. Authorization is the caller's job.
func (i *Idea) Update(p Patch, actor string, at time.Time) (bool, error) {
	if err := i.ensureActive(); err != nil {
		return false, err
	}
	if p.IsEmpty() {
		return false, nil
	}

	change := entities.Change{}
	var newTitle, newDescription *string
	if p.Title != nil {
		i.title = *p.Title
		change.Title = entities.StringPtr(p.Title.String())
		newTitle = change.Title
	}
	if p.Description != nil {
		i.description = *p.Description
		change.Description = entities.StringPtr(p.Description.String())
		newDescription = change.Description
	}

	previousStatus := i.status
	if p.Status != nil {
		i.status = *p.Status
		change.Status = entities.StringPtr(p.Status.String())
	}

	i.touch(actor, at)
	i.appendHistory(change, actor, at)

	if newTitle != nil || newDescription != nil {
		i.addEvent(events.NewIdeaUpdated(i.id.String(), newTitle, newDescription, actor, i.version, i.modified.At))
	}
	if p.Status != nil && previousStatus != *p.Status {
		i.addEvent(events.NewStatusChanged(i.id.String(), previousStatus.String(), p.Status.String(), actor, i.version, i.modified.At))
	}
	return true, nil
}

// ChangeStatus moves the idea to status. An idea already at status is left
// untouched and false is returned.
func (i *Idea) ChangeStatus(status valueobjects.StatusCode, actor string, at time.Time) (bool, error) {
	if err := i.ensureActive(); err != nil {
		return false, err
	}
	if i.status == status {
		return false, nil
	}

	previous := i.status
	i.status = status
	i.touch(actor, at)
	i.appendHistory(entities.Change{Status: entities.StringPtr(status.String())}, actor, at)
	i.addEvent(events.NewStatusChanged(i.id.String(), previous.String(), status.String(), actor, i.version, i.modified.At))
	return true, nil
}

// Remove tombstones the idea. Its votes, comments and history stay intact.
func (i *Idea) Remove(actor string, at time.Time) error {
	if err := i.ensureActive(); err != nil {
		return err
	}
	i.active = false
	i.touch(actor, at)
	i.addEvent(events.NewIdeaRemoved(i.id.String(), actor, i.version, i.modified.At))
	return nil
}

// AddVote records voter's support. A voter holds at most one active vote.
func (i *Idea) AddVote(voter string, at time.Time) (entities.Vote, error) {
	if err := i.ensureActive(); err != nil {
		return entities.Vote{}, err
	}
	if voter == "" {
		return entities.Vote{}, pkgerrors.NewValidationError("voter cannot be empty")
	}
	if i.HasActiveVoteBy(voter) {
		return entities.Vote{}, pkgerrors.NewAlreadyVotedError(i.id.String(), voter)
	}

	vote := entities.NewVote(valueobjects.NewEntityID(), voter, at)
	i.votes = append(i.votes, vote)
	i.recountVotes()
	i.touch(voter, at)
	i.addEvent(events.NewIdeaVoted(i.id.String(), vote.ID(), voter, i.created.By, i.title.String(), i.voteCount, i.version, i.modified.At))
	return vote, nil
}

// RemoveVote tombstones voter's active vote.
func (i *Idea) RemoveVote(voter string, at time.Time) error {
	if err := i.ensureActive(); err != nil {
		return err
	}
	idx, ok := i.activeVoteIndex(voter)
	if !ok {
		return pkgerrors.NewVoteNotFoundError(i.id.String(), voter)
	}

	i.votes[idx] = i.votes[idx].Deactivate(voter, at)
	i.recountVotes()
	i.touch(voter, at)
	i.addEvent(events.NewIdeaUnvoted(i.id.String(), i.votes[idx].ID(), voter, i.voteCount, i.version, i.modified.At))
	return nil
}

// AddComment appends an active comment. The annotation is stored as given.
func (i *Idea) AddComment(text, author string, annotation entities.Annotation, at time.Time) (entities.Comment, error) {
	if err := i.ensureActive(); err != nil {
		return entities.Comment{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return entities.Comment{}, pkgerrors.NewValidationError("comment text cannot be empty").WithDetail("field", "text")
	}
	if author == "" {
		return entities.Comment{}, pkgerrors.NewValidationError("author cannot be empty")
	}

	comment := entities.NewComment(valueobjects.NewEntityID(), text, author, annotation, at)
	i.comments = append(i.comments, comment)
	i.touch(author, at)
	i.addEvent(events.NewCommentAdded(i.id.String(), comment.ID(), text, author, !annotation.IsZero(), i.version, i.modified.At))
	return comment, nil
}

// RemoveComment tombstones a comment. Only its author may do so.
func (i *Idea) RemoveComment(commentID string, actor valueobjects.Actor, at time.Time) error {
	if err := i.ensureActive(); err != nil {
		return err
	}
	idx, ok := i.activeCommentIndex(commentID)
	if !ok {
		return pkgerrors.NewCommentNotFoundError(i.id.String(), commentID)
	}
	if err := policy.CanRemoveComment(actor, i.comments[idx].Author()); err != nil {
		return err
	}

	i.comments[idx] = i.comments[idx].Deactivate(actor.ID, at)
	i.touch(actor.ID, at)
	i.addEvent(events.NewCommentRemoved(i.id.String(), commentID, actor.ID, i.version, i.modified.At))
	return nil
}

// AnnotateComment fills in a comment's annotation after the fact.
func (i *Idea) AnnotateComment(commentID string, annotation entities.Annotation, actor string, at time.Time) error {
	if err := i.ensureActive(); err != nil {
		return err
	}
	idx, ok := i.activeCommentIndex(commentID)
	if !ok {
		return pkgerrors.NewCommentNotFoundError(i.id.String(), commentID)
	}

	i.comments[idx] = i.comments[idx].Annotate(annotation, at)
	i.touch(actor, at)
	i.addEvent(events.NewCommentAnnotated(i.id.String(), commentID, annotation.Sentiment, actor, i.version, i.modified.At))
	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (i *Idea) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(i.events))
	copy(out, i.events)
	return out
}

// MarkEventsAsCommitted clears the uncommitted events
func (i *Idea) MarkEventsAsCommitted() {
	i.events = []events.DomainEvent{}
}

// MarkPersisted records a successful save at the current version.
func (i *Idea) MarkPersisted() {
	i.persistedVersion = i.version
}

// Private helper methods

func (i *Idea) ensureActive() error {
	if !i.active {
		return pkgerrors.NewIdeaNotFoundError(i.id.String())
	}
	return nil
}

// touch stamps the modifier and bumps the version once per unit of work.
func (i *Idea) touch(actor string, at time.Time) {
	i.modified = entities.NewStamp(actor, at)
	i.version = i.persistedVersion + 1
}

func (i *Idea) appendHistory(change entities.Change, actor string, at time.Time) {
	i.history = append(i.history, entities.NewHistoryEntry(valueobjects.NewEntityID(), change, actor, at))
}

func (i *Idea) recountVotes() {
	n := 0
	for _, v := range i.votes {
		if v.IsActive() {
			n++
		}
	}
	i.voteCount = n
}

func (i *Idea) activeVoteIndex(voter string) (int, bool) {
	for idx, v := range i.votes {
		if v.IsActive() && v.Voter() == voter {
			return idx, true
		}
	}
	return -1, false
}

func (i *Idea) activeCommentIndex(commentID string) (int, bool) {
	for idx, c := range i.comments {
		if c.IsActive() && c.ID() == commentID {
			return idx, true
		}
	}
	return -1, false
}

func (i *Idea) addEvent(event events.DomainEvent) {
	i.events = append(i.events, event)
}

var unlimited = &config.DomainConfig{
	MaxTitleLength:       math.MaxInt32,
	MaxDescriptionLength: math.MaxInt32,
	MaxCommentLength:     math.MaxInt32,
}

// Stored titles were validated on write; limits may have changed since, so
// they are trusted rather than revalidated.
func titleFromStorage(s string) valueobjects.Title {
	t, err := valueobjects.NewTitleWithConfig(s, unlimited)
	if err != nil {
		return valueobjects.Title{}
	}
	return t
}

func descriptionFromStorage(s string) valueobjects.Description {
	d, err := valueobjects.NewDescriptionWithConfig(s, unlimited)
	if err != nil {
		return valueobjects.Description{}
	}
	return d
}
