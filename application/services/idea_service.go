package services

import (
	"context"
	"time"

	"ideabox/application/ports"
	"ideabox/domain/config"
	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/listing"
	"ideabox/domain/core/policy"
	"ideabox/domain/core/validators"
	"ideabox/domain/core/valueobjects"
	"ideabox/domain/versioning"
	pkgerrors "ideabox/pkg/errors"

	"go.uber.org/zap"
)

// SystemActor is the identity background workers act under.
const SystemActor = "system:sentiment"

// sideChannelTimeout bounds notification and sentiment calls.
const sideChannelTimeout = 3 * time.Second

// CreateIdeaInput is a submission.
type CreateIdeaInput struct {
	Title       string
	Description string
}

// UpdateIdeaInput carries the optional fields of an update.
type UpdateIdeaInput struct {
	Title       *string
	Description *string
	Status      *string
}

// ListIdeasInput selects and pages a listing.
type ListIdeasInput struct {
	FavouritesOf string
	Search       string
	SearchMode   config.TitleMatchMode
	Sort         listing.SortOrder
	Limit        int
	Offset       int
}

// IdeaPage is one window of a ranked listing. Total counts every match.
type IdeaPage struct {
	Ideas   []aggregates.PublicView `json:"ideas"`
	Total   int                     `json:"total"`
	HasMore bool                    `json:"hasMore"`
}

// BulkStatusResult reports how many ideas a bulk status update changed.
type BulkStatusResult struct {
	ModifiedCount int      `json:"modifiedCount"`
	Conflicts     []string `json:"conflicts,omitempty"`
}

// HistoryView is the audit projection of an idea's journal.
type HistoryView struct {
	IdeaID    string                `json:"ideaId"`
	Entries   []HistoryEntryView    `json:"entries"`
	Revisions []versioning.Revision `json:"revisions"`
	At        *time.Time            `json:"at,omitempty"`
	State     *versioning.Revision  `json:"state,omitempty"`
}

// HistoryEntryView is one raw journal entry.
type HistoryEntryView struct {
	ID          string    `json:"id"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IdeaService is the lifecycle engine for the idea aggregate. Every mutation
// loads the aggregate, authorizes, mutates in memory and saves the whole
// aggregate conditionally on its version.
type IdeaService struct {
	ideas      ports.IdeaRepository
	choices    *StatusChoiceService
	validator  *validators.IdeaValidator
	cfg        *config.DomainConfig
	titleLock  ports.TitleLock
	sentiment  ports.SentimentProvider
	notifier   ports.Notifier
	eventStore ports.EventStore
	clock      ports.Clock
	metrics    ports.Metrics
	logger     *zap.Logger
}

// NewIdeaService creates the engine. sentiment, notifier and eventStore may be nil.
func NewIdeaService(
	ideas ports.IdeaRepository,
	choices *StatusChoiceService,
	titleLock ports.TitleLock,
	sentiment ports.SentimentProvider,
	notifier ports.Notifier,
	eventStore ports.EventStore,
	clock ports.Clock,
	metrics ports.Metrics,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *IdeaService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdeaService{
		ideas:      ideas,
		choices:    choices,
		validator:  validators.NewIdeaValidator(cfg),
		cfg:        cfg,
		titleLock:  titleLock,
		sentiment:  sentiment,
		notifier:   notifier,
		eventStore: eventStore,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Create submits a new idea after the duplicate-title check.
func (s *IdeaService) Create(ctx context.Context, in CreateIdeaInput, actor valueobjects.Actor) (view aggregates.PublicView, err error) {
	defer s.observe("create", s.clock.Now(), &err)

	if err := requireActor(actor); err != nil {
		return aggregates.PublicView{}, err
	}
	title, description, err := s.validator.NewIdeaInput(in.Title, in.Description)
	if err != nil {
		return aggregates.PublicView{}, err
	}

	if s.titleLock != nil {
		release, err := s.titleLock.Acquire(ctx, s.titleLockKey(title))
		if err != nil {
			return aggregates.PublicView{}, err
		}
		defer release()
	}

	if err := s.checkDuplicateTitle(ctx, title); err != nil {
		return aggregates.PublicView{}, err
	}

	initial, err := valueobjects.NewStatusCode(s.cfg.InitialStatus)
	if err != nil {
		return aggregates.PublicView{}, err
	}
	idea, err := aggregates.NewIdea(title, description, initial, actor.ID, s.clock.Now())
	if err != nil {
		return aggregates.PublicView{}, err
	}
	if err := s.persist(ctx, idea); err != nil {
		return aggregates.PublicView{}, err
	}

	s.logger.Info("Idea created",
		zap.String("ideaID", idea.ID().String()),
		zap.String("actor", actor.ID),
	)
	return s.view(ctx, idea)
}

// titleLockKey scopes the lock to one folded title in exact mode. Looser
// modes compare across titles, so every creation shares one key.
func (s *IdeaService) titleLockKey(title valueobjects.Title) string {
	if s.cfg.TitleMatchMode == config.TitleMatchExact || s.cfg.TitleMatchMode == "" {
		return "title#" + title.Folded()
	}
	return "title#*"
}

func (s *IdeaService) checkDuplicateTitle(ctx context.Context, title valueobjects.Title) error {
	titles, err := s.ideas.ActiveTitles(ctx)
	if err != nil {
		return asStorageError("list active titles", err)
	}
	candidate := title.Folded()
	for _, existing := range titles {
		if valueobjects.TitleMatches(s.cfg.TitleMatchMode, existing, candidate) {
			return pkgerrors.NewDuplicateTitleError(title.String())
		}
	}
	return nil
}

// Get returns the public view of an active idea.
func (s *IdeaService) Get(ctx context.Context, id string) (aggregates.PublicView, error) {
	idea, err := s.loadActive(ctx, id)
	if err != nil {
		return aggregates.PublicView{}, err
	}
	return s.view(ctx, idea)
}

// List filters, ranks and pages active ideas.
func (s *IdeaService) List(ctx context.Context, in ListIdeasInput) (IdeaPage, error) {
	filter := listing.Filter{
		FavouritesOf: in.FavouritesOf,
		Search:       in.Search,
		SearchMode:   in.SearchMode,
	}
	order := in.Sort
	if order == "" {
		order = filter.DefaultSort()
	}

	ideas, err := s.ideas.ListActive(ctx, filter, order)
	if err != nil {
		return IdeaPage{}, asStorageError("list ideas", err)
	}
	// Adapters may over-match; the projection decides.
	ideas = listing.Apply(ideas, filter, order)

	label, err := s.choices.Labeler(ctx)
	if err != nil {
		return IdeaPage{}, err
	}
	window := listing.Page(listing.Project(ideas, label), in.Limit, in.Offset)
	return IdeaPage{
		Ideas:   window,
		Total:   len(ideas),
		HasMore: max(in.Offset, 0)+len(window) < len(ideas),
	}, nil
}

// Update applies a patch. Only the creator or an admin may update.
func (s *IdeaService) Update(ctx context.Context, id string, in UpdateIdeaInput, actor valueobjects.Actor) (view aggregates.PublicView, err error) {
	defer s.observe("update", s.clock.Now(), &err)

	patch, err := s.validator.PatchInput(in.Title, in.Description, in.Status)
	if err != nil {
		return aggregates.PublicView{}, err
	}
	idea, err := s.loadActive(ctx, id)
	if err != nil {
		return aggregates.PublicView{}, err
	}
	if err := policy.CanModifyIdea(actor, idea.CreatedBy()); err != nil {
		return aggregates.PublicView{}, err
	}

	changed, err := idea.Update(patch, actor.ID, s.clock.Now())
	if err != nil {
		return aggregates.PublicView{}, err
	}
	if changed {
		if err := s.persist(ctx, idea); err != nil {
			return aggregates.PublicView{}, err
		}
	}
	return s.view(ctx, idea)
}

// Remove tombstones an idea. Only the creator or an admin may remove.
func (s *IdeaService) Remove(ctx context.Context, id string, actor valueobjects.Actor) (err error) {
	defer s.observe("remove", s.clock.Now(), &err)

	idea, err := s.loadActive(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanModifyIdea(actor, idea.CreatedBy()); err != nil {
		return err
	}
	if err := idea.Remove(actor.ID, s.clock.Now()); err != nil {
		return err
	}
	if err := s.persist(ctx, idea); err != nil {
		return err
	}

	s.logger.Info("Idea removed", zap.String("ideaID", id), zap.String("actor", actor.ID))
	return nil
}

// AddVote records the actor's support and notifies the creator.
func (s *IdeaService) AddVote(ctx context.Context, id string, actor valueobjects.Actor) (view aggregates.PublicView, err error) {
	defer s.observe("add_vote", s.clock.Now(), &err)

	if err := requireActor(actor); err != nil {
		return aggregates.PublicView{}, err
	}
	idea, err := s.loadActive(ctx, id)
	if err != nil {
		return aggregates.PublicView{}, err
	}

	vote, err := idea.AddVote(actor.ID, s.clock.Now())
	if err != nil {
		return aggregates.PublicView{}, err
	}
	if err := s.persist(ctx, idea); err != nil {
		return aggregates.PublicView{}, err
	}

	s.notifyVote(ctx, idea, vote)
	return s.view(ctx, idea)
}

// RemoveVote withdraws the actor's active vote.
func (s *IdeaService) RemoveVote(ctx context.Context, id string, actor valueobjects.Actor) (view aggregates.PublicView, err error) {
	defer s.observe("remove_vote", s.clock.Now(), &err)

	if err := requireActor(actor); err != nil {
		return aggregates.PublicView{}, err
	}
	idea, err := s.loadActive(ctx, id)
	if err != nil {
		return aggregates.PublicView{}, err
	}
	if err := idea.RemoveVote(actor.ID, s.clock.Now()); err != nil {
		return aggregates.PublicView{}, err
	}
	if err := s.persist(ctx, idea); err != nil {
		return aggregates.PublicView{}, err
	}
	return s.view(ctx, idea)
}

// AddComment attaches a comment, annotated when the sentiment provider answers.
func (s *IdeaService) AddComment(ctx context.Context, id, text string, actor valueobjects.Actor) (view aggregates.PublicView, err error) {
	defer s.observe("add_comment", s.clock.Now(), &err)

	if err := requireActor(actor); err != nil {
		return aggregates.PublicView{}, err
	}
	text, err = s.validator.CommentText(text)
	if err != nil {
		return aggregates.PublicView{}, err
	}
	idea, err := s.loadActive(ctx, id)
	if err != nil {
		return aggregates.PublicView{}, err
	}

	annotation := s.annotate(ctx, idea.ID().String(), text)
	if _, err := idea.AddComment(text, actor.ID, annotation, s.clock.Now()); err != nil {
		return aggregates.PublicView{}, err
	}
	if err := s.persist(ctx, idea); err != nil {
		return aggregates.PublicView{}, err
	}
	return s.view(ctx, idea)
}

// RemoveComment tombstones a comment. Only its author may do so; admins get
// no override here, unlike idea removal.
func (s *IdeaService) RemoveComment(ctx context.Context, id, commentID string, actor valueobjects.Actor) (err error) {
	defer s.observe("remove_comment", s.clock.Now(), &err)

	idea, err := s.loadActive(ctx, id)
	if err != nil {
		return err
	}
	if err := idea.RemoveComment(commentID, actor, s.clock.Now()); err != nil {
		return err
	}
	return s.persist(ctx, idea)
}

// AnnotateComment fills in a missing annotation. Provider errors are returned
// so the caller can retry later. An already annotated comment is left alone.
func (s *IdeaService) AnnotateComment(ctx context.Context, id, commentID string) (annotated bool, err error) {
	defer s.observe("annotate_comment", s.clock.Now(), &err)

	if s.sentiment == nil {
		return false, pkgerrors.NewUnavailableError("sentiment")
	}
	idea, err := s.loadActive(ctx, id)
	if err != nil {
		return false, err
	}
	comment, ok := idea.ActiveComment(commentID)
	if !ok {
		return false, pkgerrors.NewCommentNotFoundError(id, commentID)
	}
	if !comment.Annotation().IsZero() {
		return false, nil
	}

	annotation, err := s.sentiment.Annotate(ctx, comment.Text())
	if err != nil {
		return false, err
	}
	if annotation.IsZero() {
		return false, nil
	}
	if err := idea.AnnotateComment(commentID, annotation, SystemActor, s.clock.Now()); err != nil {
		return false, err
	}
	if err := s.persist(ctx, idea); err != nil {
		return false, err
	}
	return true, nil
}

// BulkStatusUpdate moves every listed idea to status. Ideas already there,
// unknown ids and removed ideas are skipped. An idea changed concurrently is
// reported as a conflict and not counted.
func (s *IdeaService) BulkStatusUpdate(ctx context.Context, ids []string, status string, actor valueobjects.Actor) (result BulkStatusResult, err error) {
	defer s.observe("bulk_status_update", s.clock.Now(), &err)

	if err := requireActor(actor); err != nil {
		return BulkStatusResult{}, err
	}
	ideaIDs, err := s.validator.StatusIDs(ids)
	if err != nil {
		return BulkStatusResult{}, err
	}
	target, err := valueobjects.NewStatusCode(status)
	if err != nil {
		return BulkStatusResult{}, err
	}

	ideas, err := s.ideas.LoadMany(ctx, ideaIDs)
	if err != nil {
		return BulkStatusResult{}, asStorageError("load ideas", err)
	}

	now := s.clock.Now()
	for _, idea := range ideas {
		if !idea.IsActive() {
			continue
		}
		changed, err := idea.ChangeStatus(target, actor.ID, now)
		if err != nil {
			return result, err
		}
		if !changed {
			continue
		}
		if err := s.persist(ctx, idea); err != nil {
			if pkgerrors.IsVersionConflict(err) {
				s.logger.Warn("Skipping idea changed concurrently",
					zap.String("ideaID", idea.ID().String()),
				)
				result.Conflicts = append(result.Conflicts, idea.ID().String())
				continue
			}
			return result, err
		}
		result.ModifiedCount++
	}

	s.logger.Info("Bulk status update",
		zap.String("status", target.String()),
		zap.Int("requested", len(ideaIDs)),
		zap.Int("modified", result.ModifiedCount),
		zap.String("actor", actor.ID),
	)
	return result, nil
}

// History returns the journal of an idea, removed or not. With at set, the
// timeline is replayed to the state at that instant.
func (s *IdeaService) History(ctx context.Context, id string, actor valueobjects.Actor, at *time.Time) (HistoryView, error) {
	ideaID, err := parseIdeaID(id)
	if err != nil {
		return HistoryView{}, err
	}
	idea, err := s.ideas.Load(ctx, ideaID)
	if err != nil {
		return HistoryView{}, asStorageError("load idea", err)
	}
	if err := policy.CanAudit(actor, idea.CreatedBy()); err != nil {
		return HistoryView{}, err
	}

	entries, err := s.ideas.LoadHistory(ctx, ideaID)
	if err != nil {
		return HistoryView{}, asStorageError("load history", err)
	}

	out := HistoryView{
		IdeaID:    ideaID.String(),
		Entries:   make([]HistoryEntryView, 0, len(entries)),
		Revisions: versioning.Replay(entries),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, HistoryEntryView{
			ID:          e.ID(),
			Title:       e.Title(),
			Description: e.Description(),
			Status:      e.Status(),
			CreatedBy:   e.Actor(),
			CreatedAt:   e.At(),
		})
	}
	if at != nil {
		out.At = at
		if rev, ok := versioning.StateAt(entries, *at); ok {
			out.State = &rev
		}
	}
	return out, nil
}

// loadActive resolves id to an active idea. Malformed ids and tombstoned
// ideas are both NotFound.
func (s *IdeaService) loadActive(ctx context.Context, id string) (*aggregates.Idea, error) {
	ideaID, err := parseIdeaID(id)
	if err != nil {
		return nil, err
	}
	idea, err := s.ideas.Load(ctx, ideaID)
	if err != nil {
		return nil, asStorageError("load idea", err)
	}
	if !idea.IsActive() {
		return nil, pkgerrors.NewIdeaNotFoundError(id)
	}
	return idea, nil
}

// persist saves the aggregate and journals its events. Journal failures are
// logged only; the save is what counts.
func (s *IdeaService) persist(ctx context.Context, idea *aggregates.Idea) error {
	if err := s.ideas.Save(ctx, idea); err != nil {
		return asStorageError("save idea", err)
	}
	idea.MarkPersisted()

	pending := idea.GetUncommittedEvents()
	idea.MarkEventsAsCommitted()
	if s.eventStore == nil || len(pending) == 0 {
		return nil
	}
	if err := s.eventStore.SaveEvents(ctx, pending); err != nil {
		s.logger.Warn("Failed to journal idea events",
			zap.String("ideaID", idea.ID().String()),
			zap.Int("events", len(pending)),
			zap.Error(err),
		)
	}
	return nil
}

func (s *IdeaService) view(ctx context.Context, idea *aggregates.Idea) (aggregates.PublicView, error) {
	label, err := s.choices.Labeler(ctx)
	if err != nil {
		return aggregates.PublicView{}, err
	}
	return idea.View(label), nil
}

func (s *IdeaService) annotate(ctx context.Context, ideaID, text string) entities.Annotation {
	if s.sentiment == nil {
		return entities.Annotation{}
	}
	ctx, cancel := context.WithTimeout(ctx, sideChannelTimeout)
	defer cancel()

	annotation, err := s.sentiment.Annotate(ctx, text)
	if err != nil {
		s.logger.Warn("Sentiment annotation failed",
			zap.String("ideaID", ideaID),
			zap.Error(err),
		)
		s.metrics.IncCounter("side_channel_failures_total", map[string]string{"channel": "sentiment"})
		return entities.Annotation{}
	}
	return annotation
}

// notifyVote tells the creator about a vote. Self-votes are not announced.
func (s *IdeaService) notifyVote(ctx context.Context, idea *aggregates.Idea, vote entities.Vote) {
	if s.notifier == nil || vote.Voter() == idea.CreatedBy() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideChannelTimeout)
	defer cancel()

	notice := ports.VoteNotice{
		IdeaID:    idea.ID().String(),
		Title:     idea.Title().String(),
		Recipient: idea.CreatedBy(),
		Voter:     vote.Voter(),
		VoteCount: idea.VoteCount(),
		At:        vote.Created().At,
	}
	if err := s.notifier.NotifyVote(ctx, notice); err != nil {
		s.logger.Warn("Vote notification failed",
			zap.String("ideaID", notice.IdeaID),
			zap.String("recipient", notice.Recipient),
			zap.Error(err),
		)
		s.metrics.IncCounter("side_channel_failures_total", map[string]string{"channel": "notification"})
	}
}

func (s *IdeaService) observe(op string, start time.Time, err *error) {
	result := "ok"
	if err != nil && *err != nil {
		result = resultOf(*err)
	}
	labels := map[string]string{"operation": op, "result": result}
	s.metrics.IncCounter("idea_operations_total", labels)
	s.metrics.ObserveDuration("idea_operation_duration_seconds", s.clock.Now().Sub(start), labels)
}

func resultOf(err error) string {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		return string(appErr.Type)
	}
	return "error"
}

func parseIdeaID(id string) (valueobjects.IdeaID, error) {
	ideaID, err := valueobjects.NewIdeaIDFromString(id)
	if err != nil {
		return valueobjects.IdeaID{}, pkgerrors.NewIdeaNotFoundError(id)
	}
	return ideaID, nil
}

func requireActor(actor valueobjects.Actor) error {
	if actor.IsZero() {
		return pkgerrors.NewUnauthenticatedError("an actor identity is required")
	}
	return nil
}

// asStorageError keeps typed errors and classifies anything else as a storage failure.
func asStorageError(op string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewStorageError(op, err)
}
