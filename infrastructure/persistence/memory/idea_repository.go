// Package memory holds in-process adapters for local runs and tests.
package memory

import (
	"context"
	"sync"

	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/listing"
	"ideabox/domain/core/valueobjects"
	pkgerrors "ideabox/pkg/errors"
)

// IdeaRepository keeps idea snapshots in a map. Loaded aggregates never
// alias stored state.
type IdeaRepository struct {
	mu    sync.RWMutex
	ideas map[string]aggregates.Snapshot
}

func NewIdeaRepository() *IdeaRepository {
	return &IdeaRepository{ideas: make(map[string]aggregates.Snapshot)}
}

func (r *IdeaRepository) Load(_ context.Context, id valueobjects.IdeaID) (*aggregates.Idea, error) {
	r.mu.RLock()
	snap, ok := r.ideas[id.String()]
	r.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.NewIdeaNotFoundError(id.String())
	}
	return aggregates.ReconstructIdea(snap)
}

// Save writes the aggregate if the stored version still equals the version
// it was loaded at.
func (r *IdeaRepository) Save(_ context.Context, idea *aggregates.Idea) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := idea.ID().String()
	current, exists := r.ideas[id]
	switch {
	case idea.IsNew() && exists:
		return pkgerrors.NewVersionConflictError(id, idea.Version())
	case !idea.IsNew() && (!exists || current.Version != idea.PersistedVersion()):
		return pkgerrors.NewVersionConflictError(id, idea.PersistedVersion())
	}
	r.ideas[id] = idea.Snapshot()
	return nil
}

func (r *IdeaRepository) LoadMany(_ context.Context, ids []valueobjects.IdeaID) ([]*aggregates.Idea, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*aggregates.Idea, 0, len(ids))
	for _, id := range ids {
		snap, ok := r.ideas[id.String()]
		if !ok {
			continue
		}
		idea, err := aggregates.ReconstructIdea(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, idea)
	}
	return out, nil
}

func (r *IdeaRepository) ListActive(_ context.Context, filter listing.Filter, order listing.SortOrder) ([]*aggregates.Idea, error) {
	all, err := r.activeIdeas()
	if err != nil {
		return nil, err
	}
	return listing.Apply(all, filter, order), nil
}

func (r *IdeaRepository) ActiveTitles(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	titles := make([]string, 0, len(r.ideas))
	for _, snap := range r.ideas {
		if snap.Active {
			titles = append(titles, valueobjects.FoldTitle(snap.Title))
		}
	}
	return titles, nil
}

func (r *IdeaRepository) LoadHistory(_ context.Context, id valueobjects.IdeaID) ([]entities.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, ok := r.ideas[id.String()]
	if !ok {
		return nil, pkgerrors.NewIdeaNotFoundError(id.String())
	}
	return append([]entities.HistoryEntry{}, snap.History...), nil
}

func (r *IdeaRepository) activeIdeas() ([]*aggregates.Idea, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*aggregates.Idea, 0, len(r.ideas))
	for _, snap := range r.ideas {
		if !snap.Active {
			continue
		}
		idea, err := aggregates.ReconstructIdea(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, idea)
	}
	return out, nil
}
