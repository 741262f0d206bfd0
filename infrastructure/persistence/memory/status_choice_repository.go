package memory

import (
	"context"
	"sort"
	"sync"

	"ideabox/domain/core/entities"
	pkgerrors "ideabox/pkg/errors"
)

// StatusChoiceRepository keeps status choices keyed by code.
type StatusChoiceRepository struct {
	mu      sync.RWMutex
	choices map[string]entities.StatusChoice
}

// NewStatusChoiceRepository creates a repository holding seed.
func NewStatusChoiceRepository(seed ...entities.StatusChoice) *StatusChoiceRepository {
	r := &StatusChoiceRepository{choices: make(map[string]entities.StatusChoice, len(seed))}
	for _, c := range seed {
		r.choices[c.Code] = c
	}
	return r
}

func (r *StatusChoiceRepository) List(_ context.Context) ([]entities.StatusChoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.StatusChoice, 0, len(r.choices))
	for _, c := range r.choices {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *StatusChoiceRepository) Create(_ context.Context, choice entities.StatusChoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.choices[choice.Code]; exists {
		return pkgerrors.NewStatusCodeTakenError(choice.Code)
	}
	r.choices[choice.Code] = choice
	return nil
}
