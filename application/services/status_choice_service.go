package services

import (
	"context"
	"encoding/json"
	"strings"

	"ideabox/application/ports"
	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/entities"
	"ideabox/domain/core/policy"
	"ideabox/domain/core/valueobjects"
	pkgerrors "ideabox/pkg/errors"

	"go.uber.org/zap"
)

const statusChoicesCacheKey = "status-choices:v1"

// CreateStatusChoiceInput describes a new status choice.
type CreateStatusChoiceInput struct {
	Code         string
	DisplayName  string
	Field        string
	IsSelectable bool
}

// StatusChoiceService manages the status lookup table and resolves labels.
type StatusChoiceService struct {
	repo     ports.StatusChoiceRepository
	cache    ports.Cache
	cacheTTL int
	clock    ports.Clock
	logger   *zap.Logger
}

// NewStatusChoiceService creates a new status choice service. cache may be nil.
func NewStatusChoiceService(repo ports.StatusChoiceRepository, cache ports.Cache, cacheTTL int, clock ports.Clock, logger *zap.Logger) *StatusChoiceService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusChoiceService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		clock:    clock,
		logger:   logger,
	}
}

// List returns the choices, optionally only the selectable ones.
func (s *StatusChoiceService) List(ctx context.Context, selectableOnly bool) ([]entities.StatusChoice, error) {
	choices, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	if !selectableOnly {
		return choices, nil
	}
	out := make([]entities.StatusChoice, 0, len(choices))
	for _, c := range choices {
		if c.IsSelectable {
			out = append(out, c)
		}
	}
	return out, nil
}

// Create adds a status choice. Admins and supervisors only.
func (s *StatusChoiceService) Create(ctx context.Context, in CreateStatusChoiceInput, actor valueobjects.Actor) (entities.StatusChoice, error) {
	if err := policy.CanManageStatusChoices(actor); err != nil {
		return entities.StatusChoice{}, err
	}
	field := strings.TrimSpace(in.Field)
	if field != "" && field != entities.StatusField {
		return entities.StatusChoice{}, pkgerrors.NewValidationError("unsupported field").WithDetail("field", field)
	}
	choice, err := entities.NewStatusChoice(in.Code, in.DisplayName, field, in.IsSelectable, s.clock.Now())
	if err != nil {
		return entities.StatusChoice{}, err
	}

	if err := s.repo.Create(ctx, choice); err != nil {
		return entities.StatusChoice{}, asStorageError("create status choice", err)
	}
	s.invalidate(ctx)

	s.logger.Info("Status choice created",
		zap.String("code", choice.Code),
		zap.String("actor", actor.ID),
	)
	return choice, nil
}

// Labeler returns a resolver over the current choices.
func (s *StatusChoiceService) Labeler(ctx context.Context) (aggregates.StatusLabeler, error) {
	choices, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	return aggregates.LabelerFor(choices), nil
}

func (s *StatusChoiceService) all(ctx context.Context) ([]entities.StatusChoice, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, statusChoicesCacheKey); ok {
			var cached []entities.StatusChoice
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	choices, err := s.repo.List(ctx)
	if err != nil {
		return nil, asStorageError("list status choices", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(choices); err == nil {
			if err := s.cache.Set(ctx, statusChoicesCacheKey, raw, s.cacheTTL); err != nil {
				s.logger.Warn("Failed to cache status choices", zap.Error(err))
			}
		}
	}
	return choices, nil
}

func (s *StatusChoiceService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statusChoicesCacheKey); err != nil {
		s.logger.Warn("Failed to invalidate status choice cache", zap.Error(err))
	}
}
