package handlers

import (
	"context"
	"fmt"

	"ideabox/application/queries"
	"ideabox/application/queries/bus"
	"ideabox/application/services"
)

// IdeaQueryHandlers adapts the read side of the services to the query bus
type IdeaQueryHandlers struct {
	ideas   *services.IdeaService
	choices *services.StatusChoiceService
}

// NewIdeaQueryHandlers creates the handler set
func NewIdeaQueryHandlers(ideas *services.IdeaService, choices *services.StatusChoiceService) *IdeaQueryHandlers {
	return &IdeaQueryHandlers{ideas: ideas, choices: choices}
}

// Register binds every idea query to bus
func (h *IdeaQueryHandlers) Register(b *bus.QueryBus) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandlerFunc
	}{
		{queries.GetIdeaQuery{}, h.getIdea},
		{queries.ListIdeasQuery{}, h.listIdeas},
		{queries.GetIdeaHistoryQuery{}, h.getHistory},
		{queries.ListStatusChoicesQuery{}, h.listStatusChoices},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *IdeaQueryHandlers) getIdea(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetIdeaQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", q)
	}
	return h.ideas.Get(ctx, query.IdeaID)
}

func (h *IdeaQueryHandlers) listIdeas(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListIdeasQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", q)
	}
	return h.ideas.List(ctx, services.ListIdeasInput{
		FavouritesOf: query.FavouritesOf,
		Search:       query.Search,
		SearchMode:   query.SearchMode,
		Sort:         query.Sort,
		Limit:        query.Limit,
		Offset:       query.Offset,
	})
}

func (h *IdeaQueryHandlers) getHistory(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetIdeaHistoryQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", q)
	}
	return h.ideas.History(ctx, query.IdeaID, query.Actor, query.At)
}

func (h *IdeaQueryHandlers) listStatusChoices(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.ListStatusChoicesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid query type: %T", q)
	}
	return h.choices.List(ctx, query.SelectableOnly)
}
