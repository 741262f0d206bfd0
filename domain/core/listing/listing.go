// Package listing implements the read-side projection over ideas: filtering,
// ranking and materialization of public views.
package listing

import (
	"sort"
	"strings"

	"ideabox/domain/config"
	"ideabox/domain/core/aggregates"
	"ideabox/domain/core/valueobjects"
)

// SortOrder names a ranking.
type SortOrder string

const (
	// SortNewest orders by creation time, newest first.
	SortNewest SortOrder = "newest"
	// SortMostVoted orders by vote count, then creation time, both descending.
	SortMostVoted SortOrder = "most_voted"
)

// Filter restricts a listing. The zero value matches every active idea.
type Filter struct {
	// FavouritesOf keeps only ideas the given actor holds an active vote on.
	FavouritesOf string
	// Search keeps only ideas whose title matches, ignoring case.
	Search string
	// SearchMode picks substring (default) or suffix matching for Search.
	SearchMode config.TitleMatchMode
}

// IsFavourites reports whether the favourites filter is set.
func (f Filter) IsFavourites() bool {
	return f.FavouritesOf != ""
}

// NormalizedSearch returns the folded search text.
func (f Filter) NormalizedSearch() string {
	return valueobjects.FoldTitle(f.Search)
}

// Matches evaluates the filter against one idea. Tombstoned ideas never match.
func (f Filter) Matches(idea *aggregates.Idea) bool {
	if idea == nil || !idea.IsActive() {
		return false
	}
	if f.IsFavourites() && !idea.HasActiveVoteBy(f.FavouritesOf) {
		return false
	}
	if s := f.NormalizedSearch(); s != "" {
		mode := f.SearchMode
		if mode == "" || mode == config.TitleMatchExact {
			mode = config.TitleMatchContains
		}
		if !valueobjects.TitleMatches(mode, idea.Title().String(), s) {
			return false
		}
	}
	return true
}

// DefaultSort returns the ranking used when the caller names none.
func (f Filter) DefaultSort() SortOrder {
	if f.IsFavourites() {
		return SortMostVoted
	}
	return SortNewest
}

// ParseSortOrder maps a query value to a sort order; empty or unknown yields "".
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortNewest:
		return SortNewest
	case SortMostVoted:
		return SortMostVoted
	}
	return ""
}

// Sort ranks ideas in place. Ties fall back to id for a stable order.
func Sort(ideas []*aggregates.Idea, order SortOrder) {
	sort.SliceStable(ideas, func(a, b int) bool {
		x, y := ideas[a], ideas[b]
		if order == SortMostVoted && x.VoteCount() != y.VoteCount() {
			return x.VoteCount() > y.VoteCount()
		}
		if !x.CreatedAt().Equal(y.CreatedAt()) {
			return x.CreatedAt().After(y.CreatedAt())
		}
		return x.ID().String() < y.ID().String()
	})
}

// Apply filters and ranks. The input slice is not modified.
func Apply(ideas []*aggregates.Idea, f Filter, order SortOrder) []*aggregates.Idea {
	if order == "" {
		order = f.DefaultSort()
	}
	out := make([]*aggregates.Idea, 0, len(ideas))
	for _, idea := range ideas {
		if f.Matches(idea) {
			out = append(out, idea)
		}
	}
	Sort(out, order)
	return out
}

// Project materializes public views in order.
func Project(ideas []*aggregates.Idea, label aggregates.StatusLabeler) []aggregates.PublicView {
	views := make([]aggregates.PublicView, 0, len(ideas))
	for _, idea := range ideas {
		views = append(views, idea.View(label))
	}
	return views
}

// Page slices views by offset and limit. A non-positive limit returns everything after offset.
func Page(views []aggregates.PublicView, limit, offset int) []aggregates.PublicView {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(views) {
		return []aggregates.PublicView{}
	}
	end := len(views)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return views[offset:end]
}
