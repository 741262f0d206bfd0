package queries

import (
	"time"

	"ideabox/domain/config"
	"ideabox/domain/core/listing"
	"ideabox/domain/core/valueobjects"
	"ideabox/pkg/utils"
)

// GetIdeaQuery fetches the public view of one idea
type GetIdeaQuery struct {
	IdeaID string `validate:"required"`
}

// Validate validates the GetIdeaQuery
func (q GetIdeaQuery) Validate() error { return utils.ValidateStruct(q) }

// ListIdeasQuery lists active ideas
type ListIdeasQuery struct {
	FavouritesOf string
	Search       string `validate:"max=100"`
	SearchMode   config.TitleMatchMode
	Sort         listing.SortOrder
	Limit        int `validate:"min=0,max=100"`
	Offset       int `validate:"min=0"`
}

// Validate validates the ListIdeasQuery
func (q ListIdeasQuery) Validate() error { return utils.ValidateStruct(q) }

// GetIdeaHistoryQuery reads the audit journal of an idea
type GetIdeaHistoryQuery struct {
	Actor  valueobjects.Actor
	IdeaID string `validate:"required"`
	At     *time.Time
}

// Validate validates the GetIdeaHistoryQuery
func (q GetIdeaHistoryQuery) Validate() error { return utils.ValidateStruct(q) }

// ListStatusChoicesQuery lists status choices
type ListStatusChoicesQuery struct {
	SelectableOnly bool
}

// Validate always passes
func (q ListStatusChoicesQuery) Validate() error { return nil }
