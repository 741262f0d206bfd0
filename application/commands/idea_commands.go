package commands

import (
	"ideabox/domain/core/valueobjects"
	"ideabox/pkg/utils"
)

// Every command names its actor explicitly. Field lengths are configurable,
// so they are enforced by the domain validators rather than by tags.

// CreateIdeaCommand submits a new idea
type CreateIdeaCommand struct {
	Actor       valueobjects.Actor `json:"-"`
	Title       string             `json:"title" validate:"required"`
	Description string             `json:"description"`
}

func (c CreateIdeaCommand) Validate() error { return utils.ValidateStruct(c) }

// UpdateIdeaCommand patches title, description or status
type UpdateIdeaCommand struct {
	Actor       valueobjects.Actor `json:"-"`
	IdeaID      string             `json:"ideaId" validate:"required"`
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *string            `json:"status,omitempty"`
}

func (c UpdateIdeaCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveIdeaCommand tombstones an idea
type RemoveIdeaCommand struct {
	Actor  valueobjects.Actor `json:"-"`
	IdeaID string             `json:"ideaId" validate:"required"`
}

func (c RemoveIdeaCommand) Validate() error { return utils.ValidateStruct(c) }

// AddVoteCommand records the actor's vote
type AddVoteCommand struct {
	Actor  valueobjects.Actor `json:"-"`
	IdeaID string             `json:"ideaId" validate:"required"`
}

func (c AddVoteCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveVoteCommand withdraws the actor's vote
type RemoveVoteCommand struct {
	Actor  valueobjects.Actor `json:"-"`
	IdeaID string             `json:"ideaId" validate:"required"`
}

func (c RemoveVoteCommand) Validate() error { return utils.ValidateStruct(c) }

// AddCommentCommand attaches a comment
type AddCommentCommand struct {
	Actor  valueobjects.Actor `json:"-"`
	IdeaID string             `json:"ideaId" validate:"required"`
	Text   string             `json:"text" validate:"required"`
}

func (c AddCommentCommand) Validate() error { return utils.ValidateStruct(c) }

// RemoveCommentCommand tombstones one of the actor's comments
type RemoveCommentCommand struct {
	Actor     valueobjects.Actor `json:"-"`
	IdeaID    string             `json:"ideaId" validate:"required"`
	CommentID string             `json:"commentId" validate:"required"`
}

func (c RemoveCommentCommand) Validate() error { return utils.ValidateStruct(c) }

// AnnotateCommentCommand retries sentiment annotation for a comment
type AnnotateCommentCommand struct {
	IdeaID    string `json:"ideaId" validate:"required"`
	CommentID string `json:"commentId" validate:"required"`
}

func (c AnnotateCommentCommand) Validate() error { return utils.ValidateStruct(c) }

// BulkStatusUpdateCommand moves many ideas to one status
type BulkStatusUpdateCommand struct {
	Actor  valueobjects.Actor `json:"-"`
	IDs    []string           `json:"ids" validate:"required,min=1"`
	Status string             `json:"status" validate:"required"`
}

func (c BulkStatusUpdateCommand) Validate() error { return utils.ValidateStruct(c) }

// CreateStatusChoiceCommand adds a status choice
type CreateStatusChoiceCommand struct {
	Actor        valueobjects.Actor `json:"-"`
	Code         string             `json:"code" validate:"required,max=20"`
	DisplayName  string             `json:"displayName" validate:"required,max=100"`
	Field        string             `json:"field"`
	IsSelectable bool               `json:"isSelectable"`
}

func (c CreateStatusChoiceCommand) Validate() error { return utils.ValidateStruct(c) }
