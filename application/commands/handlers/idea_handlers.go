package handlers

import (
	"context"
	"fmt"

	"ideabox/application/commands"
	"ideabox/application/commands/bus"
	"ideabox/application/services"
)

// IdeaCommandHandlers adapts the idea and status choice services to the command bus
type IdeaCommandHandlers struct {
	ideas   *services.IdeaService
	choices *services.StatusChoiceService
}

// NewIdeaCommandHandlers creates the handler set
func NewIdeaCommandHandlers(ideas *services.IdeaService, choices *services.StatusChoiceService) *IdeaCommandHandlers {
	return &IdeaCommandHandlers{ideas: ideas, choices: choices}
}

// Register binds every idea command to bus
func (h *IdeaCommandHandlers) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.CreateIdeaCommand{}, h.createIdea},
		{commands.UpdateIdeaCommand{}, h.updateIdea},
		{commands.RemoveIdeaCommand{}, h.removeIdea},
		{commands.AddVoteCommand{}, h.addVote},
		{commands.RemoveVoteCommand{}, h.removeVote},
		{commands.AddCommentCommand{}, h.addComment},
		{commands.RemoveCommentCommand{}, h.removeComment},
		{commands.AnnotateCommentCommand{}, h.annotateComment},
		{commands.BulkStatusUpdateCommand{}, h.bulkStatusUpdate},
		{commands.CreateStatusChoiceCommand{}, h.createStatusChoice},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *IdeaCommandHandlers) createIdea(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.CreateIdeaCommand](c)
	if err != nil {
		return nil, err
	}
	return h.ideas.Create(ctx, services.CreateIdeaInput{Title: cmd.Title, Description: cmd.Description}, cmd.Actor)
}

func (h *IdeaCommandHandlers) updateIdea(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.UpdateIdeaCommand](c)
	if err != nil {
		return nil, err
	}
	in := services.UpdateIdeaInput{Title: cmd.Title, Description: cmd.Description, Status: cmd.Status}
	return h.ideas.Update(ctx, cmd.IdeaID, in, cmd.Actor)
}

func (h *IdeaCommandHandlers) removeIdea(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.RemoveIdeaCommand](c)
	if err != nil {
		return nil, err
	}
	return nil, h.ideas.Remove(ctx, cmd.IdeaID, cmd.Actor)
}

func (h *IdeaCommandHandlers) addVote(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.AddVoteCommand](c)
	if err != nil {
		return nil, err
	}
	return h.ideas.AddVote(ctx, cmd.IdeaID, cmd.Actor)
}

func (h *IdeaCommandHandlers) removeVote(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.RemoveVoteCommand](c)
	if err != nil {
		return nil, err
	}
	return h.ideas.RemoveVote(ctx, cmd.IdeaID, cmd.Actor)
}

func (h *IdeaCommandHandlers) addComment(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.AddCommentCommand](c)
	if err != nil {
		return nil, err
	}
	return h.ideas.AddComment(ctx, cmd.IdeaID, cmd.Text, cmd.Actor)
}

func (h *IdeaCommandHandlers) removeComment(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.RemoveCommentCommand](c)
	if err != nil {
		return nil, err
	}
	return nil, h.ideas.RemoveComment(ctx, cmd.IdeaID, cmd.CommentID, cmd.Actor)
}

func (h *IdeaCommandHandlers) annotateComment(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.AnnotateCommentCommand](c)
	if err != nil {
		return nil, err
	}
	return h.ideas.AnnotateComment(ctx, cmd.IdeaID, cmd.CommentID)
}

func (h *IdeaCommandHandlers) bulkStatusUpdate(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.BulkStatusUpdateCommand](c)
	if err != nil {
		return nil, err
	}
	return h.ideas.BulkStatusUpdate(ctx, cmd.IDs, cmd.Status, cmd.Actor)
}

func (h *IdeaCommandHandlers) createStatusChoice(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, err := as[commands.CreateStatusChoiceCommand](c)
	if err != nil {
		return nil, err
	}
	in := services.CreateStatusChoiceInput{
		Code:         cmd.Code,
		DisplayName:  cmd.DisplayName,
		Field:        cmd.Field,
		IsSelectable: cmd.IsSelectable,
	}
	return h.choices.Create(ctx, in, cmd.Actor)
}

func as[T bus.Command](c bus.Command) (T, error) {
	cmd, ok := c.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("invalid command type: expected %T, got %T", zero, c)
	}
	return cmd, nil
}
