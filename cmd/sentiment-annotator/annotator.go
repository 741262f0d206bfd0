package main

import (
	"context"

	"ideabox/application/commands"
	"ideabox/application/commands/bus"
	"ideabox/domain/events"
	pkgerrors "ideabox/pkg/errors"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

type annotatorEvent = lambdaevents.CloudWatchEvent

type commandSender interface {
	Send(ctx context.Context, cmd bus.Command) (interface{}, error)
}

type annotator struct {
	commands commandSender
	logger   *zap.Logger
}

func newAnnotator(commands commandSender, logger *zap.Logger) *annotator {
	return &annotator{commands: commands, logger: logger}
}

// Handle annotates the comment named by event. Errors that cannot succeed on
// a retry are logged and swallowed; the rest are returned so EventBridge
// redelivers.
func (a *annotator) Handle(ctx context.Context, event annotatorEvent) error {
	if event.DetailType != events.TypeCommentAdded {
		return nil
	}

	decoded, err := events.Decode(event.DetailType, event.Detail)
	if err != nil {
		a.logger.Error("Failed to decode comment event", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	added, ok := decoded.(events.CommentAdded)
	if !ok || added.Annotated {
		return nil
	}

	result, err := a.commands.Send(ctx, commands.AnnotateCommentCommand{
		IdeaID:    added.AggregateID,
		CommentID: added.CommentID,
	})
	switch {
	case err == nil:
	case pkgerrors.IsNotFound(err), pkgerrors.IsValidation(err):
		a.logger.Info("Comment no longer annotatable",
			zap.String("idea_id", added.AggregateID),
			zap.String("comment_id", added.CommentID),
			zap.Error(err),
		)
		return nil
	default:
		return err
	}

	a.logger.Info("Comment annotation processed",
		zap.String("idea_id", added.AggregateID),
		zap.String("comment_id", added.CommentID),
		zap.Any("annotated", result),
	)
	return nil
}
