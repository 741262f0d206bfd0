// Package notification turns vote notices into notification events that the
// websocket pusher delivers to connected recipients.
package notification

import (
	"context"
	"fmt"

	"ideabox/application/ports"
	"ideabox/domain/events"

	"go.uber.org/zap"
)

// EventNotifier implements ports.Notifier by publishing a
// notification.vote_received event. The contact directory is optional; when
// set, the recipient's email rides along for mail-based subscribers.
type EventNotifier struct {
	publisher ports.EventPublisher
	contacts  ports.ContactDirectory
	logger    *zap.Logger
}

func NewEventNotifier(publisher ports.EventPublisher, contacts ports.ContactDirectory, logger *zap.Logger) *EventNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventNotifier{publisher: publisher, contacts: contacts, logger: logger}
}

func (n *EventNotifier) NotifyVote(ctx context.Context, notice ports.VoteNotice) error {
	var email string
	if n.contacts != nil {
		addr, err := n.contacts.EmailOf(ctx, notice.Recipient)
		if err != nil {
			// The push channel does not need the address.
			n.logger.Warn("Contact lookup failed",
				zap.String("recipient", notice.Recipient),
				zap.Error(err),
			)
		}
		email = addr
	}

	event := events.NewVoteReceived(notice.IdeaID, notice.Title, notice.Recipient, email,
		notice.Voter, notice.VoteCount, notice.At)
	if err := n.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish vote notification: %w", err)
	}

	n.logger.Debug("Vote notification sent",
		zap.String("ideaID", notice.IdeaID),
		zap.String("recipient", notice.Recipient),
	)
	return nil
}
