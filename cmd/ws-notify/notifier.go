package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"ideabox/domain/events"
	"ideabox/infrastructure/persistence/dynamodb"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwTypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentPosts bounds fan-out to a single user's connections.
const maxConcurrentPosts = 8

type connectionStore interface {
	ForUser(ctx context.Context, userID string) ([]dynamodb.Connection, error)
	Delete(ctx context.Context, connectionID string) error
}

type poster interface {
	PostToConnection(ctx context.Context, params *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// message is the frame clients receive.
type message struct {
	Type      string `json:"type"`
	IdeaID    string `json:"ideaId"`
	Title     string `json:"title"`
	Voter     string `json:"voter"`
	VoteCount int    `json:"voteCount"`
	Timestamp int64  `json:"timestamp"`
}

type notifier struct {
	store     connectionStore
	newPoster func(endpoint string) poster
	endpoint  string
	logger    *zap.Logger

	mu      sync.Mutex
	posters map[string]poster
}

// newNotifier creates the handler. A non-empty endpoint overrides the one
// stored with each connection.
func newNotifier(store connectionStore, newPoster func(endpoint string) poster, endpoint string, logger *zap.Logger) *notifier {
	return &notifier{
		store:     store,
		newPoster: newPoster,
		endpoint:  endpoint,
		logger:    logger,
		posters:   make(map[string]poster),
	}
}

func (n *notifier) Handle(ctx context.Context, event lambdaevents.CloudWatchEvent) error {
	if event.DetailType != events.TypeVoteNotification {
		n.logger.Debug("Ignoring event", zap.String("detail_type", event.DetailType))
		return nil
	}

	decoded, err := events.Decode(event.DetailType, event.Detail)
	if err != nil {
		// A malformed event never succeeds on retry.
		n.logger.Error("Failed to decode notification", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	vote, ok := decoded.(events.VoteReceived)
	if !ok || vote.Recipient == "" {
		n.logger.Warn("Notification has no recipient", zap.String("event_id", event.ID))
		return nil
	}

	connections, err := n.store.ForUser(ctx, vote.Recipient)
	if err != nil {
		return fmt.Errorf("load connections for %s: %w", vote.Recipient, err)
	}
	if len(connections) == 0 {
		return nil
	}

	frame, err := json.Marshal(message{
		Type:      vote.EventType,
		IdeaID:    vote.AggregateID,
		Title:     vote.Title,
		Voter:     vote.Voter,
		VoteCount: vote.VoteCount,
		Timestamp: vote.Timestamp.Unix(),
	})
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPosts)
	for _, conn := range connections {
		conn := conn
		g.Go(func() error {
			return n.post(gctx, conn, frame)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	n.logger.Info("Vote notification delivered",
		zap.String("idea_id", vote.AggregateID),
		zap.String("recipient", vote.Recipient),
		zap.Int("connections", len(connections)),
	)
	return nil
}

func (n *notifier) post(ctx context.Context, conn dynamodb.Connection, frame []byte) error {
	endpoint := n.endpoint
	if endpoint == "" {
		endpoint = conn.Endpoint
	}

	_, err := n.posterFor(endpoint).PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(conn.ConnectionID),
		Data:         frame,
	})
	if err == nil {
		return nil
	}

	var gone *apigwTypes.GoneException
	if errors.As(err, &gone) {
		if derr := n.store.Delete(ctx, conn.ConnectionID); derr != nil {
			n.logger.Warn("Failed to remove stale connection", zap.String("connection_id", conn.ConnectionID), zap.Error(derr))
		}
		return nil
	}
	return fmt.Errorf("post to %s: %w", conn.ConnectionID, err)
}

func (n *notifier) posterFor(endpoint string) poster {
	n.mu.Lock()
	defer n.mu.Unlock()

	p, ok := n.posters[endpoint]
	if !ok {
		p = n.newPoster(endpoint)
		n.posters[endpoint] = p
	}
	return p
}
