// Package common holds request-scoped helpers shared by the HTTP handlers.
package common

import (
	"context"

	"ideabox/domain/core/valueobjects"
)

type contextKey string

const (
	contextKeyActor     contextKey = "actor"
	contextKeyRequestID contextKey = "request_id"
)

// WithActor stores the authenticated actor.
func WithActor(ctx context.Context, actor valueobjects.Actor) context.Context {
	return context.WithValue(ctx, contextKeyActor, actor)
}

// ActorFrom returns the authenticated actor, or the zero actor for
// unauthenticated requests.
func ActorFrom(ctx context.Context) valueobjects.Actor {
	actor, _ := ctx.Value(contextKeyActor).(valueobjects.Actor)
	return actor
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(contextKeyRequestID).(string)
	return requestID, ok
}
