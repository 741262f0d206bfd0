// Package di wires the application from configuration.
package di

import (
	"context"
	"net/http"

	"ideabox/application/commands/bus"
	"ideabox/application/ports"
	querybus "ideabox/application/queries/bus"
	"ideabox/infrastructure/config"
	"ideabox/infrastructure/persistence/dynamodb"
	"ideabox/pkg/auth"
	"ideabox/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
	HTTPHandler http.Handler
	Validator   *auth.JWTValidator
	Publisher   ports.EventPublisher
	Metrics     ports.Metrics
	Outbox      *dynamodb.OutboxProcessor
	Connections *dynamodb.ConnectionStore
}

// FlushMetrics pushes buffered CloudWatch metrics. Other sinks need no flush.
func (c *Container) FlushMetrics(ctx context.Context) {
	if cw, ok := c.Metrics.(*observability.CloudWatchMetrics); ok {
		cw.Flush(ctx)
	}
}
