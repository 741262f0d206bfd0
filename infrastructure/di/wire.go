//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"ideabox/infrastructure/config"

	"github.com/google/wire"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideClock,
	ProvideTracer,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvidePostgresPool,
	ProvideIdeaRepository,
	ProvideStatusChoiceRepository,
	ProvideTitleLock,
	ProvideCache,
	ProvideEventPublisher,
	ProvideEventStore,
	ProvideOutboxProcessor,
	ProvideDirectory,
	ProvideNotifier,
	ProvideSentimentProvider,
	ProvidePrometheusRegistry,
	ProvideMetrics,
	ProvideStatusChoiceService,
	ProvideIdeaService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideJWTValidator,
	ProvideRateLimiter,
	ProvideConnectionStore,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
