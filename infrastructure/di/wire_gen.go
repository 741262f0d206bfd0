// Hand-maintained counterpart of the injector in wire.go. Keep the two in
// step when a provider is added or its signature changes.

//go:build !wireinject
// +build !wireinject

package di

import (
	"context"

	"ideabox/infrastructure/config"
)

// Injectors from wire.go:

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	tracer := ProvideTracer(cfg)
	awsConfig, err := ProvideAWSConfig(ctx, cfg, tracer)
	if err != nil {
		return nil, nil, err
	}
	client := ProvideDynamoDBClient(awsConfig, cfg)
	pool, cleanup, err := ProvidePostgresPool(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	ideaRepository := ProvideIdeaRepository(cfg, client, pool, logger)
	clock := ProvideClock()
	statusChoiceRepository := ProvideStatusChoiceRepository(cfg, client, pool, clock, logger)
	cache, cleanup2, err := ProvideCache(ctx, cfg, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	statusChoiceService := ProvideStatusChoiceService(statusChoiceRepository, cache, cfg, clock, logger)
	titleLock := ProvideTitleLock(cfg, client, pool, logger)
	sentimentProvider := ProvideSentimentProvider(cfg, logger)
	eventbridgeClient := ProvideEventBridgeClient(awsConfig)
	eventPublisher := ProvideEventPublisher(cfg, eventbridgeClient, logger)
	directory := ProvideDirectory(pool)
	notifier := ProvideNotifier(eventPublisher, directory, logger)
	eventStore := ProvideEventStore(cfg, client, logger)
	registry := ProvidePrometheusRegistry()
	cloudwatchClient := ProvideCloudWatchClient(awsConfig)
	metrics := ProvideMetrics(cfg, registry, cloudwatchClient, logger)
	domainConfig, err := ProvideDomainConfig(cfg)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	ideaService := ProvideIdeaService(ideaRepository, statusChoiceService, titleLock, sentimentProvider, notifier, eventStore, clock, metrics, domainConfig, logger)
	commandBus, err := ProvideCommandBus(ideaService, statusChoiceService, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	queryBus, err := ProvideQueryBus(ideaService, statusChoiceService, metrics)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	jwtValidator, err := ProvideJWTValidator(cfg, logger)
	if err != nil {
		cleanup2()
		cleanup()
		return nil, nil, err
	}
	rateLimiter, cleanup3 := ProvideRateLimiter(cfg, client)
	handler := ProvideHTTPHandler(cfg, commandBus, queryBus, jwtValidator, directory, rateLimiter, tracer, metrics, registry, cache, pool, logger)
	outboxProcessor := ProvideOutboxProcessor(cfg, eventStore, eventPublisher, logger)
	connectionStore := ProvideConnectionStore(cfg, client, logger)
	container := &Container{
		Config:      cfg,
		Logger:      logger,
		CommandBus:  commandBus,
		QueryBus:    queryBus,
		HTTPHandler: handler,
		Validator:   jwtValidator,
		Publisher:   eventPublisher,
		Metrics:     metrics,
		Outbox:      outboxProcessor,
		Connections: connectionStore,
	}
	return container, func() {
		cleanup3()
		cleanup2()
		cleanup()
	}, nil
}
