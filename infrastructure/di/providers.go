package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ideabox/application/commands/bus"
	commandhandlers "ideabox/application/commands/handlers"
	"ideabox/application/ports"
	querybus "ideabox/application/queries/bus"
	queryhandlers "ideabox/application/queries/handlers"
	"ideabox/application/services"
	domainconfig "ideabox/domain/config"
	"ideabox/domain/core/entities"
	"ideabox/infrastructure/cache"
	"ideabox/infrastructure/config"
	"ideabox/infrastructure/messaging"
	"ideabox/infrastructure/messaging/eventbridge"
	"ideabox/infrastructure/notification"
	"ideabox/infrastructure/persistence/dynamodb"
	"ideabox/infrastructure/persistence/memory"
	"ideabox/infrastructure/persistence/postgres"
	"ideabox/infrastructure/sentiment"
	"ideabox/interfaces/http/rest"
	"ideabox/pkg/auth"
	"ideabox/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const serviceName = "ideabox"

// developmentSecret signs tokens when no secret is configured outside production.
const developmentSecret = "development-secret-change-in-production"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideDomainConfig derives the engine rules from the application config.
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	return cfg.DomainConfig()
}

func ProvideClock() ports.Clock {
	return ports.SystemClock{}
}

// ProvideTracer returns nil when tracing is disabled.
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	if !cfg.Tracing.Enabled {
		return nil
	}
	return observability.NewTracer(serviceName)
}

// ProvideAWSConfig creates AWS configuration, instrumented for X-Ray when tracing is on.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config, tracer *observability.Tracer) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.DynamoDB.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	if tracer != nil {
		tracer.InstrumentAWS(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client. A configured endpoint
// points it at DynamoDB Local.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDB.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDB.Endpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvidePostgresPool opens the pool when a DSN is configured and applies
// migrations. Without a DSN it returns nil and the Postgres components are skipped.
func ProvidePostgresPool(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, func(), error) {
	if cfg.Postgres.DSN == "" {
		return nil, func() {}, nil
	}
	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, cfg.Postgres.DSN); err != nil {
			return nil, nil, err
		}
		logger.Info("Database migrations applied")
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	return pool, pool.Close, nil
}

// ProvideIdeaRepository selects the idea store for the configured driver.
func ProvideIdeaRepository(cfg *config.Config, client *awsdynamodb.Client, pool *pgxpool.Pool, logger *zap.Logger) ports.IdeaRepository {
	switch cfg.Storage.Driver {
	case config.StorageDynamoDB:
		return dynamodb.NewIdeaRepository(client, cfg.DynamoDB.Table, cfg.DynamoDB.ActiveIndex, logger)
	case config.StoragePostgres:
		return postgres.NewIdeaRepository(pool)
	default:
		return memory.NewIdeaRepository()
	}
}

// ProvideStatusChoiceRepository selects the status choice store. The
// in-memory store starts with the default choices.
func ProvideStatusChoiceRepository(cfg *config.Config, client *awsdynamodb.Client, pool *pgxpool.Pool, clock ports.Clock, logger *zap.Logger) ports.StatusChoiceRepository {
	switch cfg.Storage.Driver {
	case config.StorageDynamoDB:
		return dynamodb.NewStatusChoiceRepository(client, cfg.DynamoDB.Table, logger)
	case config.StoragePostgres:
		return postgres.NewStatusChoiceRepository(pool)
	default:
		return memory.NewStatusChoiceRepository(entities.DefaultStatusChoices(clock.Now())...)
	}
}

// ProvideTitleLock picks a lock that spans instances for the shared stores.
func ProvideTitleLock(cfg *config.Config, client *awsdynamodb.Client, pool *pgxpool.Pool, logger *zap.Logger) ports.TitleLock {
	switch cfg.Storage.Driver {
	case config.StorageDynamoDB:
		return dynamodb.NewDistributedLock(client, cfg.DynamoDB.LockTable, logger)
	case config.StoragePostgres:
		return postgres.NewAdvisoryLock(pool)
	default:
		return memory.NewTitleLock()
	}
}

// ProvideCache uses Redis when a URL is configured and an in-process cache otherwise.
func ProvideCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Cache, func(), error) {
	if cfg.Redis.URL == "" {
		c := cache.NewInMemoryCache()
		return c, func() { _ = c.Close() }, nil
	}

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedisCache(client, logger), func() { _ = client.Close() }, nil
}

// ProvideEventPublisher publishes to EventBridge when events are enabled and
// logs them otherwise.
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if !cfg.Events.Enabled {
		return messaging.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(client, cfg.Events.BusName, cfg.Events.Source, logger)
}

// ProvideEventStore journals domain events in DynamoDB. Other drivers run
// without a journal.
func ProvideEventStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) *dynamodb.EventStore {
	if cfg.Storage.Driver != config.StorageDynamoDB {
		return nil
	}
	return dynamodb.NewEventStore(client, cfg.DynamoDB.EventsTable, logger)
}

// ProvideOutboxProcessor relays journaled events to the publisher. It is nil
// without a journal.
func ProvideOutboxProcessor(cfg *config.Config, store *dynamodb.EventStore, publisher ports.EventPublisher, logger *zap.Logger) *dynamodb.OutboxProcessor {
	if store == nil {
		return nil
	}
	return dynamodb.NewOutboxProcessor(store, publisher, cfg.Events.OutboxBatch, cfg.Events.OutboxInterval, cfg.Events.OutboxRetries, logger)
}

// ProvideDirectory returns the Postgres contact and role directory, or nil without a pool.
func ProvideDirectory(pool *pgxpool.Pool) *postgres.Directory {
	if pool == nil {
		return nil
	}
	return postgres.NewDirectory(pool)
}

// ProvideNotifier announces votes through the publisher, resolving the
// creator's address when a directory is available.
func ProvideNotifier(publisher ports.EventPublisher, directory *postgres.Directory, logger *zap.Logger) ports.Notifier {
	var contacts ports.ContactDirectory
	if directory != nil {
		contacts = directory
	}
	return notification.NewEventNotifier(publisher, contacts, logger)
}

// ProvideSentimentProvider calls the configured service or falls back to the lexicon.
func ProvideSentimentProvider(cfg *config.Config, logger *zap.Logger) ports.SentimentProvider {
	if cfg.Sentiment.Endpoint == "" {
		return sentiment.NewLexicon()
	}
	return sentiment.NewClient(cfg.Sentiment, logger)
}

// ProvidePrometheusRegistry creates the registry served on /metrics.
func ProvidePrometheusRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// ProvideMetrics sends metrics to CloudWatch when a namespace is configured
// and to Prometheus otherwise.
func ProvideMetrics(cfg *config.Config, registry *prometheus.Registry, client *awscloudwatch.Client, logger *zap.Logger) ports.Metrics {
	switch {
	case !cfg.Metrics.Enabled:
		return ports.NoopMetrics{}
	case cfg.Metrics.CloudWatchNamespace != "":
		return observability.NewCloudWatchMetrics(client, cfg.Metrics.CloudWatchNamespace, logger)
	default:
		return observability.NewPrometheusMetrics(registry)
	}
}

// ProvideStatusChoiceService creates the status choice catalogue.
func ProvideStatusChoiceService(repo ports.StatusChoiceRepository, c ports.Cache, cfg *config.Config, clock ports.Clock, logger *zap.Logger) *services.StatusChoiceService {
	return services.NewStatusChoiceService(repo, c, cfg.Redis.TTL, clock, logger)
}

// ProvideIdeaService creates the idea engine.
func ProvideIdeaService(
	ideas ports.IdeaRepository,
	choices *services.StatusChoiceService,
	titleLock ports.TitleLock,
	provider ports.SentimentProvider,
	notifier ports.Notifier,
	store *dynamodb.EventStore,
	clock ports.Clock,
	metrics ports.Metrics,
	domainCfg *domainconfig.DomainConfig,
	logger *zap.Logger,
) *services.IdeaService {
	var journal ports.EventStore
	if store != nil {
		journal = store
	}
	return services.NewIdeaService(ideas, choices, titleLock, provider, notifier, journal, clock, metrics, domainCfg, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(ideas *services.IdeaService, choices *services.StatusChoiceService, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	if err := commandhandlers.NewIdeaCommandHandlers(ideas, choices).Register(commandBus); err != nil {
		return nil, fmt.Errorf("register command handlers: %w", err)
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(ideas *services.IdeaService, choices *services.StatusChoiceService, metrics ports.Metrics) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(querybus.MetricsMiddleware(metrics))
	if err := queryhandlers.NewIdeaQueryHandlers(ideas, choices).Register(queryBus); err != nil {
		return nil, fmt.Errorf("register query handlers: %w", err)
	}
	return queryBus, nil
}

// ProvideJWTValidator verifies bearer tokens. Outside production a missing
// secret falls back to a fixed development secret.
func ProvideJWTValidator(cfg *config.Config, logger *zap.Logger) (*auth.JWTValidator, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = developmentSecret
	}
	return auth.NewJWTValidator(secret, cfg.Auth.JWTIssuer)
}

// ProvideRateLimiter counts in DynamoDB on Lambda, where instances do not
// share memory, and in-process elsewhere. It is nil when disabled.
func ProvideRateLimiter(cfg *config.Config, client *awsdynamodb.Client) (auth.RateLimiter, func()) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}
	}
	if cfg.Server.IsLambda && cfg.Storage.Driver == config.StorageDynamoDB {
		return auth.NewDistributedRateLimiter(client, cfg.DynamoDB.Table, cfg.RateLimit.RequestsPerMinute, time.Minute), func() {}
	}
	limiter := auth.NewTokenBucketLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	return limiter, limiter.Close
}

// ProvideConnectionStore tracks websocket connections for vote pushes.
func ProvideConnectionStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) *dynamodb.ConnectionStore {
	return dynamodb.NewConnectionStore(client, cfg.DynamoDB.ConnectionsTable, logger)
}

// ProvideHTTPHandler assembles the router with every optional component
// that is configured.
func ProvideHTTPHandler(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	validator *auth.JWTValidator,
	directory *postgres.Directory,
	limiter auth.RateLimiter,
	tracer *observability.Tracer,
	metrics ports.Metrics,
	registry *prometheus.Registry,
	c ports.Cache,
	pool *pgxpool.Pool,
	logger *zap.Logger,
) http.Handler {
	router := rest.NewRouter(commandBus, queryBus, validator, cfg, logger)
	if directory != nil {
		router.WithRoleDirectory(directory)
	}
	if limiter != nil {
		router.WithRateLimiter(limiter)
	}
	if tracer != nil {
		router.WithTracer(tracer)
	}
	if _, ok := metrics.(*observability.PrometheusMetrics); ok {
		router.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	if redisCache, ok := c.(*cache.RedisCache); ok {
		router.WithReadinessCheck("redis", redisCache.Health)
	}
	if pool != nil {
		router.WithReadinessCheck("postgres", pool.Ping)
	}
	return router.Setup()
}
