package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	domainconfig "ideabox/domain/config"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers
const (
	StorageMemory   = "memory"
	StorageDynamoDB = "dynamodb"
	StoragePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	DynamoDB  DynamoDBConfig  `yaml:"dynamodb"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Events    EventsConfig    `yaml:"events"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Ideas     IdeasConfig     `yaml:"ideas"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address         string        `yaml:"address"          env:"SERVER_ADDRESS"          env-default:":8080"`
	Environment     string        `yaml:"environment"      env:"ENVIRONMENT"             env-default:"development"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	IsLambda        bool          `yaml:"is_lambda"        env:"IS_LAMBDA"               env-default:"false"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTIssuer string `yaml:"jwt_issuer" env:"JWT_ISSUER" env-default:"ideabox"`
}

// StorageConfig picks the persistence driver.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
}

// DynamoDBConfig holds table names for the DynamoDB driver.
type DynamoDBConfig struct {
	Region           string `yaml:"region"            env:"AWS_REGION"        env-default:"us-west-2"`
	Endpoint         string `yaml:"endpoint"          env:"DYNAMODB_ENDPOINT"`
	Table            string `yaml:"table"             env:"TABLE_NAME"        env-default:"ideabox"`
	ActiveIndex      string `yaml:"active_index"      env:"ACTIVE_INDEX_NAME" env-default:"ActiveIndex"`
	LockTable        string `yaml:"lock_table"        env:"LOCK_TABLE_NAME"   env-default:"ideabox-locks"`
	EventsTable      string `yaml:"events_table"      env:"EVENTS_TABLE_NAME" env-default:"ideabox-events"`
	ConnectionsTable string `yaml:"connections_table" env:"CONNECTIONS_TABLE" env-default:"ideabox-connections"`
}

// PostgresConfig holds connection settings for the Postgres driver and directories.
type PostgresConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"20"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

// RedisConfig holds the status label cache settings. An empty URL selects the in-memory cache.
type RedisConfig struct {
	URL      string `yaml:"url"       env:"REDIS_URL"`
	PoolSize int    `yaml:"pool_size" env:"REDIS_POOL_SIZE" env-default:"10"`
	TTL      int    `yaml:"ttl"       env:"CACHE_TTL"       env-default:"300"`
}

// EventsConfig holds EventBridge and outbox settings.
type EventsConfig struct {
	BusName        string        `yaml:"bus_name"        env:"EVENT_BUS_NAME"         env-default:"ideabox-events"`
	Source         string        `yaml:"source"          env:"EVENT_SOURCE"           env-default:"ideabox.ideas"`
	Enabled        bool          `yaml:"enabled"         env:"EVENTS_ENABLED"         env-default:"false"`
	OutboxInterval time.Duration `yaml:"outbox_interval" env:"OUTBOX_POLL_INTERVAL"   env-default:"5s"`
	OutboxBatch    int           `yaml:"outbox_batch"    env:"OUTBOX_BATCH_SIZE"      env-default:"10"`
	OutboxRetries  int           `yaml:"outbox_retries"  env:"OUTBOX_MAX_RETRIES"     env-default:"3"`
}

// WebSocketConfig holds the push channel settings.
type WebSocketConfig struct {
	Endpoint string `yaml:"endpoint" env:"WEBSOCKET_ENDPOINT"`
}

// SentimentConfig holds the sentiment provider settings. An empty endpoint
// selects the built-in lexicon.
type SentimentConfig struct {
	Endpoint         string        `yaml:"endpoint"          env:"SENTIMENT_ENDPOINT"`
	APIKey           string        `yaml:"api_key"           env:"SENTIMENT_API_KEY"`
	Timeout          time.Duration `yaml:"timeout"           env:"SENTIMENT_TIMEOUT"           env-default:"2s"`
	BreakerFailures  uint32        `yaml:"breaker_failures"  env:"SENTIMENT_BREAKER_FAILURES"  env-default:"5"`
	BreakerOpenDelay time.Duration `yaml:"breaker_open_delay" env:"SENTIMENT_BREAKER_OPEN_DELAY" env-default:"30s"`
}

// IdeasConfig holds the idea rules.
type IdeasConfig struct {
	MaxTitleLength       int    `yaml:"max_title_length"       env:"IDEA_MAX_TITLE_LENGTH"       env-default:"30"`
	MaxDescriptionLength int    `yaml:"max_description_length" env:"IDEA_MAX_DESCRIPTION_LENGTH" env-default:"50"`
	MaxCommentLength     int    `yaml:"max_comment_length"     env:"IDEA_MAX_COMMENT_LENGTH"     env-default:"500"`
	InitialStatus        string `yaml:"initial_status"         env:"IDEA_INITIAL_STATUS"         env-default:"S100"`
	TitleMatchMode       string `yaml:"title_match_mode"       env:"IDEA_TITLE_MATCH_MODE"       env-default:"exact"`
	MaxBulkStatusIDs     int    `yaml:"max_bulk_status_ids"    env:"IDEA_MAX_BULK_STATUS_IDS"    env-default:"200"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	Enabled        bool   `yaml:"enabled"         env:"ENABLE_CORS"          env-default:"true"`
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	MaxAge         int    `yaml:"max_age"         env:"CORS_MAX_AGE"         env-default:"300"`
}

// RateLimitConfig holds the per-actor token bucket settings.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"             env:"RATE_LIMIT_ENABLED"  env-default:"true"`
	RequestsPerMinute int  `yaml:"requests_per_minute" env:"RATE_LIMIT_PER_MIN"  env-default:"120"`
	Burst             int  `yaml:"burst"               env:"RATE_LIMIT_BURST"    env-default:"20"`
}

// MetricsConfig holds metrics settings.
type MetricsConfig struct {
	Enabled             bool   `yaml:"enabled"              env:"ENABLE_METRICS"        env-default:"true"`
	CloudWatchNamespace string `yaml:"cloudwatch_namespace" env:"CLOUDWATCH_NAMESPACE"`
}

// TracingConfig holds X-Ray settings.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLE_TRACING" env-default:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults. CONFIG_PATH names the file; without it
// only ENV and defaults are used.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageMemory, StorageDynamoDB:
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.Events.Enabled && c.Events.BusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	domain, err := c.DomainConfig()
	if err != nil {
		return err
	}
	return domain.Validate()
}

// DomainConfig converts the idea rules to their domain form
func (c *Config) DomainConfig() (*domainconfig.DomainConfig, error) {
	mode, err := domainconfig.ParseTitleMatchMode(c.Ideas.TitleMatchMode)
	if err != nil {
		return nil, err
	}
	return &domainconfig.DomainConfig{
		MaxTitleLength:       c.Ideas.MaxTitleLength,
		MaxDescriptionLength: c.Ideas.MaxDescriptionLength,
		MaxCommentLength:     c.Ideas.MaxCommentLength,
		InitialStatus:        strings.ToUpper(strings.TrimSpace(c.Ideas.InitialStatus)),
		TitleMatchMode:       mode,
		MaxBulkStatusIDs:     c.Ideas.MaxBulkStatusIDs,
	}, nil
}

// AllowedOrigins splits the CORS origin list
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORS.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
