// Package config provides configuration management for the publication service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// SSL mode constants for database connections.
const (
	// SSLModeDisable disables SSL (use only for local development).
	SSLModeDisable = "disable"
	// SSLModeRequire requires SSL but does not verify certificates.
	SSLModeRequire = "require"
	// SSLModeVerifyCA verifies the server certificate against a CA.
	SSLModeVerifyCA = "verify-ca"
	// SSLModeVerifyFull verifies the server certificate and hostname.
	SSLModeVerifyFull = "verify-full"
)

// Config holds all configuration for the publication service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Database contains PostgreSQL connection settings.
	Database DatabaseConfig `mapstructure:"database"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// ArXiv contains arXiv collector settings.
	ArXiv ArXivConfig `mapstructure:"arxiv"`
	// SemanticScholar contains Semantic Scholar enrichment client settings.
	SemanticScholar SemanticScholarConfig `mapstructure:"semantic_scholar"`
	// Pipeline contains ETL pipeline settings.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	// Enrichment contains enrichment batch settings.
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	// Scheduler contains cron scheduling settings for the ETL worker.
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	// Kafka contains Kafka publisher settings for lifecycle events.
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP server port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// IdleTimeout is the maximum time to wait for the next request.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	// Host is the PostgreSQL server hostname.
	Host string `mapstructure:"host"`
	// Port is the PostgreSQL server port (default: 5432).
	Port int `mapstructure:"port"`
	// User is the database username.
	User string `mapstructure:"user"`
	// Password is the database password (use environment variable in production).
	Password string `mapstructure:"password"`
	// Name is the database name.
	Name string `mapstructure:"name"`
	// SSLMode controls SSL connection security (require, verify-ca, verify-full, disable).
	// Default is "require" for production security. Use "disable" only for local development.
	SSLMode string `mapstructure:"ssl_mode"`
	// MaxConns is the maximum number of connections in the pool (default: 25).
	MaxConns int32 `mapstructure:"max_conns"`
	// MinConns is the minimum number of connections to keep open (default: 5).
	MinConns int32 `mapstructure:"min_conns"`
	// MaxConnLifetime is the maximum lifetime of a connection before it's closed.
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	// MaxConnIdleTime is the maximum time a connection can be idle before it's closed.
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	// HealthCheckPeriod is the interval between health checks of idle connections.
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
	// ConnectTimeout is the maximum time to wait for a connection.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// MigrationPath is the path to migration files (relative or absolute).
	MigrationPath string `mapstructure:"migration_path"`
	// MigrationAutoRun enables automatic migration on startup (default: false).
	MigrationAutoRun bool `mapstructure:"migration_auto_run"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// ArXivConfig holds arXiv collector configuration.
type ArXivConfig struct {
	// BaseURL is the arXiv API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second. The arXiv usage
	// guidelines ask for no more than 1 request every 3 seconds.
	RateLimit float64 `mapstructure:"rate_limit"`
	// MaxRetries is the maximum retry attempts per request.
	MaxRetries int `mapstructure:"max_retries"`
	// MaxResults is the maximum results per search request.
	MaxResults int `mapstructure:"max_results"`
}

// SemanticScholarConfig holds Semantic Scholar client configuration.
type SemanticScholarConfig struct {
	// BaseURL is the Graph API base URL.
	BaseURL string `mapstructure:"base_url"`
	// APIKey is the API key (loaded from PUBSVC_SEMANTIC_SCHOLAR_API_KEY env var).
	APIKey string `mapstructure:"-"`
	// Timeout is the timeout for API calls.
	Timeout time.Duration `mapstructure:"timeout"`
	// WindowRequests is the number of requests allowed per Window.
	WindowRequests int `mapstructure:"window_requests"`
	// Window is the sliding rate limit window.
	Window time.Duration `mapstructure:"window"`
	// Cooldown is the wait applied after a 429 response before retrying.
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// PipelineConfig holds ETL pipeline configuration.
type PipelineConfig struct {
	// Query is the default free-text search query.
	Query string `mapstructure:"query"`
	// Categories are the arXiv category codes to collect from.
	Categories []string `mapstructure:"categories"`
	// LookbackDays is how far back the default date window reaches.
	LookbackDays int `mapstructure:"lookback_days"`
	// MaxResults caps the number of records collected per run.
	MaxResults int `mapstructure:"max_results"`
	// SimilarityThreshold is the title similarity above which two
	// publications are considered duplicates (0.0-1.0).
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	// ClassifyThemes enables classifier-backed theme refinement.
	ClassifyThemes bool `mapstructure:"classify_themes"`
}

// EnrichmentConfig holds enrichment batch configuration.
type EnrichmentConfig struct {
	// BatchSize is the number of publications enriched per batch.
	BatchSize int `mapstructure:"batch_size"`
	// MaxConcurrent caps in-flight enrichments within a batch.
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// ForceUpdate re-enriches publications that already have citations.
	ForceUpdate bool `mapstructure:"force_update"`
}

// SchedulerConfig holds cron scheduling configuration for the ETL worker.
type SchedulerConfig struct {
	// Enabled controls whether the cron scheduler runs.
	Enabled bool `mapstructure:"enabled"`
	// PipelineCron is the cron expression for pipeline runs.
	PipelineCron string `mapstructure:"pipeline_cron"`
	// EnrichmentCron is the cron expression for enrichment runs.
	EnrichmentCron string `mapstructure:"enrichment_cron"`
}

// KafkaConfig holds Kafka publisher settings for lifecycle events.
type KafkaConfig struct {
	// Enabled controls whether Kafka publishing is active.
	Enabled bool `mapstructure:"enabled"`
	// Brokers is the list of Kafka broker addresses.
	Brokers []string `mapstructure:"brokers"`
	// Topic is the Kafka topic to publish publication events to.
	Topic string `mapstructure:"topic"`
	// BatchSize is the maximum number of messages to batch before sending.
	BatchSize int `mapstructure:"batch_size"`
	// BatchTimeout is the maximum time to wait for a batch to fill before sending.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		params.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds())))
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		params.Encode(),
	)
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("PUBSVC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/publication-service")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.SemanticScholar.APIKey = os.Getenv("PUBSVC_SEMANTIC_SCHOLAR_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "2m")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "pubsvc")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "publication_service")
	// Default to "require" for production security. Use PUBSVC_DATABASE_SSL_MODE=disable for local development.
	v.SetDefault("database.ssl_mode", SSLModeRequire)
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.health_check_period", "30s")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.migration_path", "migrations")
	v.SetDefault("database.migration_auto_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// arXiv collector defaults
	v.SetDefault("arxiv.base_url", "https://export.arxiv.org/api")
	v.SetDefault("arxiv.timeout", "30s")
	v.SetDefault("arxiv.rate_limit", 1.0/3.0)
	v.SetDefault("arxiv.max_retries", 3)
	v.SetDefault("arxiv.max_results", 100)

	// Semantic Scholar defaults
	// The API key is loaded exclusively from the environment (see loadSecrets).
	v.SetDefault("semantic_scholar.base_url", "https://api.semanticscholar.org/graph/v1")
	v.SetDefault("semantic_scholar.timeout", "30s")
	v.SetDefault("semantic_scholar.window_requests", 100)
	v.SetDefault("semantic_scholar.window", "5m")
	v.SetDefault("semantic_scholar.cooldown", "60s")

	// Pipeline defaults
	v.SetDefault("pipeline.query", "artificial intelligence")
	v.SetDefault("pipeline.categories", []string{"cs.AI", "cs.LG", "cs.CV", "cs.CL", "cs.NE", "stat.ML"})
	v.SetDefault("pipeline.lookback_days", 7)
	v.SetDefault("pipeline.max_results", 100)
	v.SetDefault("pipeline.similarity_threshold", 0.95)
	v.SetDefault("pipeline.classify_themes", false)

	// Enrichment defaults
	v.SetDefault("enrichment.batch_size", 50)
	v.SetDefault("enrichment.max_concurrent", 5)
	v.SetDefault("enrichment.force_update", false)

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.pipeline_cron", "0 2 * * *")
	v.SetDefault("scheduler.enrichment_cron", "0 4 * * *")

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "events.publication_service")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "10ms")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}

	// Validate database config
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns (%d) must be >= min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	// Validate pipeline config
	if c.Pipeline.SimilarityThreshold < 0 || c.Pipeline.SimilarityThreshold > 1 {
		return fmt.Errorf("pipeline similarity threshold must be between 0 and 1")
	}
	if c.Pipeline.MaxResults <= 0 {
		return fmt.Errorf("pipeline max_results must be positive")
	}
	if c.Pipeline.LookbackDays <= 0 {
		return fmt.Errorf("pipeline lookback_days must be positive")
	}

	// Validate enrichment config
	if c.Enrichment.BatchSize <= 0 {
		return fmt.Errorf("enrichment batch_size must be positive")
	}
	if c.Enrichment.MaxConcurrent <= 0 {
		return fmt.Errorf("enrichment max_concurrent must be positive")
	}

	// Validate scheduler config
	if c.Scheduler.Enabled {
		if c.Scheduler.PipelineCron == "" {
			return fmt.Errorf("scheduler pipeline_cron is required when the scheduler is enabled")
		}
		if c.Scheduler.EnrichmentCron == "" {
			return fmt.Errorf("scheduler enrichment_cron is required when the scheduler is enabled")
		}
	}

	// Validate Kafka config
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic is required when kafka is enabled")
		}
	}

	return nil
}
