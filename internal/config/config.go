package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"    validate:"required"`
	KEGG     KEGGConfig     `mapstructure:"kegg"     validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
}

// ServerConfig contains all HTTP server related settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// RedisConfig contains settings for the ephemeral progress store.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// KEGGConfig contains settings for the remote gene database client.
type KEGGConfig struct {
	// BaseURL is the root of the KEGG REST API.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// RateInterval is the minimum time between two requests from one
	// client instance. The public KEGG limit is 3 requests/second,
	// hence the 350ms default.
	RateInterval time.Duration `mapstructure:"rate_interval" validate:"required"`

	// MaxRetries is the number of attempts per request before the
	// client gives up and reports a service error.
	MaxRetries int `mapstructure:"max_retries" validate:"required,gte=1"`
}

// WorkerConfig contains settings for the background job pipeline.
type WorkerConfig struct {
	// Count is the number of concurrent job workers; each worker
	// processes one organism at a time.
	Count int `mapstructure:"count" validate:"required,gte=1"`

	// QueueSize is the buffer size of the in-memory job queue.
	QueueSize int `mapstructure:"queue_size" validate:"required,gte=1"`

	// ResolveConcurrency bounds how many per-gene ortholog lookups run
	// at once within a single job.
	ResolveConcurrency int `mapstructure:"resolve_concurrency" validate:"required,gte=1"`

	// JobTimeout is the ceiling on a single organism processing run.
	JobTimeout time.Duration `mapstructure:"job_timeout" validate:"required"`
}
