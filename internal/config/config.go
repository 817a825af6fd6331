// Package config provides centralized configuration management for the fetcher
// and the API server. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Dataset  DatasetConfig
	Ingest   IngestConfig
	API      APIConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 3000)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"3000"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// DatasetConfig describes the git mirror holding the daily reports.
type DatasetConfig struct {
	// Dir is the local clone directory (default: .cache)
	Dir string `env:"DATASET_DIR" default:".cache"`

	// RemoteURL is the upstream repository
	RemoteURL string `env:"DATASET_REMOTE_URL" default:"https://github.com/CSSEGISandData/COVID-19.git"`

	// Branch is the branch to track (default: master)
	Branch string `env:"DATASET_BRANCH" default:"master"`

	// DataPath is the daily report directory, relative to Dir
	DataPath string `env:"DATASET_DATA_PATH" default:"csse_covid_19_data/csse_covid_19_daily_reports"`

	// Timeout bounds one fetch run, clone or pull included (default: 10m)
	Timeout time.Duration `env:"DATASET_TIMEOUT" default:"10m"`
}

// IngestConfig holds file ingestion settings.
type IngestConfig struct {
	// MaxOpenFiles caps concurrently open dataset files (default: 64)
	MaxOpenFiles int `env:"INGEST_MAX_OPEN_FILES" default:"64"`

	// FileExtension selects which directory entries are parsed (default: .csv)
	FileExtension string `env:"INGEST_FILE_EXTENSION" default:".csv"`

	// Country is the default country scope; "any" is unconstrained
	Country string `env:"INGEST_COUNTRY" default:"any"`

	// State is the default state scope; "any" is unconstrained
	State string `env:"INGEST_STATE" default:"any"`
}

// APIConfig holds read API settings.
type APIConfig struct {
	// PageSize is the number of records returned per /data page (default: 500)
	PageSize int `env:"API_PAGE_SIZE" default:"500"`

	// GeohashPrecision is the geohash length attached to records (default: 9)
	GeohashPrecision int `env:"API_GEOHASH_PRECISION" default:"9"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// DataDir returns the directory holding the daily CSV files.
func (c *DatasetConfig) DataDir() string {
	return filepath.Join(c.Dir, c.DataPath)
}
