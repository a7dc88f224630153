// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Extraction ExtractionConfig
	Preview    PreviewConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 120s,
	// PDF proxying can be slow on large statements)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"120s"`

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

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// AuthConfig holds email/OTP sign-in settings.
type AuthConfig struct {
	// AllowedEmails is the comma-separated list of addresses permitted to
	// sign in. Matching is exact and case-insensitive.
	AllowedEmails []string `env:"AUTH_ALLOWED_EMAILS" required:"true"`

	// OTPTTL is how long a one-time code stays valid (default: 10m)
	OTPTTL time.Duration `env:"AUTH_OTP_TTL" default:"10m"`

	// SessionTTL is how long a session stays valid after sign-in (default: 12h)
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" default:"12h"`
}

// ExtractionConfig holds settings for the external extraction pipeline:
// where statement PDFs live and where company names are validated.
type ExtractionConfig struct {
	// StorageBaseURL is the base URL of the object store holding uploaded
	// statement PDFs; the proxy appends the escaped storage key.
	StorageBaseURL string `env:"EXTRACTION_STORAGE_BASE_URL" required:"true"`

	// ValidationEndpoint is the company-name validation service URL.
	// Empty disables remote validation.
	ValidationEndpoint string `env:"EXTRACTION_VALIDATION_ENDPOINT"`

	// MaxPDFSize is the largest statement the proxy will serve (default: 50MB)
	MaxPDFSize int64 `env:"EXTRACTION_MAX_PDF_SIZE" default:"52428800"`

	// RequestTimeout bounds calls to the storage and validation services (default: 30s)
	RequestTimeout time.Duration `env:"EXTRACTION_REQUEST_TIMEOUT" default:"30s"`
}

// PreviewConfig holds PDF preview retry settings.
type PreviewConfig struct {
	// MaxRetries is the number of retries after the initial attempt (default: 3)
	MaxRetries int `env:"PREVIEW_MAX_RETRIES" default:"3"`

	// BackoffBase is the delay before the first retry; it doubles per attempt (default: 1s)
	BackoffBase time.Duration `env:"PREVIEW_BACKOFF_BASE" default:"1s"`

	// BackoffCap is the upper bound on the retry delay (default: 5s)
	BackoffCap time.Duration `env:"PREVIEW_BACKOFF_CAP" default:"5s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// AuthLimit is requests per minute for the OTP endpoints (default: 10)
	AuthLimit int `env:"RATE_LIMIT_AUTH" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// SecureCookies marks session cookies Secure (default: true; disable for
	// plain-HTTP local development)
	SecureCookies bool `env:"SECURITY_SECURE_COOKIES" default:"true"`
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
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
