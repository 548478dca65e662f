// Package config defines the gateway's configuration surface: YAML file,
// NKU_* environment overrides, defaults, and validation.
//
// One *Config is constructed at startup and passed by reference into the
// gateway and its sub-components. Nothing reads configuration ambiently and
// nothing mutates it after Load returns.
package config

import "time"

// Config is the root configuration.
type Config struct {
	// Server configures the HTTP harness.
	Server ServerConfig `yaml:"server"`

	// Upstream configures the downstream model endpoint.
	Upstream UpstreamConfig `yaml:"upstream"`

	// Limits configures rate limiting.
	Limits LimitsConfig `yaml:"limits"`

	// Validation configures input length bounds.
	Validation ValidationConfig `yaml:"validation"`

	// Output configures the output guard.
	Output OutputConfig `yaml:"output"`

	// Audit configures the security event store.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port to bind.
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout, WriteTimeout and IdleTimeout are the server timeouts.
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`

	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// UpstreamConfig configures the model inference endpoint the gateway
// brackets. The call itself is out of gateway scope; this is only where to
// send it.
type UpstreamConfig struct {
	// URL is the inference endpoint.
	URL string `yaml:"url"`

	// Timeout bounds each inference call.
	Timeout time.Duration `yaml:"timeout"`
}

// LimitsConfig configures the dual-backend quota store.
type LimitsConfig struct {
	// Enabled toggles rate limiting.
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute and RequestsPerHour are the per-client ceilings.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerHour   int `yaml:"requests_per_hour"`

	// RedisAddr is the shared backend address; empty runs fallback-only.
	RedisAddr string `yaml:"redis_addr"`

	// RedisPassword authenticates the shared backend; empty for none.
	RedisPassword string `yaml:"redis_password"`

	// RedisDB selects the Redis logical database.
	RedisDB int `yaml:"redis_db"`

	// OpTimeout bounds each shared-backend round trip.
	OpTimeout time.Duration `yaml:"op_timeout"`
}

// ValidationConfig configures input bounds.
type ValidationConfig struct {
	// MaxTextLength bounds translation text.
	MaxTextLength int `yaml:"max_text_length"`

	// MaxSymptomLength bounds symptom descriptions.
	MaxSymptomLength int `yaml:"max_symptom_length"`

	// MaxLanguageCodeLength bounds language codes.
	MaxLanguageCodeLength int `yaml:"max_language_code_length"`
}

// OutputConfig configures the output guard.
type OutputConfig struct {
	// MaxLength is the defensive cap on model output.
	MaxLength int `yaml:"max_length"`
}

// AuditConfig configures the security event store.
type AuditConfig struct {
	// Enabled toggles audit recording.
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database path.
	DBPath string `yaml:"db_path"`

	// Buffer is the async recorder channel capacity.
	Buffer int `yaml:"buffer"`

	// RetentionDays is how many days of events to keep.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a standard cron expression; empty disables purging.
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`

	// AddSource includes file:line in records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled toggles the /metrics endpoint.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`
}
