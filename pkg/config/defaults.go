package config

import "time"

// Default values applied to zero-valued fields before validation.
const (
	DefaultListenAddress = ":8080"
	DefaultReadTimeout   = 30 * time.Second
	DefaultWriteTimeout  = 60 * time.Second
	DefaultIdleTimeout   = 120 * time.Second
	DefaultMaxBodyBytes  = 5 * 1024 * 1024 // 5 MiB

	DefaultUpstreamTimeout = 60 * time.Second

	DefaultRequestsPerMinute = 30
	DefaultRequestsPerHour   = 500
	DefaultOpTimeout         = 2 * time.Second

	DefaultMaxTextLength         = 2000
	DefaultMaxSymptomLength      = 1000
	DefaultMaxLanguageCodeLength = 10

	DefaultMaxOutputLength = 5000

	DefaultAuditDBPath    = "nku-audit.db"
	DefaultAuditBuffer    = 1000
	DefaultRetentionDays  = 30
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultMetricsPath    = "/metrics"
)

// ApplyDefaults fills zero-valued fields with production defaults. Boolean
// toggles are left alone: their zero value is a deliberate "off".
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}

	if cfg.Limits.RequestsPerMinute == 0 {
		cfg.Limits.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.Limits.RequestsPerHour == 0 {
		cfg.Limits.RequestsPerHour = DefaultRequestsPerHour
	}
	if cfg.Limits.OpTimeout == 0 {
		cfg.Limits.OpTimeout = DefaultOpTimeout
	}

	if cfg.Validation.MaxTextLength == 0 {
		cfg.Validation.MaxTextLength = DefaultMaxTextLength
	}
	if cfg.Validation.MaxSymptomLength == 0 {
		cfg.Validation.MaxSymptomLength = DefaultMaxSymptomLength
	}
	if cfg.Validation.MaxLanguageCodeLength == 0 {
		cfg.Validation.MaxLanguageCodeLength = DefaultMaxLanguageCodeLength
	}

	if cfg.Output.MaxLength == 0 {
		cfg.Output.MaxLength = DefaultMaxOutputLength
	}

	if cfg.Audit.DBPath == "" {
		cfg.Audit.DBPath = DefaultAuditDBPath
	}
	if cfg.Audit.Buffer == 0 {
		cfg.Audit.Buffer = DefaultAuditBuffer
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultRetentionDays
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
