package config

import "fmt"

// Validate checks a fully defaulted configuration for values that would
// misbehave at runtime. It returns the first problem found.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address must not be empty")
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive, got %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive, got %s", cfg.Server.WriteTimeout)
	}

	if cfg.Upstream.URL == "" {
		return fmt.Errorf("upstream.url must not be empty")
	}
	if cfg.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %s", cfg.Upstream.Timeout)
	}

	if cfg.Limits.Enabled {
		if cfg.Limits.RequestsPerMinute <= 0 {
			return fmt.Errorf("limits.requests_per_minute must be positive, got %d", cfg.Limits.RequestsPerMinute)
		}
		if cfg.Limits.RequestsPerHour <= 0 {
			return fmt.Errorf("limits.requests_per_hour must be positive, got %d", cfg.Limits.RequestsPerHour)
		}
		if cfg.Limits.RequestsPerMinute > cfg.Limits.RequestsPerHour {
			return fmt.Errorf("limits.requests_per_minute (%d) exceeds limits.requests_per_hour (%d)",
				cfg.Limits.RequestsPerMinute, cfg.Limits.RequestsPerHour)
		}
	}

	if cfg.Validation.MaxTextLength <= 0 {
		return fmt.Errorf("validation.max_text_length must be positive, got %d", cfg.Validation.MaxTextLength)
	}
	if cfg.Validation.MaxSymptomLength <= 0 {
		return fmt.Errorf("validation.max_symptom_length must be positive, got %d", cfg.Validation.MaxSymptomLength)
	}
	if cfg.Validation.MaxLanguageCodeLength <= 0 {
		return fmt.Errorf("validation.max_language_code_length must be positive, got %d", cfg.Validation.MaxLanguageCodeLength)
	}

	if cfg.Output.MaxLength <= 0 {
		return fmt.Errorf("output.max_length must be positive, got %d", cfg.Output.MaxLength)
	}

	if cfg.Audit.Enabled {
		if cfg.Audit.DBPath == "" {
			return fmt.Errorf("audit.db_path must not be empty when audit is enabled")
		}
		if cfg.Audit.Buffer <= 0 {
			return fmt.Errorf("audit.buffer must be positive, got %d", cfg.Audit.Buffer)
		}
		if cfg.Audit.RetentionDays <= 0 {
			return fmt.Errorf("audit.retention_days must be positive, got %d", cfg.Audit.RetentionDays)
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level must be one of debug, info, warn, error; got %q",
			cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format must be json or text, got %q",
			cfg.Telemetry.Logging.Format)
	}

	return nil
}
