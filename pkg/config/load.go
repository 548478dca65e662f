package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML configuration file, applies environment
// overrides, fills defaults, and validates the result. Path may be empty,
// in which case the configuration is built entirely from environment
// variables and defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides lets a small set of NKU_* environment variables
// override file values. These cover the knobs that differ per deployment
// environment; everything else belongs in the file.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("NKU_LISTEN_ADDRESS"); v != "" {
		cfg.Server.ListenAddress = v
	}
	if v := os.Getenv("NKU_UPSTREAM_URL"); v != "" {
		cfg.Upstream.URL = v
	}
	if v := os.Getenv("NKU_UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("NKU_UPSTREAM_TIMEOUT: %w", err)
		}
		cfg.Upstream.Timeout = d
	}
	if v := os.Getenv("NKU_REDIS_ADDR"); v != "" {
		cfg.Limits.RedisAddr = v
	}
	if v := os.Getenv("NKU_REDIS_PASSWORD"); v != "" {
		cfg.Limits.RedisPassword = v
	}
	if v := os.Getenv("NKU_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NKU_REDIS_DB: %w", err)
		}
		cfg.Limits.RedisDB = n
	}
	if v := os.Getenv("NKU_LIMITS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NKU_LIMITS_ENABLED: %w", err)
		}
		cfg.Limits.Enabled = b
	}
	if v := os.Getenv("NKU_AUDIT_DB_PATH"); v != "" {
		cfg.Audit.DBPath = v
	}
	if v := os.Getenv("NKU_LOG_LEVEL"); v != "" {
		cfg.Telemetry.Logging.Level = v
	}
	if v := os.Getenv("NKU_LOG_FORMAT"); v != "" {
		cfg.Telemetry.Logging.Format = v
	}
	return nil
}
