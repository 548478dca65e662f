// Package logging configures structured logging for the gateway.
//
// All components log through log/slog with a component attribute, so one
// handler configured at startup governs level and format everywhere. Security
// rejections log hash prefixes and lengths, never request text.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the log output format.
type Format string

const (
	// FormatJSON outputs one JSON object per line.
	FormatJSON Format = "json"
	// FormatText outputs logfmt-style text.
	FormatText Format = "text"
)

// Config controls handler construction.
type Config struct {
	// Level is the minimum level: "debug", "info", "warn" or "error".
	Level string

	// Format is "json" or "text".
	Format string

	// AddSource includes file:line in records.
	AddSource bool

	// Writer receives log output. Defaults to os.Stdout.
	Writer io.Writer
}

// New builds a *slog.Logger from cfg. Unknown levels or formats are errors
// rather than silent fallbacks so misconfiguration is caught at startup.
func New(cfg Config) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.AddSource}

	var handler slog.Handler
	switch Format(strings.ToLower(cfg.Format)) {
	case FormatJSON, "":
		handler = slog.NewJSONHandler(w, opts)
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return slog.New(handler), nil
}

// Component returns a child logger tagged with a component name.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}
