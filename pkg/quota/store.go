package quota

import (
	"context"
	"log/slog"

	"github.com/elormyevu/nku-gateway/pkg/telemetry/metrics"
)

// Store orchestrates the dual backends: a shared cross-replica backend when
// configured, with silent per-call fallback to the in-process backend on any
// shared-store error.
type Store struct {
	shared   Backend
	fallback *MemoryBackend
	enabled  bool
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// StoreConfig configures the Store.
type StoreConfig struct {
	// Limits are the per-client ceilings, applied to both backends.
	Limits Limits

	// Enabled toggles rate limiting. When false every check allows.
	Enabled bool

	// Shared is the optional cross-replica backend. Nil means fallback-only.
	Shared Backend

	// Logger receives failover warnings. Nil falls back to slog.Default.
	Logger *slog.Logger

	// Metrics receives quota counters. Nil disables metric recording.
	Metrics *metrics.Metrics
}

// NewStore creates a Store. The in-process fallback is always constructed so
// failover never allocates on the request path.
func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Store{
		shared:   cfg.Shared,
		fallback: NewMemoryBackend(cfg.Limits),
		enabled:  cfg.Enabled,
		logger:   logger.With("component", "quota.store"),
		metrics:  cfg.Metrics,
	}
}

// CheckAndRecord returns the quota decision for one request. It never returns
// an error: any shared-backend failure (timeout, network) falls back to the
// in-process backend for this call, trading perfect distributed fairness for
// availability. The failure is logged and counted server-side only.
func (s *Store) CheckAndRecord(ctx context.Context, clientID string) Decision {
	if !s.enabled {
		return allowed()
	}

	if s.shared != nil {
		decision, err := s.shared.CheckAndRecord(ctx, clientID)
		if err == nil {
			s.record("shared", decision)
			return decision
		}
		s.logger.Warn("shared quota backend failed, falling back to in-process",
			"error", err)
		if s.metrics != nil {
			s.metrics.RecordBackendFailover()
		}
	}

	decision, err := s.fallback.CheckAndRecord(ctx, clientID)
	if err != nil {
		// The in-process backend cannot fail today; if it ever does, allow
		// rather than reject a legitimate request over accounting state.
		s.logger.Error("fallback quota backend failed, allowing request",
			"error", err)
		return allowed()
	}

	s.record("fallback", decision)
	if s.metrics != nil {
		s.metrics.SetTrackedClients(s.fallback.TrackedClients())
	}
	return decision
}

// Close closes both backends.
func (s *Store) Close() error {
	var err error
	if s.shared != nil {
		err = s.shared.Close()
	}
	if cerr := s.fallback.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (s *Store) record(backend string, decision Decision) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordQuotaCheck(backend, decision.Allowed)
	if !decision.Allowed {
		s.metrics.RecordQuotaDenial(string(decision.Window))
	}
}
