package quota

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultMaxTrackedClients caps distinct clients in the fallback so an
	// attacker rotating identifiers cannot exhaust memory.
	DefaultMaxTrackedClients = 10000

	// DefaultSweepInterval is how many calls pass between proactive sweeps
	// of stale clients.
	DefaultSweepInterval = 100
)

// MemoryBackend is the in-process fallback: per-client timestamp lists over
// the minute and hour windows, guarded by one store-scoped mutex. Operations
// are cheap, so a single lock beats per-client locking.
//
// The backend is per-replica. In a multi-replica deployment each replica
// counts only its own traffic, so enforcement is approximate while the shared
// backend is down.
type MemoryBackend struct {
	limits        Limits
	maxClients    int
	sweepInterval int

	mu           sync.Mutex
	minute       map[string][]time.Time
	hour         map[string][]time.Time
	sweepCounter int

	// now is the time source, overridable in tests.
	now func() time.Time
}

// MemoryBackendConfig configures the fallback. Zero values use defaults.
type MemoryBackendConfig struct {
	// Limits are the per-client ceilings.
	Limits Limits

	// MaxTrackedClients caps distinct clients; least-recently-active clients
	// are evicted when admitting a new client would exceed it.
	MaxTrackedClients int

	// SweepInterval is the number of calls between stale-client sweeps.
	SweepInterval int
}

// NewMemoryBackend creates an in-process backend with default bounds.
func NewMemoryBackend(limits Limits) *MemoryBackend {
	return NewMemoryBackendWithConfig(MemoryBackendConfig{Limits: limits})
}

// NewMemoryBackendWithConfig creates an in-process backend with custom bounds.
func NewMemoryBackendWithConfig(cfg MemoryBackendConfig) *MemoryBackend {
	if cfg.Limits.RequestsPerMinute <= 0 || cfg.Limits.RequestsPerHour <= 0 {
		defaults := DefaultLimits()
		if cfg.Limits.RequestsPerMinute <= 0 {
			cfg.Limits.RequestsPerMinute = defaults.RequestsPerMinute
		}
		if cfg.Limits.RequestsPerHour <= 0 {
			cfg.Limits.RequestsPerHour = defaults.RequestsPerHour
		}
	}
	if cfg.MaxTrackedClients <= 0 {
		cfg.MaxTrackedClients = DefaultMaxTrackedClients
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}

	return &MemoryBackend{
		limits:        cfg.Limits,
		maxClients:    cfg.MaxTrackedClients,
		sweepInterval: cfg.SweepInterval,
		minute:        make(map[string][]time.Time),
		hour:          make(map[string][]time.Time),
		now:           time.Now,
	}
}

// CheckAndRecord checks both windows and records the request when allowed.
// The check and the record happen under one lock acquisition, so concurrent
// requests from the same client cannot slip past the limit between them.
func (b *MemoryBackend) CheckAndRecord(_ context.Context, clientID string) (Decision, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	b.sweepCounter++
	if b.sweepCounter >= b.sweepInterval {
		b.sweepCounter = 0
		b.sweepStaleLocked(now)
	}

	if _, tracked := b.hour[clientID]; !tracked {
		b.evictForCapLocked()
	}

	b.minute[clientID] = pruneOlderThan(b.minute[clientID], now.Add(-minuteWindow))
	if len(b.minute[clientID]) >= b.limits.RequestsPerMinute {
		return deniedMinute(), nil
	}

	b.hour[clientID] = pruneOlderThan(b.hour[clientID], now.Add(-hourWindow))
	if len(b.hour[clientID]) >= b.limits.RequestsPerHour {
		return deniedHour(), nil
	}

	b.minute[clientID] = append(b.minute[clientID], now)
	b.hour[clientID] = append(b.hour[clientID], now)

	return allowed(), nil
}

// TrackedClients returns the number of distinct clients currently held.
func (b *MemoryBackend) TrackedClients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.hour)
}

// Close releases nothing; the backend holds no external resources.
func (b *MemoryBackend) Close() error { return nil }

// sweepStaleLocked purges clients whose most recent activity is older than
// the hour window. This runs every sweepInterval calls independent of cap
// eviction, bounding steady-state memory even under low call volume.
func (b *MemoryBackend) sweepStaleLocked(now time.Time) {
	cutoff := now.Add(-hourWindow)
	for clientID, stamps := range b.hour {
		if len(stamps) == 0 || stamps[len(stamps)-1].Before(cutoff) {
			delete(b.hour, clientID)
			delete(b.minute, clientID)
		}
	}
}

// evictForCapLocked makes room for one new client by evicting the
// least-recently-active clients (by most recent hour-window timestamp) until
// the map is back under cap.
func (b *MemoryBackend) evictForCapLocked() {
	excess := len(b.hour) - b.maxClients + 1
	if excess <= 0 {
		return
	}

	type clientActivity struct {
		id   string
		last time.Time
	}
	clients := make([]clientActivity, 0, len(b.hour))
	for clientID, stamps := range b.hour {
		var last time.Time
		if len(stamps) > 0 {
			last = stamps[len(stamps)-1]
		}
		clients = append(clients, clientActivity{id: clientID, last: last})
	}

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].last.Before(clients[j].last)
	})

	for i := 0; i < excess && i < len(clients); i++ {
		delete(b.hour, clients[i].id)
		delete(b.minute, clients[i].id)
	}
}

// pruneOlderThan drops timestamps at or before cutoff. Lists are appended in
// time order, so the first retained index bounds the copy.
func pruneOlderThan(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := sort.Search(len(stamps), func(i int) bool {
		return stamps[i].After(cutoff)
	})
	if idx == 0 {
		return stamps
	}
	return append(stamps[:0:0], stamps[idx:]...)
}
