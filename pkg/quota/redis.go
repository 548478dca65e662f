package quota

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key schema: one sorted set per client per window, scored by unix
// seconds, members unique per request.
const (
	minuteKeyPrefix = "nku:rl:min:"
	hourKeyPrefix   = "nku:rl:hr:"
)

// DefaultRedisOpTimeout bounds each shared-store round trip. The gateway
// runs on the request path: a slow Redis must fail fast into the in-process
// fallback rather than stall every request.
const DefaultRedisOpTimeout = 2 * time.Second

// RedisBackendConfig configures the shared backend.
type RedisBackendConfig struct {
	// Addr is the Redis host:port.
	Addr string

	// Password authenticates the connection; empty for none.
	Password string

	// DB selects the Redis logical database.
	DB int

	// Limits are the per-client ceilings.
	Limits Limits

	// OpTimeout bounds each CheckAndRecord round trip.
	// Default: DefaultRedisOpTimeout.
	OpTimeout time.Duration
}

// RedisBackend is the shared, cross-replica quota backend. Every replica
// reads and writes the same sorted sets, so limits hold across the whole
// deployment.
type RedisBackend struct {
	client    *redis.Client
	limits    Limits
	opTimeout time.Duration
}

// NewRedisBackend connects to Redis and verifies the connection with a ping.
func NewRedisBackend(cfg RedisBackendConfig) (*RedisBackend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewRedisBackendWithClient(client, cfg), nil
}

// NewRedisBackendWithClient wraps an existing client. The backend takes
// ownership and closes it on Close.
func NewRedisBackendWithClient(client *redis.Client, cfg RedisBackendConfig) *RedisBackend {
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = DefaultRedisOpTimeout
	}
	if cfg.Limits.RequestsPerMinute <= 0 || cfg.Limits.RequestsPerHour <= 0 {
		defaults := DefaultLimits()
		if cfg.Limits.RequestsPerMinute <= 0 {
			cfg.Limits.RequestsPerMinute = defaults.RequestsPerMinute
		}
		if cfg.Limits.RequestsPerHour <= 0 {
			cfg.Limits.RequestsPerHour = defaults.RequestsPerHour
		}
	}

	return &RedisBackend{
		client:    client,
		limits:    cfg.Limits,
		opTimeout: cfg.OpTimeout,
	}
}

// CheckAndRecord evicts expired entries, reads both window counts, and either
// denies without recording or records the request and extends key expiry.
//
// Two pipelines keep it to two round trips: evict+count, then record. A
// concurrent burst can slightly overshoot the limit between the pipelines;
// the window prune on the next call corrects the count, which is the usual
// sliding-window trade against holding a distributed lock per request.
func (b *RedisBackend) CheckAndRecord(ctx context.Context, clientID string) (Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opTimeout)
	defer cancel()

	now := time.Now()
	nowSec := float64(now.Unix())
	minuteKey := minuteKeyPrefix + clientID
	hourKey := hourKeyPrefix + clientID

	pipe := b.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, minuteKey, "0", formatScore(nowSec-minuteWindow.Seconds()))
	minuteCount := pipe.ZCard(ctx, minuteKey)
	pipe.ZRemRangeByScore(ctx, hourKey, "0", formatScore(nowSec-hourWindow.Seconds()))
	hourCount := pipe.ZCard(ctx, hourKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("quota window read: %w", err)
	}

	if minuteCount.Val() >= int64(b.limits.RequestsPerMinute) {
		return deniedMinute(), nil
	}
	if hourCount.Val() >= int64(b.limits.RequestsPerHour) {
		return deniedHour(), nil
	}

	// Nanosecond member keeps same-second requests distinct in the set.
	member := strconv.FormatInt(now.UnixNano(), 10)

	record := b.client.Pipeline()
	record.ZAdd(ctx, minuteKey, redis.Z{Score: nowSec, Member: member})
	record.Expire(ctx, minuteKey, minuteKeyTTL)
	record.ZAdd(ctx, hourKey, redis.Z{Score: nowSec, Member: member})
	record.Expire(ctx, hourKey, hourKeyTTL)
	if _, err := record.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("quota record: %w", err)
	}

	return allowed(), nil
}

// Close closes the underlying Redis client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
