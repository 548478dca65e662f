package quota

import (
	"context"
	"errors"
	"testing"
)

// stubBackend scripts shared-backend behavior for Store tests.
type stubBackend struct {
	decision Decision
	err      error
	calls    int
}

func (s *stubBackend) CheckAndRecord(_ context.Context, _ string) (Decision, error) {
	s.calls++
	return s.decision, s.err
}

func (s *stubBackend) Close() error { return nil }

func TestStore_Disabled(t *testing.T) {
	shared := &stubBackend{err: errors.New("should not be called")}
	store := NewStore(StoreConfig{
		Limits:  Limits{RequestsPerMinute: 1, RequestsPerHour: 1},
		Enabled: false,
		Shared:  shared,
	})

	for i := 0; i < 10; i++ {
		if d := store.CheckAndRecord(context.Background(), "client-a"); !d.Allowed {
			t.Fatal("disabled store denied a request")
		}
	}
	if shared.calls != 0 {
		t.Errorf("shared backend called %d times while disabled", shared.calls)
	}
}

func TestStore_SharedDecisionWins(t *testing.T) {
	shared := &stubBackend{decision: Decision{RetryAfter: 60, Window: WindowMinute}}
	store := NewStore(StoreConfig{
		Limits:  DefaultLimits(),
		Enabled: true,
		Shared:  shared,
	})

	d := store.CheckAndRecord(context.Background(), "client-a")
	if d.Allowed {
		t.Fatal("shared denial not propagated")
	}
	if d.RetryAfter != 60 {
		t.Errorf("RetryAfter = %d, want 60", d.RetryAfter)
	}
}

func TestStore_FailoverToFallback(t *testing.T) {
	shared := &stubBackend{err: errors.New("connection refused")}
	store := NewStore(StoreConfig{
		Limits:  Limits{RequestsPerMinute: 2, RequestsPerHour: 100},
		Enabled: true,
		Shared:  shared,
	})
	ctx := context.Background()

	// Shared failures never surface; the fallback enforces its own limits.
	for i := 0; i < 2; i++ {
		if d := store.CheckAndRecord(ctx, "client-a"); !d.Allowed {
			t.Fatalf("request %d denied", i+1)
		}
	}
	if d := store.CheckAndRecord(ctx, "client-a"); d.Allowed {
		t.Error("fallback limit not enforced after failover")
	}
	if shared.calls != 3 {
		t.Errorf("shared backend tried %d times, want 3 (retried every call)", shared.calls)
	}
}

func TestStore_NoSharedBackend(t *testing.T) {
	store := NewStore(StoreConfig{
		Limits:  Limits{RequestsPerMinute: 1, RequestsPerHour: 100},
		Enabled: true,
	})
	ctx := context.Background()

	if d := store.CheckAndRecord(ctx, "client-a"); !d.Allowed {
		t.Fatal("first request denied")
	}
	if d := store.CheckAndRecord(ctx, "client-a"); d.Allowed {
		t.Error("fallback-only store did not enforce the limit")
	}
}
