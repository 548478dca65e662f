package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// RetentionConfig controls how long events are kept and when purging runs.
type RetentionConfig struct {
	// RetentionDays is how many days of events to keep. Default: 30.
	RetentionDays int

	// PruneSchedule is a standard cron expression ("0 3 * * *" for daily at
	// 3 AM). Empty disables scheduled purging.
	PruneSchedule string
}

// Scheduler runs retention purges on a cron schedule.
type Scheduler struct {
	store   Store
	cfg     RetentionConfig
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a retention scheduler over store. A nil logger falls
// back to slog.Default.
func NewScheduler(store Store, cfg RetentionConfig, logger *slog.Logger) *Scheduler {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:  store,
		cfg:    cfg,
		cron:   cron.New(),
		logger: logger.With("component", "audit.scheduler"),
	}
}

// Start begins scheduled purging. When no schedule is configured the
// scheduler is a no-op. The scheduler stops itself when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.PruneSchedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.cfg.PruneSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.cfg.PruneSchedule, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.PruneSchedule, func() {
		s.runPurge(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule purge: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("retention scheduler started",
		"schedule", s.cfg.PruneSchedule,
		"retention_days", s.cfg.RetentionDays)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the scheduler and waits for a running purge to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false

	s.logger.Info("retention scheduler stopped")
}

func (s *Scheduler) runPurge(ctx context.Context) {
	cutoff := time.Now().AddDate(0, 0, -s.cfg.RetentionDays)

	deleted, err := s.store.Purge(ctx, cutoff)
	if err != nil {
		s.logger.Error("scheduled purge failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled purge completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled purge completed, no events deleted")
	}
}
