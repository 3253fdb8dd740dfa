package schedule

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lcalzada-xor/assetvuln/internal/core/ports"
)

// Defaults of the periodic jobs.
const (
	DefaultInterval        = 72 * time.Hour
	DefaultPurgeInterval   = 24 * time.Hour
	DefaultNotificationTTL = 90 * 24 * time.Hour
)

// Config controls the periodic jobs. Zero values fall back to the defaults.
type Config struct {
	Interval        time.Duration
	RunOnStart      bool
	PurgeInterval   time.Duration
	NotificationTTL time.Duration
}

// NotificationPurger deletes expired notifications.
type NotificationPurger interface {
	PurgeNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler triggers full reconciliations and the notification retention
// purge on fixed intervals.
type Scheduler struct {
	reconciler ports.Reconciler
	purger     NotificationPurger
	cfg        Config
	now        func() time.Time
}

func NewScheduler(reconciler ports.Reconciler, purger NotificationPurger, cfg Config) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = DefaultPurgeInterval
	}
	if cfg.NotificationTTL <= 0 {
		cfg.NotificationTTL = DefaultNotificationTTL
	}
	return &Scheduler{reconciler: reconciler, purger: purger, cfg: cfg, now: time.Now}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("scheduler started",
		"interval", s.cfg.Interval,
		"purge_interval", s.cfg.PurgeInterval,
		"notification_ttl", s.cfg.NotificationTTL,
		"run_on_start", s.cfg.RunOnStart)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if s.cfg.RunOnStart {
			s.reconciler.ReconcileAll(gctx)
		}
		every(gctx, s.cfg.Interval, func() { s.reconciler.ReconcileAll(gctx) })
		return nil
	})
	g.Go(func() error {
		every(gctx, s.cfg.PurgeInterval, func() {
			if _, err := s.Purge(gctx); err != nil {
				slog.Error("notification purge failed", "err", err)
			}
		})
		return nil
	})
	g.Wait()

	slog.Info("scheduler stopped")
	return ctx.Err()
}

// Purge deletes notifications older than the retention period.
func (s *Scheduler) Purge(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.NotificationTTL)
	n, err := s.purger.PurgeNotificationsBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	slog.Info("expired notifications purged", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	return n, nil
}

func every(ctx context.Context, d time.Duration, fn func()) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
