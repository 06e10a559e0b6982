package expiry

import (
	"context"
	"log/slog"
	"time"
)

const DefaultInterval = time.Hour

// Scheduler runs the sweeper once at start and then on every tick.
type Scheduler struct {
	sweeper  *Sweeper
	interval time.Duration
}

func NewScheduler(sweeper *Sweeper, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Scheduler{sweeper: sweeper, interval: interval}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("starting expiry scheduler", "interval", s.interval, "threshold", s.sweeper.threshold)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			slog.Info("expiry scheduler stopped")
			return nil
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	if _, err := s.sweeper.CheckExpiredOrderTransfers(ctx); err != nil && ctx.Err() == nil {
		slog.Error("failed to sweep expired transfers", "error", err)
	}
}
