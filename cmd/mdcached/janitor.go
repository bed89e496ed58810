package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// sweeper is implemented by stores whose expired entries must be purged
// from the outside. The memory store sweeps itself and redis expires keys
// natively, so today this matches only the sqlite store.
type sweeper interface {
	Sweep(ctx context.Context, maxAge time.Duration) (int64, error)
}

// startJanitor schedules periodic sweeps of expired entries. It returns a
// nil scheduler when the store does not need sweeping.
func startJanitor(ctx context.Context, store any, interval, maxAge time.Duration, logger *slog.Logger) (gocron.Scheduler, error) {
	sw, ok := store.(sweeper)
	if !ok {
		return nil, nil
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating sweep scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			removed, err := sw.Sweep(ctx, maxAge)
			if err != nil {
				logger.Error("sweep failed", "error", err)
				return
			}
			if removed > 0 {
				logger.Info("swept expired entries", "removed", removed)
			}
		}),
		gocron.WithName("store-sweep"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("scheduling sweep job: %w", err)
	}

	s.Start()
	logger.Debug("janitor started", "interval", interval, "max_age", maxAge)
	return s, nil
}
