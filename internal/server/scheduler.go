package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// rebuildScheduler triggers a rebuild on a fixed interval.
type rebuildScheduler struct {
	scheduler gocron.Scheduler
}

func newRebuildScheduler(ctx context.Context, interval time.Duration, trigger func()) (*rebuildScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				return
			}
			trigger()
		}),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("schedule rebuild: %w", err)
	}
	s.Start()
	slog.Info("Periodic rebuild scheduled", slog.Duration("interval", interval))
	return &rebuildScheduler{scheduler: s}, nil
}

func (r *rebuildScheduler) Stop() {
	if r == nil {
		return
	}
	if err := r.scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown", "error", err)
	}
}
