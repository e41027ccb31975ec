package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper runs Cache.Sweep on a cron schedule for long-running hosts.
type Sweeper struct {
	cache  *Cache
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper schedules sweeps of c. schedule is a standard cron expression or a
// descriptor such as "@hourly".
func NewSweeper(c *Cache, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{cache: c, cron: cron.New(), logger: logger}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	removed, err := s.cache.Sweep(ctx)
	if err != nil {
		s.logger.Warn("scheduled cache sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("scheduled cache sweep", "removed", removed)
	}
}
