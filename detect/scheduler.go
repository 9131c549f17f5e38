package detect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"workbench/util/goroutine"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs detections on a fixed cadence. The runner's write-boundary
// dedup makes overlapping scheduled and manual runs safe, so the scheduler
// takes no locks around Run itself beyond preventing its own re-entry.
type Scheduler struct {
	runner   *Runner
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	logger   *zap.SugaredLogger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a detection scheduler. schedule accepts cron specs
// including descriptors like "@every 5m".
func NewScheduler(runner *Runner, schedule string, timeout time.Duration, logger *zap.SugaredLogger) *Scheduler {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Scheduler{
		runner:   runner,
		cron:     cron.New(cron.WithLocation(time.UTC)),
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start registers the cron entry and starts the scheduler. An empty
// schedule disables scheduled runs.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("Detection scheduler disabled (no schedule configured)")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return fmt.Errorf("invalid detection schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Infow("Detection scheduler started", "schedule", s.schedule)
	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runOnce() {
	defer goroutine.Recover("detection-scheduler", s.logger)

	s.mu.Lock()
	if s.running {
		// The previous scheduled run is still going; skipping is safe
		// because the next run picks up the same pairs idempotently.
		s.mu.Unlock()
		s.logger.Warn("Skipping scheduled detection run: previous run still in progress")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Errorw("Scheduled detection run failed",
			"alerts_created", result.AlertsCreated, "error", err)
		return
	}
	s.logger.Debugw("Scheduled detection run finished", "alerts_created", result.AlertsCreated)
}
