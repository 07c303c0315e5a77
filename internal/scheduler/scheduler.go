// Package scheduler runs the pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/subscription-sentinel/internal/pipeline"
	"github.com/robfig/cron/v3"
)

// Scheduler triggers pipeline runs periodically.
type Scheduler struct {
	cron   *cron.Cron
	runner pipeline.Runner
	logger *slog.Logger
	spec   string
}

// New parses spec, a standard five-field cron expression or a descriptor such as
// "@every 1h" or "@daily", and returns a stopped scheduler.
func New(spec string, runner pipeline.Runner, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		runner: runner,
		logger: logger.With("component", "scheduler"),
		spec:   spec,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.logger.Info("Starting pipeline schedule", "schedule", s.spec)
	s.cron.Start()
}

// Stop halts the schedule and waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("Scheduled run still in progress at shutdown")
	}
}

func (s *Scheduler) runOnce() {
	result, err := s.runner.Run(context.Background())
	if err != nil {
		s.logger.Error("Scheduled pipeline run failed", "error", err)
		return
	}
	s.logger.Info("Scheduled pipeline run completed",
		"new_alerts", result.NewAlerts,
		"potential_savings", result.TotalPotentialSavings)
}
