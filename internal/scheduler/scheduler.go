// Package scheduler runs a job on a standard five-field cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule until stopped.
type Scheduler struct {
	spec   string
	job    Job
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// Validate parses spec as a standard cron expression.
func Validate(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// New returns a scheduler for spec. It does not start it.
func New(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		spec:   spec,
		job:    job,
		cron:   cron.New(),
		logger: logger.With("component", "scheduler"),
	}, nil
}

// Start schedules the job and starts the cron loop. The job receives ctx;
// cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("schedule job: %w", err)
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("scheduler started", "schedule", s.spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunNow executes the job once outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) {
	s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	start := time.Now()
	if err := s.job(ctx); err != nil {
		s.logger.Error("scheduled run failed", "error", err)
		return
	}
	s.logger.Debug("scheduled run completed", "duration", time.Since(start))
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("scheduler stopped")
}

// IsRunning reports whether the cron loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled time, or nil before Start.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
