// Package scheduler triggers automation runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"custodian/internal/lifecycle/models"
)

// DefaultSchedule runs the automation hourly.
const DefaultSchedule = "@every 1h"

// ModeReader returns the current automation mode.
type ModeReader interface {
	Mode(ctx context.Context) models.Mode
}

// Runner executes one automation run.
type Runner interface {
	Run(ctx context.Context, mode models.Mode) (*models.RunResult, error)
}

// Scheduler fires a run at every tick of its schedule. Ticks that land while
// the mode is manual are skipped.
type Scheduler struct {
	modes      ModeReader
	runner     Runner
	schedule   cron.Schedule
	runTimeout time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Scheduler)

// WithSchedule replaces the parsed cron expression with a custom schedule.
func WithSchedule(schedule cron.Schedule) Option {
	return func(s *Scheduler) {
		if schedule != nil {
			s.schedule = schedule
		}
	}
}

// WithRunTimeout bounds each run when greater than zero.
func WithRunTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.runTimeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New parses a standard five-field cron expression or an @every / @hourly
// style descriptor. An empty expression selects DefaultSchedule.
func New(expr string, modes ModeReader, runner Runner, opts ...Option) (*Scheduler, error) {
	if modes == nil || runner == nil {
		return nil, fmt.Errorf("mode reader and runner are required")
	}
	if expr == "" {
		expr = DefaultSchedule
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", expr, err)
	}
	s := &Scheduler{
		modes:      modes,
		runner:     runner,
		schedule:   schedule,
		runTimeout: 10 * time.Minute,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Start blocks, running at each scheduled instant until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		now := s.now()
		next := s.schedule.Next(now)
		s.logger.DebugContext(ctx, "next automation run scheduled", "at", next, "in", next.Sub(now).Round(time.Second))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.ErrorContext(ctx, "scheduled automation run failed", "error", err)
		}
	}
}

// RunOnce reads the mode and, when automated, performs a run. It returns a
// nil result when the tick was skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.RunResult, error) {
	mode := s.modes.Mode(ctx)
	if !mode.IsAutomated() {
		s.logger.InfoContext(ctx, "automation mode is manual, skipping scheduled run")
		return nil, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()
	return s.runner.Run(runCtx, mode)
}
