// Package scheduler runs receipt generation on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// parser accepts standard five-field specs and descriptors such as @hourly
// or @every 30m.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// ValidateSchedule checks a cron expression.
func ValidateSchedule(spec string) error {
	if spec == "" {
		return fmt.Errorf("schedule is empty")
	}
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}

// NextRun returns the first activation of spec after now.
func NextRun(spec string, now time.Time) (time.Time, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return sched.Next(now), nil
}

// Scheduler runs a Job on a cron schedule. A run that is still going when
// the next activation arrives causes that activation to be skipped, so one
// process never generates the same receipts twice concurrently.
type Scheduler struct {
	spec string
	job  Job
	cron *cron.Cron
}

// New creates a scheduler for job.
func New(spec string, job Job) (*Scheduler, error) {
	if err := ValidateSchedule(spec); err != nil {
		return nil, err
	}
	logger := cronLogger{zap.S().Named("scheduler")}
	return &Scheduler{
		spec: spec,
		job:  job,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}, nil
}

// Run schedules the job and blocks until ctx is cancelled, then waits for
// an in-flight run to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		start := time.Now()
		zap.L().Info("scheduled run starting", zap.String("schedule", s.spec))
		if err := s.job(ctx); err != nil {
			zap.L().Error("scheduled run failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			return
		}
		zap.L().Info("scheduled run finished", zap.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	s.cron.Start()
	if next, err := NextRun(s.spec, time.Now()); err == nil {
		zap.L().Info("scheduler started", zap.String("schedule", s.spec), zap.Time("next_run", next))
	}

	<-ctx.Done()

	// Stop accepting new jobs and wait for running jobs to complete
	<-s.cron.Stop().Done()
	zap.L().Info("scheduler stopped")
	return nil
}

// cronLogger adapts zap to cron's logger interface.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
