package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers a Runner on a cron schedule. A trigger that fires while
// the previous run is still going is skipped.
type Scheduler struct {
	runner     *Runner
	schedule   string
	runOnStart bool
	logger     *slog.Logger
}

// New creates a scheduler. The schedule uses standard five-field cron syntax
// or a descriptor such as "@every 24h".
func New(runner *Runner, schedule string, runOnStart bool, logger *slog.Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse schedule %q: %w", schedule, err)
	}
	return &Scheduler{runner: runner, schedule: schedule, runOnStart: runOnStart, logger: logger}, nil
}

// Start runs the schedule until ctx is done, then waits for an in-flight run
// to finish. Runs use ctx, so cancelling it also aborts the current run.
func (s *Scheduler) Start(ctx context.Context) error {
	clog := cronLogger{s.logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	job := func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.runner.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled alert generation failed", "error", err)
		}
	}
	id, err := c.AddFunc(s.schedule, job)
	if err != nil {
		return fmt.Errorf("add schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.logger.Info("scheduler started", "schedule", s.schedule, "next_run", c.Entry(id).Next)

	var initial sync.WaitGroup
	if s.runOnStart {
		// Goes through the job wrapper so it counts as running for SkipIfStillRunning.
		wrapped := c.Entry(id).WrappedJob
		initial.Add(1)
		go func() {
			defer initial.Done()
			wrapped.Run()
		}()
	}

	<-ctx.Done()
	<-c.Stop().Done()
	initial.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron's logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
