package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of background work. The context is cancelled when the
// scheduler stops or the job exceeds its timeout.
type Job func(ctx context.Context) error

// Scheduler runs jobs on standard five-field cron schedules. Overlapping runs of
// the same job are skipped and panics are recovered.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

func New(logger *slog.Logger, loc *time.Location, jobTimeout time.Duration) *Scheduler {
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		timeout: jobTimeout,
	}
}

// Add registers job under name on a standard five-field cron schedule.
func (s *Scheduler) Add(name, schedule string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(schedule, func() { s.run(name, job) })
	if err != nil {
		return 0, fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	return id, nil
}

func (s *Scheduler) run(name string, job Job) {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	err := job(ctx)
	attrs := []any{"job", name, "duration_ms", time.Since(start).Milliseconds()}
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled job failed", append(attrs, "error", err)...)
		return
	}
	s.logger.DebugContext(ctx, "scheduled job finished", attrs...)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
