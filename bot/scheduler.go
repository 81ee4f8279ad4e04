package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"showcase-bot/logging"
)

// Job is a periodic task.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler runs jobs on cron specs. A job still running when its next tick
// arrives is skipped rather than overlapped.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(jobs ...Job) (*Scheduler, error) {
	logger := cronLogger{logger: logging.FromContext(context.Background()).With("component", "scheduler")}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, ctx: ctx, cancel: cancel}

	for _, job := range jobs {
		if _, err := c.AddFunc(job.Spec, s.wrap(job)); err != nil {
			cancel()
			return nil, fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) wrap(job Job) func() {
	return func() {
		ctx, span := logging.StartSpan(s.ctx, job.Name)
		defer span.End()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			logging.FromContext(ctx).Error("scheduled job failed", "job", job.Name, "error", err)
			return
		}
		logging.FromContext(ctx).Debug("scheduled job finished", "job", job.Name, "duration", time.Since(start))
	}
}

// Start runs the cron loop in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
