package scheduler

import (
	"context"
	"fmt"
	"time"

	applogger "PriceBoard/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is a periodic task.
type Job interface {
	Run(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

func (f JobFunc) Run(ctx context.Context) error { return f(ctx) }

// Scheduler runs jobs on cron specs with a seconds field.
type Scheduler struct {
	cron    *cron.Cron
	log     *applogger.Logger
	timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Scheduler. Each run gets its own context bounded by timeout.
func New(log *applogger.Logger, timeout time.Duration) *Scheduler {
	if log == nil {
		log = applogger.Nop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:     log,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds job under name on spec.
func (s *Scheduler) Register(name, spec string, job Job) error {
	if _, err := s.cron.AddFunc(spec, func() { s.runJob(name, job) }); err != nil {
		return fmt.Errorf("register %s task: %w", name, err)
	}
	s.log.Info("scheduled task", applogger.String("task", name), applogger.String("spec", spec))
	return nil
}

// RunNow executes job once on the caller's goroutine.
func (s *Scheduler) RunNow(name string, job Job) {
	s.runJob(name, job)
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int { return len(s.cron.Entries()) }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops scheduling, cancels running jobs and waits for them or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runJob(name string, job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	s.log.Debug("running task", applogger.String("task", name))
	if err := job.Run(ctx); err != nil {
		s.log.Error("task failed",
			applogger.String("task", name),
			applogger.Duration("took", time.Since(start)),
			applogger.Error(err),
		)
		return
	}
	s.log.Debug("task done", applogger.String("task", name), applogger.Duration("took", time.Since(start)))
}
