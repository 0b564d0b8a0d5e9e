// Package scheduler runs the pipeline and enrichment jobs on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is a unit of scheduled work. The context is cancelled when the
// scheduler shuts down.
type Job func(ctx context.Context)

// Scheduler wraps a cron runner with per-job overlap protection: a job
// whose previous invocation is still running is skipped, not queued.
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger

	mu      sync.Mutex
	running map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler using standard 5-field cron expressions.
func New(logger zerolog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(),
		logger:  logger.With().Str("component", "scheduler").Logger(),
		running: make(map[string]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds a job under the given id and cron expression. Returns an
// error if the expression does not parse.
func (s *Scheduler) Register(id, spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.invoke(id, job)
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q for job %s: %w", spec, id, err)
	}

	s.logger.Info().Str("job", id).Str("cron", spec).Msg("job registered")
	return nil
}

func (s *Scheduler) invoke(id string, job Job) {
	if !s.tryAcquire(id) {
		s.logger.Warn().Str("job", id).Msg("previous run still in progress, skipping")
		return
	}
	defer s.release(id)

	start := time.Now()
	s.logger.Info().Str("job", id).Msg("job started")

	job(s.ctx)

	s.logger.Info().
		Str("job", id).
		Dur("duration", time.Since(start)).
		Msg("job finished")
}

func (s *Scheduler) tryAcquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[id] {
		return false
	}
	s.running[id] = true
	return true
}

func (s *Scheduler) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

// Start begins scheduling. Jobs run in their own goroutines.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop halts scheduling and waits for running jobs to finish, or until the
// context expires. Job contexts are cancelled so long jobs can bail out.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()

	select {
	case <-done.Done():
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler shutdown timed out: %w", ctx.Err())
	}
}
