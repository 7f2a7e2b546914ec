// Package inprocess runs job execution on a goroutine inside the hosting
// process, for single-binary deployments without a message queue.
package inprocess

import (
	"context"
	"log/slog"

	"github.com/ivankhr/memogen/internal/core/domain"
)

// Runner drives one job to a terminal state.
type Runner func(ctx context.Context, jobID string) error

type Scheduler struct {
	run    Runner
	base   context.Context
	logger *slog.Logger
}

// New builds a scheduler whose spawned executions derive from base rather
// than from the request context, so a finished HTTP request does not cancel
// a running job.
func New(base context.Context, run Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{run: run, base: base, logger: logger}
}

func (s *Scheduler) Schedule(_ context.Context, job domain.GenerationJob) error {
	go func() {
		if err := s.run(s.base, job.ID); err != nil {
			s.logger.Warn("job execution finished with error", "job_id", job.ID, "error", err)
		}
	}()
	return nil
}
