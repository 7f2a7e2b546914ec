// Package memory holds the in-process job registry. Jobs are runtime state
// owned by the hosting process, so they live in memory rather than in the
// relational store; the registry is constructed once and injected, never a
// package-level singleton.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ivankhr/memogen/internal/core/domain"
)

type JobRegistry struct {
	mu   sync.Mutex
	jobs map[string]*domain.GenerationJob
}

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[string]*domain.GenerationJob)}
}

func (r *JobRegistry) Create(_ context.Context, job *domain.GenerationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already registered", job.ID)
	}
	stored := job.Snapshot()
	r.jobs[job.ID] = &stored
	return nil
}

func (r *JobRegistry) GetByID(_ context.Context, id string) (domain.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.GenerationJob{}, domain.WrapError(domain.ErrNotFound, "get job", fmt.Errorf("job %s", id))
	}
	return job.Snapshot(), nil
}

// Update runs apply on the stored record under the registry lock, making the
// mutation and the snapshot the caller publishes one atomic unit. When apply
// returns an error the record is left untouched.
func (r *JobRegistry) Update(_ context.Context, id string, apply func(*domain.GenerationJob) error) (domain.GenerationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.GenerationJob{}, domain.WrapError(domain.ErrNotFound, "update job", fmt.Errorf("job %s", id))
	}

	scratch := job.Snapshot()
	if err := apply(&scratch); err != nil {
		return domain.GenerationJob{}, err
	}
	r.jobs[id] = &scratch
	return scratch.Snapshot(), nil
}
