package jobinfra

import (
	"context"
	"sort"
	"sync"

	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// MemoryJobRepository is an in-process job.Repository with the same ACL
// semantics as the Postgres one. Stored jobs are copied on the way in and out.
type MemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[kernel.JobID]job.Job
}

func NewMemoryJobRepository(seed ...job.Job) *MemoryJobRepository {
	r := &MemoryJobRepository{jobs: make(map[kernel.JobID]job.Job, len(seed))}
	for _, j := range seed {
		r.jobs[j.ID] = clone(j)
	}
	return r
}

func (r *MemoryJobRepository) FindByID(_ context.Context, id kernel.JobID) (*job.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, job.ErrJobNotFound().WithDetail("job_id", id.String())
	}
	out := clone(j)
	return &out, nil
}

func (r *MemoryJobRepository) FindVisibleByID(ctx context.Context, id kernel.JobID, viewer kernel.Viewer) (*job.Job, error) {
	j, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !j.VisibleTo(viewer) {
		return nil, job.ErrJobNotFound().WithDetail("job_id", id.String())
	}
	return j, nil
}

func (r *MemoryJobRepository) FindVisible(_ context.Context, viewer kernel.Viewer, filter job.Filter) ([]job.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]job.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		if j.VisibleTo(viewer) && filter.Matches(&j) {
			out = append(out, clone(j))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].OpenedAt.Equal(out[b].OpenedAt) {
			return out[a].OpenedAt.After(out[b].OpenedAt)
		}
		return out[a].ID < out[b].ID
	})
	return out, nil
}

func (r *MemoryJobRepository) Save(_ context.Context, j job.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[j.ID] = clone(j)
	return nil
}

func (r *MemoryJobRepository) Delete(_ context.Context, id kernel.JobID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return job.ErrJobNotFound().WithDetail("job_id", id.String())
	}
	delete(r.jobs, id)
	return nil
}

func clone(j job.Job) job.Job {
	history := make([]job.FreezeInterval, len(j.FreezeHistory))
	copy(history, j.FreezeHistory)
	allowed := make([]kernel.UserID, len(j.AllowedUserIDs))
	copy(allowed, j.AllowedUserIDs)
	j.FreezeHistory = history
	j.AllowedUserIDs = allowed
	return j
}
