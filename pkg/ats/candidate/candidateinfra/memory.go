package candidateinfra

import (
	"context"
	"sort"
	"sync"

	"github.com/Abraxas-365/hireflow/pkg/ats/candidate"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// MemoryCandidateRepository is an in-process candidate.Repository
type MemoryCandidateRepository struct {
	mu         sync.RWMutex
	candidates map[kernel.CandidateID]candidate.Candidate
}

func NewMemoryCandidateRepository(seed ...candidate.Candidate) *MemoryCandidateRepository {
	r := &MemoryCandidateRepository{candidates: make(map[kernel.CandidateID]candidate.Candidate, len(seed))}
	for _, c := range seed {
		r.candidates[c.ID] = c
	}
	return r
}

func (r *MemoryCandidateRepository) FindByID(_ context.Context, id kernel.CandidateID) (*candidate.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.candidates[id]
	if !ok {
		return nil, candidate.ErrCandidateNotFound().WithDetail("candidate_id", id.String())
	}
	return &c, nil
}

func (r *MemoryCandidateRepository) FindByJob(ctx context.Context, jobID kernel.JobID) ([]candidate.Candidate, error) {
	return r.FindByJobs(ctx, []kernel.JobID{jobID})
}

func (r *MemoryCandidateRepository) FindByJobs(_ context.Context, jobIDs []kernel.JobID) ([]candidate.Candidate, error) {
	wanted := make(map[kernel.JobID]struct{}, len(jobIDs))
	for _, id := range jobIDs {
		wanted[id] = struct{}{}
	}
	return r.where(func(c *candidate.Candidate) bool {
		_, ok := wanted[c.JobID]
		return ok
	}), nil
}

func (r *MemoryCandidateRepository) FindByOrigin(_ context.Context, origin candidate.Origin) ([]candidate.Candidate, error) {
	return r.where(func(c *candidate.Candidate) bool { return c.Origin == origin }), nil
}

func (r *MemoryCandidateRepository) Save(_ context.Context, c candidate.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates[c.ID] = c
	return nil
}

func (r *MemoryCandidateRepository) Delete(_ context.Context, id kernel.CandidateID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.candidates[id]; !ok {
		return candidate.ErrCandidateNotFound().WithDetail("candidate_id", id.String())
	}
	delete(r.candidates, id)
	return nil
}

func (r *MemoryCandidateRepository) where(keep func(*candidate.Candidate) bool) []candidate.Candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []candidate.Candidate{}
	for _, c := range r.candidates {
		if keep(&c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}
