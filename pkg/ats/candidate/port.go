package candidate

import (
	"context"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// Repository is the persistence contract for candidates. It knows nothing about
// job confidentiality; callers scope reads to jobs they already resolved.
type Repository interface {
	FindByID(ctx context.Context, id kernel.CandidateID) (*Candidate, error)
	FindByJob(ctx context.Context, jobID kernel.JobID) ([]Candidate, error)
	FindByJobs(ctx context.Context, jobIDs []kernel.JobID) ([]Candidate, error)
	FindByOrigin(ctx context.Context, origin Origin) ([]Candidate, error)
	Save(ctx context.Context, c Candidate) error
	Delete(ctx context.Context, id kernel.CandidateID) error
}
