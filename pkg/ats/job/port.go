package job

import (
	"context"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// Repository is the persistence contract for jobs. Every read that takes a
// viewer must apply the confidentiality ACL inside the query.
type Repository interface {
	FindByID(ctx context.Context, id kernel.JobID) (*Job, error)
	FindVisibleByID(ctx context.Context, id kernel.JobID, viewer kernel.Viewer) (*Job, error)
	FindVisible(ctx context.Context, viewer kernel.Viewer, filter Filter) ([]Job, error)
	Save(ctx context.Context, j Job) error
	Delete(ctx context.Context, id kernel.JobID) error
}
