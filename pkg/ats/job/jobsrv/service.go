package jobsrv

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/ats/sla"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

// JobService proporciona operaciones de negocio para vacantes. Toda lectura
// pasa por el ACL del repositorio: una vacante oculta es NOT_FOUND.
type JobService struct {
	repo        job.Repository
	invalidator SnapshotInvalidator
	now         func() time.Time
}

// SnapshotInvalidator is notified after every job write, since any of them
// can change which jobs a viewer sees.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context) error
}

// NewJobService construye el servicio. invalidator puede ser nil.
func NewJobService(repo job.Repository, invalidator SnapshotInvalidator) *JobService {
	return &JobService{repo: repo, invalidator: invalidator, now: time.Now}
}

// SLAResponse is the SLA of one job at one instant
type SLAResponse struct {
	JobID       kernel.JobID `json:"job_id"`
	Status      job.Status   `json:"status"`
	EvaluatedAt time.Time    `json:"evaluated_at"`
	sla.Result
}

// CreateJob abre una nueva vacante a nombre del viewer
func (s *JobService) CreateJob(ctx context.Context, viewer kernel.Viewer, req job.CreateJobRequest) (*job.Job, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Sector = strings.TrimSpace(req.Sector)
	req.Unit = strings.TrimSpace(req.Unit)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	openedAt := now
	if req.OpenedAt != nil {
		openedAt = *req.OpenedAt
	}

	allowed := req.AllowedUserIDs
	if allowed == nil {
		allowed = []kernel.UserID{}
	}

	j := &job.Job{
		ID:             kernel.NewJobID(uuid.NewString()),
		Title:          req.Title,
		Sector:         req.Sector,
		Unit:           req.Unit,
		Status:         job.StatusOpen,
		OpenedAt:       openedAt,
		FreezeHistory:  []job.FreezeInterval{},
		IsConfidential: req.IsConfidential,
		AllowedUserIDs: allowed,
		CreatedBy:      viewer.ID,
		OpeningDetails: req.OpeningDetails,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Save(ctx, *j); err != nil {
		return nil, err
	}
	s.invalidate(ctx, j.ID)

	logx.WithFields(logx.Fields{
		"job_id":       j.ID,
		"created_by":   viewer.ID,
		"confidential": j.IsConfidential,
	}).Info("job opened")
	return j, nil
}

// GetJob devuelve la vacante si el viewer puede verla
func (s *JobService) GetJob(ctx context.Context, viewer kernel.Viewer, id kernel.JobID) (*job.Job, error) {
	return s.repo.FindVisibleByID(ctx, id, viewer)
}

// ListJobs lista las vacantes visibles que cumplen el filtro
func (s *JobService) ListJobs(ctx context.Context, viewer kernel.Viewer, filter job.Filter) (*job.JobListResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, job.ErrInvalidStatus().WithDetail("status", filter.Status)
	}

	jobs, err := s.repo.FindVisible(ctx, viewer, filter)
	if err != nil {
		return nil, err
	}

	return &job.JobListResponse{Jobs: jobs, Total: len(jobs)}, nil
}

// UpdateJob aplica los campos presentes en la petición
func (s *JobService) UpdateJob(ctx context.Context, viewer kernel.Viewer, id kernel.JobID, req job.UpdateJobRequest) (*job.Job, error) {
	return s.mutate(ctx, viewer, id, func(j *job.Job) error {
		if req.Title != nil {
			if strings.TrimSpace(*req.Title) == "" {
				return job.ErrInvalidJob().WithDetail("title", "required")
			}
			j.Title = strings.TrimSpace(*req.Title)
		}
		if req.Sector != nil {
			if strings.TrimSpace(*req.Sector) == "" {
				return job.ErrInvalidJob().WithDetail("sector", "required")
			}
			j.Sector = strings.TrimSpace(*req.Sector)
		}
		if req.Unit != nil {
			j.Unit = strings.TrimSpace(*req.Unit)
		}
		if req.IsConfidential != nil {
			j.IsConfidential = *req.IsConfidential
		}
		if req.AllowedUserIDs != nil {
			j.AllowedUserIDs = *req.AllowedUserIDs
		}
		if req.OpeningDetails != nil {
			if err := req.OpeningDetails.Validate(); err != nil {
				return err
			}
			j.OpeningDetails = *req.OpeningDetails
		}
		j.UpdatedAt = s.now()
		return nil
	})
}

// FreezeJob pausa el reloj de SLA de una vacante abierta
func (s *JobService) FreezeJob(ctx context.Context, viewer kernel.Viewer, id kernel.JobID, req job.FreezeRequest) (*job.Job, error) {
	at := s.at(req.At)
	return s.mutate(ctx, viewer, id, func(j *job.Job) error {
		return j.Freeze(strings.TrimSpace(req.Reason), viewer.ID.String(), at)
	})
}

func (s *JobService) UnfreezeJob(ctx context.Context, viewer kernel.Viewer, id kernel.JobID, req job.TransitionRequest) (*job.Job, error) {
	at := s.at(req.At)
	return s.mutate(ctx, viewer, id, func(j *job.Job) error {
		return j.Unfreeze(at)
	})
}

func (s *JobService) CloseJob(ctx context.Context, viewer kernel.Viewer, id kernel.JobID, req job.TransitionRequest) (*job.Job, error) {
	at := s.at(req.At)
	return s.mutate(ctx, viewer, id, func(j *job.Job) error {
		return j.Close(at)
	})
}

func (s *JobService) CancelJob(ctx context.Context, viewer kernel.Viewer, id kernel.JobID, req job.TransitionRequest) (*job.Job, error) {
	at := s.at(req.At)
	return s.mutate(ctx, viewer, id, func(j *job.Job) error {
		return j.Cancel(strings.TrimSpace(req.Reason), at)
	})
}

// DeleteJob elimina una vacante visible para el viewer
func (s *JobService) DeleteJob(ctx context.Context, viewer kernel.Viewer, id kernel.JobID) error {
	if _, err := s.repo.FindVisibleByID(ctx, id, viewer); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	logx.WithFields(logx.Fields{"job_id": id, "deleted_by": viewer.ID}).Info("job deleted")
	return nil
}

// GetSLA evalúa el SLA de la vacante en asOf, o ahora si es nil
func (s *JobService) GetSLA(ctx context.Context, viewer kernel.Viewer, id kernel.JobID, asOf *time.Time) (*SLAResponse, error) {
	j, err := s.repo.FindVisibleByID(ctx, id, viewer)
	if err != nil {
		return nil, err
	}

	at := s.at(asOf)
	res, err := sla.Compute(j, at)
	if err != nil {
		return nil, err
	}

	return &SLAResponse{
		JobID:       j.ID,
		Status:      j.Status,
		EvaluatedAt: sla.EvaluationEnd(j, at),
		Result:      res,
	}, nil
}

func (s *JobService) at(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return s.now()
}

func (s *JobService) mutate(ctx context.Context, viewer kernel.Viewer, id kernel.JobID, fn func(*job.Job) error) (*job.Job, error) {
	j, err := s.repo.FindVisibleByID(ctx, id, viewer)
	if err != nil {
		return nil, err
	}

	before := j.Status
	if err := fn(j); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, *j); err != nil {
		return nil, err
	}
	s.invalidate(ctx, j.ID)

	if before != j.Status {
		logx.WithFields(logx.Fields{
			"job_id": j.ID,
			"from":   before,
			"to":     j.Status,
			"by":     viewer.ID,
		}).Info("job status changed")
	}
	return j, nil
}

func (s *JobService) invalidate(ctx context.Context, id kernel.JobID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx); err != nil {
		logx.WithError(err).WithField("job_id", id).Error("failed to invalidate report snapshots")
	}
}
