package candidatesrv

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Abraxas-365/hireflow/pkg/ats/candidate"
	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

// CandidateService gestiona candidatos. El acceso a un candidato se hereda de
// su vacante: si la vacante no es visible, el candidato tampoco existe.
type CandidateService struct {
	repo        candidate.Repository
	jobs        job.Repository
	generalPool kernel.JobID
	now         func() time.Time
}

func NewCandidateService(repo candidate.Repository, jobs job.Repository, generalPool kernel.JobID) *CandidateService {
	return &CandidateService{repo: repo, jobs: jobs, generalPool: generalPool, now: time.Now}
}

func (s *CandidateService) CreateCandidate(ctx context.Context, viewer kernel.Viewer, req candidate.CreateCandidateRequest) (*candidate.Candidate, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkJob(ctx, viewer, req.JobID); err != nil {
		return nil, err
	}

	now := s.now()
	c := &candidate.Candidate{
		ID:             kernel.NewCandidateID(uuid.NewString()),
		JobID:          req.JobID,
		Name:           req.Name,
		Email:          req.Email,
		Status:         candidate.StatusAwaitingScreening,
		Origin:         req.Origin,
		FirstContactAt: req.FirstContactAt,
		CreatedAt:      now,
	}
	if req.FirstContactAt != nil {
		c.LastInteractionAt = req.FirstContactAt
	}

	// An explicit initial status follows the same rules as ChangeStatus.
	if req.Status != "" && req.Status != candidate.StatusAwaitingScreening {
		if err := c.ChangeStatus(req.Status, req.Reason, s.at(req.FirstContactAt)); err != nil {
			return nil, err
		}
	}
	c.UpdatedAt = now

	if err := s.repo.Save(ctx, *c); err != nil {
		return nil, err
	}

	logx.WithFields(logx.Fields{
		"candidate_id": c.ID,
		"job_id":       c.JobID,
		"origin":       c.Origin,
	}).Info("candidate registered")
	return c, nil
}

// GetCandidate devuelve el candidato si su vacante es visible para el viewer
func (s *CandidateService) GetCandidate(ctx context.Context, viewer kernel.Viewer, id kernel.CandidateID) (*candidate.Candidate, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkJob(ctx, viewer, c.JobID); err != nil {
		if errx.Is(err, job.CodeJobNotFound) {
			return nil, candidate.ErrCandidateNotFound().WithDetail("candidate_id", id.String())
		}
		return nil, err
	}
	return c, nil
}

func (s *CandidateService) ListByJob(ctx context.Context, viewer kernel.Viewer, jobID kernel.JobID) (*candidate.CandidateListResponse, error) {
	if err := s.checkJob(ctx, viewer, jobID); err != nil {
		return nil, err
	}
	list, err := s.repo.FindByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &candidate.CandidateListResponse{Candidates: list, Total: len(list)}, nil
}

// ChangeStatus mueve al candidato dentro del embudo
func (s *CandidateService) ChangeStatus(ctx context.Context, viewer kernel.Viewer, id kernel.CandidateID, req candidate.ChangeStatusRequest) (*candidate.Candidate, error) {
	at := s.at(req.At)
	return s.mutate(ctx, viewer, id, func(c *candidate.Candidate) error {
		return c.ChangeStatus(req.Status, req.Reason, at)
	})
}

func (s *CandidateService) ScheduleInterview(ctx context.Context, viewer kernel.Viewer, id kernel.CandidateID, req candidate.ScheduleRequest) (*candidate.Candidate, error) {
	if req.At.IsZero() {
		return nil, candidate.ErrInvalidCandidate().WithDetail("at", "required")
	}
	return s.mutate(ctx, viewer, id, func(c *candidate.Candidate) error {
		c.ScheduleInterview(req.At)
		return nil
	})
}

func (s *CandidateService) ScheduleTechTest(ctx context.Context, viewer kernel.Viewer, id kernel.CandidateID, req candidate.ScheduleRequest) (*candidate.Candidate, error) {
	if req.At.IsZero() {
		return nil, candidate.ErrInvalidCandidate().WithDetail("at", "required")
	}
	return s.mutate(ctx, viewer, id, func(c *candidate.Candidate) error {
		c.ScheduleTechTest(req.At)
		return nil
	})
}

func (s *CandidateService) DeleteCandidate(ctx context.Context, viewer kernel.Viewer, id kernel.CandidateID) error {
	if _, err := s.GetCandidate(ctx, viewer, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logx.WithFields(logx.Fields{"candidate_id": id, "deleted_by": viewer.ID}).Info("candidate deleted")
	return nil
}

// TalentPool lista los candidatos disponibles para futuras vacantes: los de
// origen TALENT_POOL en vacantes visibles y todos los del pool general.
func (s *CandidateService) TalentPool(ctx context.Context, viewer kernel.Viewer) (*candidate.CandidateListResponse, error) {
	visible, err := s.jobs.FindVisible(ctx, viewer, job.Filter{})
	if err != nil {
		return nil, err
	}
	allowed := make(map[kernel.JobID]struct{}, len(visible)+1)
	for _, j := range visible {
		allowed[j.ID] = struct{}{}
	}
	if !s.generalPool.IsEmpty() {
		allowed[s.generalPool] = struct{}{}
	}

	byOrigin, err := s.repo.FindByOrigin(ctx, candidate.OriginTalentPool)
	if err != nil {
		return nil, err
	}

	var general []candidate.Candidate
	if !s.generalPool.IsEmpty() {
		general, err = s.repo.FindByJob(ctx, s.generalPool)
		if err != nil {
			return nil, err
		}
	}

	seen := make(map[kernel.CandidateID]struct{})
	out := []candidate.Candidate{}
	for _, c := range append(byOrigin, general...) {
		if _, ok := allowed[c.JobID]; !ok {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })

	return &candidate.CandidateListResponse{Candidates: out, Total: len(out)}, nil
}

func (s *CandidateService) checkJob(ctx context.Context, viewer kernel.Viewer, jobID kernel.JobID) error {
	if !s.generalPool.IsEmpty() && jobID == s.generalPool {
		return nil
	}
	_, err := s.jobs.FindVisibleByID(ctx, jobID, viewer)
	return err
}

func (s *CandidateService) at(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return s.now()
}

func (s *CandidateService) mutate(ctx context.Context, viewer kernel.Viewer, id kernel.CandidateID, fn func(*candidate.Candidate) error) (*candidate.Candidate, error) {
	c, err := s.GetCandidate(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	before := c.Status
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, *c); err != nil {
		return nil, err
	}

	if before != c.Status {
		logx.WithFields(logx.Fields{
			"candidate_id": c.ID,
			"from":         before,
			"to":           c.Status,
			"by":           viewer.ID,
		}).Info("candidate status changed")
	}
	return c, nil
}
