package candidateinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Abraxas-365/hireflow/pkg/ats/candidate"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

const candidateColumns = `id, job_id, name, email, status, origin, first_contact_at, interview_at,
	tech_test_at, last_interaction_at, rejection_date, rejection_reason, created_at, updated_at`

// PostgresCandidateRepository implementación de PostgreSQL para candidate.Repository
type PostgresCandidateRepository struct {
	db *sqlx.DB
}

func NewPostgresCandidateRepository(db *sqlx.DB) candidate.Repository {
	return &PostgresCandidateRepository{db: db}
}

func (r *PostgresCandidateRepository) FindByID(ctx context.Context, id kernel.CandidateID) (*candidate.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`

	var c candidate.Candidate
	if err := r.db.GetContext(ctx, &c, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, candidate.ErrCandidateNotFound().WithDetail("candidate_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find candidate by id", errx.TypeInternal).
			WithDetail("candidate_id", id.String())
	}
	return &c, nil
}

func (r *PostgresCandidateRepository) FindByJob(ctx context.Context, jobID kernel.JobID) ([]candidate.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE job_id = $1 ORDER BY created_at ASC`

	out := []candidate.Candidate{}
	if err := r.db.SelectContext(ctx, &out, query, jobID.String()); err != nil {
		return nil, errx.Wrap(err, "failed to list candidates by job", errx.TypeInternal).
			WithDetail("job_id", jobID.String())
	}
	return out, nil
}

// FindByJobs carga los candidatos de un conjunto de vacantes en una sola consulta
func (r *PostgresCandidateRepository) FindByJobs(ctx context.Context, jobIDs []kernel.JobID) ([]candidate.Candidate, error) {
	out := []candidate.Candidate{}
	if len(jobIDs) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(jobIDs))
	for _, id := range jobIDs {
		ids = append(ids, id.String())
	}

	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE job_id = ANY($1) ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &out, query, pq.Array(ids)); err != nil {
		return nil, errx.Wrap(err, "failed to list candidates by jobs", errx.TypeInternal).
			WithDetail("jobs", len(ids))
	}
	return out, nil
}

func (r *PostgresCandidateRepository) FindByOrigin(ctx context.Context, origin candidate.Origin) ([]candidate.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE origin = $1 ORDER BY created_at DESC`

	out := []candidate.Candidate{}
	if err := r.db.SelectContext(ctx, &out, query, string(origin)); err != nil {
		return nil, errx.Wrap(err, "failed to list candidates by origin", errx.TypeInternal).
			WithDetail("origin", string(origin))
	}
	return out, nil
}

func (r *PostgresCandidateRepository) Save(ctx context.Context, c candidate.Candidate) error {
	query := `
		INSERT INTO candidates (` + candidateColumns + `)
		VALUES (
			:id, :job_id, :name, :email, :status, :origin, :first_contact_at, :interview_at,
			:tech_test_at, :last_interaction_at, :rejection_date, :rejection_reason, :created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			job_id = EXCLUDED.job_id,
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			status = EXCLUDED.status,
			origin = EXCLUDED.origin,
			first_contact_at = EXCLUDED.first_contact_at,
			interview_at = EXCLUDED.interview_at,
			tech_test_at = EXCLUDED.tech_test_at,
			last_interaction_at = EXCLUDED.last_interaction_at,
			rejection_date = EXCLUDED.rejection_date,
			rejection_reason = EXCLUDED.rejection_reason,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return errx.Wrap(err, "failed to save candidate", errx.TypeInternal).
			WithDetail("candidate_id", c.ID.String())
	}
	return nil
}

func (r *PostgresCandidateRepository) Delete(ctx context.Context, id kernel.CandidateID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete candidate", errx.TypeInternal).
			WithDetail("candidate_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return candidate.ErrCandidateNotFound().WithDetail("candidate_id", id.String())
	}
	return nil
}
