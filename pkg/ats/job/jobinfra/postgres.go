package jobinfra

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

const jobColumns = `id, title, sector, unit, status, opened_at, closed_at, cancel_reason,
	freeze_history, is_confidential, allowed_user_ids, created_by, opening_details,
	created_at, updated_at`

// visibleClause is the confidentiality ACL expressed in SQL; $1 is the viewer
// role and $2 the viewer id. An empty viewer id never matches a creator or allow-list.
const visibleClause = `(NOT is_confidential OR $1 = 'MASTER' OR ($2 <> '' AND (created_by = $2 OR $2 = ANY(allowed_user_ids))))`

// PostgresJobRepository implementación de PostgreSQL para job.Repository
type PostgresJobRepository struct {
	db *sqlx.DB
}

func NewPostgresJobRepository(db *sqlx.DB) job.Repository {
	return &PostgresJobRepository{db: db}
}

// ============================================================================
// Row mapping
// ============================================================================

// freezeHistory is stored as a JSONB array
type freezeHistory []job.FreezeInterval

func (f freezeHistory) Value() (driver.Value, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

func (f *freezeHistory) Scan(value any) error {
	return scanJSON(value, f)
}

// openingDetails is stored as a JSONB object
type openingDetails job.OpeningDetails

func (o openingDetails) Value() (driver.Value, error) {
	return json.Marshal(o)
}

func (o *openingDetails) Scan(value any) error {
	return scanJSON(value, o)
}

func scanJSON(value any, dst any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB type %T", value)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

type jobRow struct {
	ID             string         `db:"id"`
	Title          string         `db:"title"`
	Sector         string         `db:"sector"`
	Unit           string         `db:"unit"`
	Status         string         `db:"status"`
	OpenedAt       time.Time      `db:"opened_at"`
	ClosedAt       *time.Time     `db:"closed_at"`
	CancelReason   *string        `db:"cancel_reason"`
	FreezeHistory  freezeHistory  `db:"freeze_history"`
	IsConfidential bool           `db:"is_confidential"`
	AllowedUserIDs pq.StringArray `db:"allowed_user_ids"`
	CreatedBy      string         `db:"created_by"`
	OpeningDetails openingDetails `db:"opening_details"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func toRow(j job.Job) jobRow {
	allowed := make(pq.StringArray, 0, len(j.AllowedUserIDs))
	for _, id := range j.AllowedUserIDs {
		allowed = append(allowed, id.String())
	}
	return jobRow{
		ID:             j.ID.String(),
		Title:          j.Title,
		Sector:         j.Sector,
		Unit:           j.Unit,
		Status:         string(j.Status),
		OpenedAt:       j.OpenedAt,
		ClosedAt:       j.ClosedAt,
		CancelReason:   j.CancelReason,
		FreezeHistory:  freezeHistory(j.FreezeHistory),
		IsConfidential: j.IsConfidential,
		AllowedUserIDs: allowed,
		CreatedBy:      j.CreatedBy.String(),
		OpeningDetails: openingDetails(j.OpeningDetails),
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
}

func (r jobRow) toJob() job.Job {
	allowed := make([]kernel.UserID, 0, len(r.AllowedUserIDs))
	for _, id := range r.AllowedUserIDs {
		allowed = append(allowed, kernel.UserID(id))
	}
	history := []job.FreezeInterval(r.FreezeHistory)
	if history == nil {
		history = []job.FreezeInterval{}
	}
	return job.Job{
		ID:             kernel.JobID(r.ID),
		Title:          r.Title,
		Sector:         r.Sector,
		Unit:           r.Unit,
		Status:         job.Status(r.Status),
		OpenedAt:       r.OpenedAt,
		ClosedAt:       r.ClosedAt,
		CancelReason:   r.CancelReason,
		FreezeHistory:  history,
		IsConfidential: r.IsConfidential,
		AllowedUserIDs: allowed,
		CreatedBy:      kernel.UserID(r.CreatedBy),
		OpeningDetails: job.OpeningDetails(r.OpeningDetails),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// ============================================================================
// Queries
// ============================================================================

// FindByID busca una vacante sin aplicar el ACL; sólo para uso interno
func (r *PostgresJobRepository) FindByID(ctx context.Context, id kernel.JobID) (*job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	var row jobRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, job.ErrJobNotFound().WithDetail("job_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find job by id", errx.TypeInternal).
			WithDetail("job_id", id.String())
	}

	j := row.toJob()
	return &j, nil
}

// FindVisibleByID devuelve NOT_FOUND tanto si la vacante no existe como si el
// viewer no puede verla
func (r *PostgresJobRepository) FindVisibleByID(ctx context.Context, id kernel.JobID, viewer kernel.Viewer) (*job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE ` + visibleClause + ` AND id = $3`

	var row jobRow
	err := r.db.GetContext(ctx, &row, query, string(viewer.Role), viewer.ID.String(), id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, job.ErrJobNotFound().WithDetail("job_id", id.String())
		}
		return nil, errx.Wrap(err, "failed to find visible job", errx.TypeInternal).
			WithDetail("job_id", id.String())
	}

	j := row.toJob()
	return &j, nil
}

// FindVisible lista las vacantes visibles para el viewer
func (r *PostgresJobRepository) FindVisible(ctx context.Context, viewer kernel.Viewer, filter job.Filter) ([]job.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
		WHERE ` + visibleClause + `
			AND ($3 = '' OR unit = $3)
			AND ($4 = '' OR sector = $4)
			AND ($5 = '' OR status = $5)
		ORDER BY opened_at DESC, id ASC`

	rows := []jobRow{}
	err := r.db.SelectContext(ctx, &rows, query,
		string(viewer.Role), viewer.ID.String(), filter.Unit, filter.Sector, string(filter.Status))
	if err != nil {
		return nil, errx.Wrap(err, "failed to list visible jobs", errx.TypeInternal).
			WithDetail("viewer_id", viewer.ID.String())
	}

	jobs := make([]job.Job, 0, len(rows))
	for i := range rows {
		jobs = append(jobs, rows[i].toJob())
	}
	return jobs, nil
}

// Save inserta o actualiza una vacante
func (r *PostgresJobRepository) Save(ctx context.Context, j job.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES (
			:id, :title, :sector, :unit, :status, :opened_at, :closed_at, :cancel_reason,
			:freeze_history, :is_confidential, :allowed_user_ids, :created_by, :opening_details,
			:created_at, :updated_at
		)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			sector = EXCLUDED.sector,
			unit = EXCLUDED.unit,
			status = EXCLUDED.status,
			opened_at = EXCLUDED.opened_at,
			closed_at = EXCLUDED.closed_at,
			cancel_reason = EXCLUDED.cancel_reason,
			freeze_history = EXCLUDED.freeze_history,
			is_confidential = EXCLUDED.is_confidential,
			allowed_user_ids = EXCLUDED.allowed_user_ids,
			opening_details = EXCLUDED.opening_details,
			updated_at = EXCLUDED.updated_at`

	if _, err := r.db.NamedExecContext(ctx, query, toRow(j)); err != nil {
		return errx.Wrap(err, "failed to save job", errx.TypeInternal).
			WithDetail("job_id", j.ID.String())
	}
	return nil
}

// Delete elimina una vacante
func (r *PostgresJobRepository) Delete(ctx context.Context, id kernel.JobID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id.String())
	if err != nil {
		return errx.Wrap(err, "failed to delete job", errx.TypeInternal).
			WithDetail("job_id", id.String())
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if rowsAffected == 0 {
		return job.ErrJobNotFound().WithDetail("job_id", id.String())
	}
	return nil
}
