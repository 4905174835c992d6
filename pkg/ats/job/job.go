package job

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// ============================================================================
// Job Entity
// ============================================================================

// Status is the lifecycle state of a job. Open and Frozen are live states,
// Closed and Canceled are terminal.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusClosed   Status = "CLOSED"
	StatusFrozen   Status = "FROZEN"
	StatusCanceled Status = "CANCELED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusFrozen, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether the job clock stopped at ClosedAt.
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusCanceled
}

// OpeningReason explains why a position was opened
type OpeningReason string

const (
	OpeningExpansion   OpeningReason = "EXPANSION"
	OpeningReplacement OpeningReason = "REPLACEMENT"
)

type OpeningDetails struct {
	Reason            OpeningReason `json:"reason"`
	ReplacedEmployee  *string       `json:"replaced_employee,omitempty"`
	ReplacementReason *string       `json:"replacement_reason,omitempty"`
}

func (o OpeningDetails) Validate() error {
	switch o.Reason {
	case OpeningExpansion:
		return nil
	case OpeningReplacement:
		if o.ReplacedEmployee == nil || strings.TrimSpace(*o.ReplacedEmployee) == "" {
			return ErrInvalidOpening().WithDetail("replaced_employee", "required for replacement openings")
		}
		return nil
	default:
		return ErrInvalidOpening().WithDetail("reason", o.Reason)
	}
}

// FreezeInterval is a period during which the job clock is paused.
// A nil EndDate means the job is still frozen.
type FreezeInterval struct {
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Reason    string     `json:"reason"`
	Requester string     `json:"requester"`
}

func (fi FreezeInterval) IsOpen() bool { return fi.EndDate == nil }

type Job struct {
	ID             kernel.JobID     `json:"id"`
	Title          string           `json:"title"`
	Sector         string           `json:"sector"`
	Unit           string           `json:"unit"`
	Status         Status           `json:"status"`
	OpenedAt       time.Time        `json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	CancelReason   *string          `json:"cancel_reason,omitempty"`
	FreezeHistory  []FreezeInterval `json:"freeze_history"`
	IsConfidential bool             `json:"is_confidential"`
	AllowedUserIDs []kernel.UserID  `json:"allowed_user_ids"`
	CreatedBy      kernel.UserID    `json:"created_by"`
	OpeningDetails OpeningDetails   `json:"opening_details"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ============================================================================
// Visibility
// ============================================================================

// VisibleTo is the confidentiality ACL: a job is visible when it is not
// confidential, the viewer is Master, the viewer created it, or the viewer is
// allow-listed.
func (j *Job) VisibleTo(v kernel.Viewer) bool {
	if !j.IsConfidential || v.Role.IsMaster() {
		return true
	}
	if v.ID.IsEmpty() {
		return false
	}
	return j.CreatedBy == v.ID || slices.Contains(j.AllowedUserIDs, v.ID)
}

// FilterVisible keeps the jobs v may see, preserving order.
func FilterVisible(jobs []Job, v kernel.Viewer) []Job {
	out := make([]Job, 0, len(jobs))
	for i := range jobs {
		if jobs[i].VisibleTo(v) {
			out = append(out, jobs[i])
		}
	}
	return out
}

// ============================================================================
// Lifecycle
// ============================================================================

// OpenFreeze returns the index of the current open freeze interval, or -1.
func (j *Job) OpenFreeze() int {
	for i := len(j.FreezeHistory) - 1; i >= 0; i-- {
		if j.FreezeHistory[i].IsOpen() {
			return i
		}
	}
	return -1
}

// LastFreezeStart returns the start of the most recent freeze interval.
func (j *Job) LastFreezeStart() *time.Time {
	if len(j.FreezeHistory) == 0 {
		return nil
	}
	start := j.FreezeHistory[len(j.FreezeHistory)-1].StartDate
	return &start
}

// Freeze pauses an open job by appending an open interval.
func (j *Job) Freeze(reason, requester string, at time.Time) error {
	if j.Status != StatusOpen {
		return ErrInvalidTransition().
			WithDetail("from", j.Status).
			WithDetail("to", StatusFrozen)
	}
	if j.OpenFreeze() >= 0 {
		return ErrAlreadyFrozen().WithDetail("job_id", j.ID.String())
	}
	if at.Before(j.OpenedAt) {
		return ErrInvalidTransition().WithDetail("error", "freeze date precedes opening date")
	}
	if n := len(j.FreezeHistory); n > 0 && at.Before(*j.FreezeHistory[n-1].EndDate) {
		return ErrInvalidTransition().WithDetail("error", "freeze overlaps the previous interval")
	}

	j.FreezeHistory = append(j.FreezeHistory, FreezeInterval{
		StartDate: at,
		Reason:    reason,
		Requester: requester,
	})
	j.Status = StatusFrozen
	j.UpdatedAt = time.Now()
	return nil
}

// Unfreeze resumes a frozen job, closing its open interval at at.
func (j *Job) Unfreeze(at time.Time) error {
	if j.Status != StatusFrozen {
		return ErrNotFrozen().WithDetail("status", j.Status)
	}
	idx := j.OpenFreeze()
	if idx < 0 {
		return ErrNotFrozen().WithDetail("error", "no open freeze interval")
	}
	if at.Before(j.FreezeHistory[idx].StartDate) {
		return ErrInvalidTransition().WithDetail("error", "unfreeze before freeze start")
	}

	end := at
	j.FreezeHistory[idx].EndDate = &end
	j.Status = StatusOpen
	j.UpdatedAt = time.Now()
	return nil
}

// Close terminates the job with a hire.
func (j *Job) Close(at time.Time) error {
	return j.terminate(StatusClosed, at)
}

// Cancel terminates the job without a hire; reason is mandatory.
func (j *Job) Cancel(reason string, at time.Time) error {
	if strings.TrimSpace(reason) == "" {
		return ErrCancelReasonRequired()
	}
	if err := j.terminate(StatusCanceled, at); err != nil {
		return err
	}
	j.CancelReason = &reason
	return nil
}

func (j *Job) terminate(to Status, at time.Time) error {
	if j.Status.IsTerminal() {
		return ErrInvalidTransition().
			WithDetail("from", j.Status).
			WithDetail("to", to)
	}
	if at.Before(j.OpenedAt) {
		return ErrInvalidTransition().WithDetail("error", "closing date precedes opening date")
	}
	// a frozen job stops being frozen when it terminates
	if idx := j.OpenFreeze(); idx >= 0 {
		end := at
		if end.Before(j.FreezeHistory[idx].StartDate) {
			end = j.FreezeHistory[idx].StartDate
		}
		j.FreezeHistory[idx].EndDate = &end
	}

	closed := at
	j.Status = to
	j.ClosedAt = &closed
	j.UpdatedAt = time.Now()
	return nil
}

// ============================================================================
// Filters & DTOs
// ============================================================================

// Filter narrows job listings; empty fields match everything.
type Filter struct {
	Unit   string `query:"unit"`
	Sector string `query:"sector"`
	Status Status `query:"status"`
}

func (f Filter) Matches(j *Job) bool {
	if f.Unit != "" && j.Unit != f.Unit {
		return false
	}
	if f.Sector != "" && j.Sector != f.Sector {
		return false
	}
	if f.Status != "" && j.Status != f.Status {
		return false
	}
	return true
}

type CreateJobRequest struct {
	Title          string          `json:"title"`
	Sector         string          `json:"sector"`
	Unit           string          `json:"unit"`
	OpenedAt       *time.Time      `json:"opened_at,omitempty"`
	IsConfidential bool            `json:"is_confidential"`
	AllowedUserIDs []kernel.UserID `json:"allowed_user_ids,omitempty"`
	OpeningDetails OpeningDetails  `json:"opening_details"`
}

func (r CreateJobRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrInvalidJob().WithDetail("title", "required")
	}
	if strings.TrimSpace(r.Sector) == "" {
		return ErrInvalidJob().WithDetail("sector", "required")
	}
	return r.OpeningDetails.Validate()
}

type UpdateJobRequest struct {
	Title          *string          `json:"title,omitempty"`
	Sector         *string          `json:"sector,omitempty"`
	Unit           *string          `json:"unit,omitempty"`
	IsConfidential *bool            `json:"is_confidential,omitempty"`
	AllowedUserIDs *[]kernel.UserID `json:"allowed_user_ids,omitempty"`
	OpeningDetails *OpeningDetails  `json:"opening_details,omitempty"`
}

type FreezeRequest struct {
	Reason string     `json:"reason"`
	At     *time.Time `json:"at,omitempty"`
}

type TransitionRequest struct {
	Reason string     `json:"reason,omitempty"`
	At     *time.Time `json:"at,omitempty"`
}

type JobListResponse struct {
	Jobs  []Job `json:"jobs"`
	Total int   `json:"total"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("JOB")

var (
	CodeJobNotFound          = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Job not found")
	CodeInvalidJob           = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Invalid job data")
	CodeInvalidOpening       = ErrRegistry.Register("INVALID_OPENING", errx.TypeValidation, http.StatusBadRequest, "Invalid opening details")
	CodeInvalidTransition    = ErrRegistry.Register("INVALID_TRANSITION", errx.TypeBusiness, http.StatusConflict, "Job status transition not allowed")
	CodeAlreadyFrozen        = ErrRegistry.Register("ALREADY_FROZEN", errx.TypeBusiness, http.StatusConflict, "Job already has an open freeze interval")
	CodeNotFrozen            = ErrRegistry.Register("NOT_FROZEN", errx.TypeBusiness, http.StatusConflict, "Job is not frozen")
	CodeCancelReasonRequired = ErrRegistry.Register("CANCEL_REASON_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "A cancel reason is required")
	CodeInvalidStatus        = ErrRegistry.Register("INVALID_STATUS", errx.TypeValidation, http.StatusBadRequest, "Unknown job status")
)

func ErrJobNotFound() *errx.Error          { return ErrRegistry.New(CodeJobNotFound) }
func ErrInvalidJob() *errx.Error           { return ErrRegistry.New(CodeInvalidJob) }
func ErrInvalidOpening() *errx.Error       { return ErrRegistry.New(CodeInvalidOpening) }
func ErrInvalidTransition() *errx.Error    { return ErrRegistry.New(CodeInvalidTransition) }
func ErrAlreadyFrozen() *errx.Error        { return ErrRegistry.New(CodeAlreadyFrozen) }
func ErrNotFrozen() *errx.Error            { return ErrRegistry.New(CodeNotFrozen) }
func ErrCancelReasonRequired() *errx.Error { return ErrRegistry.New(CodeCancelReasonRequired) }
func ErrInvalidStatus() *errx.Error        { return ErrRegistry.New(CodeInvalidStatus) }
