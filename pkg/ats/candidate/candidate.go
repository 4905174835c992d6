package candidate

import (
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// ============================================================================
// Candidate Entity
// ============================================================================

type Status string

const (
	StatusAwaitingScreening Status = "AWAITING_SCREENING"
	StatusInAnalysis        Status = "IN_ANALYSIS"
	StatusInTest            Status = "IN_TEST"
	StatusInterview         Status = "INTERVIEW"
	StatusApproved          Status = "APPROVED"
	StatusRejected          Status = "REJECTED"
	StatusWithdrawn         Status = "WITHDRAWN"
	StatusHired             Status = "HIRED"
	StatusProposalAccepted  Status = "PROPOSAL_ACCEPTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAwaitingScreening, StatusInAnalysis, StatusInTest, StatusInterview,
		StatusApproved, StatusRejected, StatusWithdrawn, StatusHired, StatusProposalAccepted:
		return true
	}
	return false
}

// RequiresReason reports whether entering s needs a rejection reason.
func (s Status) RequiresReason() bool {
	return s == StatusRejected || s == StatusWithdrawn
}

// Origin is the sourcing channel of a candidate
type Origin string

const (
	OriginLinkedIn   Origin = "LINKEDIN"
	OriginReferral   Origin = "REFERRAL"
	OriginInternal   Origin = "INTERNAL"
	OriginTalentPool Origin = "TALENT_POOL"
	OriginJobBoard   Origin = "JOB_BOARD"
	OriginWebsite    Origin = "WEBSITE"
	OriginOther      Origin = "OTHER"
)

func (o Origin) Valid() bool {
	switch o {
	case OriginLinkedIn, OriginReferral, OriginInternal, OriginTalentPool,
		OriginJobBoard, OriginWebsite, OriginOther:
		return true
	}
	return false
}

type Candidate struct {
	ID                kernel.CandidateID `db:"id" json:"id"`
	JobID             kernel.JobID       `db:"job_id" json:"job_id"`
	Name              string             `db:"name" json:"name"`
	Email             string             `db:"email" json:"email"`
	Status            Status             `db:"status" json:"status"`
	Origin            Origin             `db:"origin" json:"origin"`
	FirstContactAt    *time.Time         `db:"first_contact_at" json:"first_contact_at,omitempty"`
	InterviewAt       *time.Time         `db:"interview_at" json:"interview_at,omitempty"`
	TechTestAt        *time.Time         `db:"tech_test_at" json:"tech_test_at,omitempty"`
	LastInteractionAt *time.Time         `db:"last_interaction_at" json:"last_interaction_at,omitempty"`
	RejectionDate     *time.Time         `db:"rejection_date" json:"rejection_date,omitempty"`
	RejectionReason   *string            `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt         time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updated_at"`
}

// ============================================================================
// Domain Methods
// ============================================================================

// ChangeStatus moves the candidate to status. Any status can follow any other;
// only the reason rule for rejections and withdrawals is enforced.
func (c *Candidate) ChangeStatus(status Status, reason string, at time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus().WithDetail("status", status)
	}

	reason = strings.TrimSpace(reason)
	if status.RequiresReason() {
		if reason == "" {
			return ErrReasonRequired().WithDetail("status", status)
		}
		stamp := at
		c.RejectionDate = &stamp
		c.RejectionReason = &reason
	} else if reason != "" {
		c.RejectionReason = &reason
	}

	c.Status = status
	c.touch(at)
	return nil
}

func (c *Candidate) ScheduleInterview(at time.Time) {
	stamp := at
	c.InterviewAt = &stamp
	if c.Status != StatusInterview && !c.IsClosed() {
		c.Status = StatusInterview
	}
	c.touch(at)
}

func (c *Candidate) ScheduleTechTest(at time.Time) {
	stamp := at
	c.TechTestAt = &stamp
	if c.Status != StatusInTest && !c.IsClosed() {
		c.Status = StatusInTest
	}
	c.touch(at)
}

// IsClosed reports whether the candidate left the funnel.
func (c *Candidate) IsClosed() bool {
	switch c.Status {
	case StatusRejected, StatusWithdrawn, StatusHired:
		return true
	}
	return false
}

// InTalentPool reports whether the candidate is available for future openings.
func (c *Candidate) InTalentPool(generalPool kernel.JobID) bool {
	return c.Origin == OriginTalentPool || c.JobID == generalPool
}

func (c *Candidate) touch(at time.Time) {
	stamp := at
	c.LastInteractionAt = &stamp
	if c.FirstContactAt == nil {
		c.FirstContactAt = &stamp
	}
	c.UpdatedAt = time.Now()
}

// ============================================================================
// DTOs
// ============================================================================

type CreateCandidateRequest struct {
	JobID          kernel.JobID `json:"job_id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Origin         Origin       `json:"origin"`
	Status         Status       `json:"status,omitempty"`
	Reason         string       `json:"reason,omitempty"`
	FirstContactAt *time.Time   `json:"first_contact_at,omitempty"`
}

func (r CreateCandidateRequest) Validate() error {
	if r.JobID.IsEmpty() {
		return ErrInvalidCandidate().WithDetail("job_id", "required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidCandidate().WithDetail("name", "required")
	}
	if !r.Origin.Valid() {
		return ErrInvalidCandidate().WithDetail("origin", r.Origin)
	}
	if r.Status != "" && !r.Status.Valid() {
		return ErrInvalidStatus().WithDetail("status", r.Status)
	}
	if r.Status.RequiresReason() && strings.TrimSpace(r.Reason) == "" {
		return ErrReasonRequired().WithDetail("status", r.Status)
	}
	return nil
}

type ChangeStatusRequest struct {
	Status Status     `json:"status"`
	Reason string     `json:"reason,omitempty"`
	At     *time.Time `json:"at,omitempty"`
}

type ScheduleRequest struct {
	At time.Time `json:"at"`
}

type CandidateListResponse struct {
	Candidates []Candidate `json:"candidates"`
	Total      int         `json:"total"`
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("CANDIDATE")

var (
	CodeCandidateNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Candidate not found")
	CodeInvalidCandidate  = ErrRegistry.Register("INVALID", errx.TypeValidation, http.StatusBadRequest, "Invalid candidate data")
	CodeInvalidStatus     = ErrRegistry.Register("INVALID_STATUS", errx.TypeValidation, http.StatusBadRequest, "Unknown candidate status")
	CodeReasonRequired    = ErrRegistry.Register("REASON_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "A reason is required for rejections and withdrawals")
)

func ErrCandidateNotFound() *errx.Error { return ErrRegistry.New(CodeCandidateNotFound) }
func ErrInvalidCandidate() *errx.Error  { return ErrRegistry.New(CodeInvalidCandidate) }
func ErrInvalidStatus() *errx.Error     { return ErrRegistry.New(CodeInvalidStatus) }
func ErrReasonRequired() *errx.Error    { return ErrRegistry.New(CodeReasonRequired) }
