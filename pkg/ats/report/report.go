package report

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/ats/candidate"
	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/ats/sla"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// NotInformed is the histogram bucket for rejections without a reason.
const NotInformed = "Not informed"

// ============================================================================
// Date Range
// ============================================================================

// DateRange is an inclusive window; End is the last instant of its day.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange spans from the start of start's day to the end of end's day in loc.
func NewDateRange(start, end time.Time, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := startOfDay(start.In(loc))
	e := startOfDay(end.In(loc)).AddDate(0, 0, 1).Add(-time.Nanosecond)
	if s.After(e) {
		return DateRange{}, ErrInvalidRange().
			WithDetail("start", s.Format(time.DateOnly)).
			WithDetail("end", e.Format(time.DateOnly))
	}
	return DateRange{Start: s, End: e}, nil
}

func (r DateRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.Start.After(r.End)
}

func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r DateRange) containsPtr(t *time.Time) bool {
	return t != nil && r.Contains(*t)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ============================================================================
// Snapshot
// ============================================================================

// Filter narrows the report to one unit and/or sector.
type Filter struct {
	Unit   string `json:"unit,omitempty"`
	Sector string `json:"sector,omitempty"`
}

// Options carries deployment constants the builder needs.
type Options struct {
	// GeneralPoolJobID is the sentinel job id of interviews not tied to a posting.
	GeneralPoolJobID kernel.JobID
}

type Counters struct {
	Total       int `json:"total"`
	Backlog     int `json:"backlog"`
	Opened      int `json:"opened"`
	Closed      int `json:"closed"`
	Canceled    int `json:"canceled"`
	Frozen      int `json:"frozen"`
	Active      int `json:"active"`
	BalanceOpen int `json:"balance_open"`
}

type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

type CandidateMetrics struct {
	Sourced           int           `json:"sourced"`
	Interviews        int           `json:"interviews"`
	TechTests         int           `json:"tech_tests"`
	Rejections        int           `json:"rejections"`
	Withdrawals       int           `json:"withdrawals"`
	RejectionReasons  []ReasonCount `json:"rejection_reasons"`
	WithdrawalReasons []ReasonCount `json:"withdrawal_reasons"`
	Origins           []ReasonCount `json:"origins"`
}

type SectorRollup struct {
	Sector   string `json:"sector"`
	Opened   int    `json:"opened"`
	Closed   int    `json:"closed"`
	Frozen   int    `json:"frozen"`
	Canceled int    `json:"canceled"`
}

// SLASummary aggregates the SLA of jobs closed inside the window.
type SLASummary struct {
	Jobs          int     `json:"jobs"`
	AvgGrossDays  float64 `json:"avg_gross_days"`
	AvgFrozenDays float64 `json:"avg_frozen_days"`
	AvgNetDays    float64 `json:"avg_net_days"`
	MaxNetDays    int     `json:"max_net_days"`
}

// Snapshot is the read-only result of Build. All collections are non-nil.
type Snapshot struct {
	Range           DateRange        `json:"range"`
	Filter          Filter           `json:"filter"`
	Jobs            []kernel.JobID   `json:"jobs"`
	Backlog         []kernel.JobID   `json:"backlog"`
	OpenedInRange   []kernel.JobID   `json:"opened_in_range"`
	ClosedInRange   []kernel.JobID   `json:"closed_in_range"`
	CanceledInRange []kernel.JobID   `json:"canceled_in_range"`
	FrozenInRange   []kernel.JobID   `json:"frozen_in_range"`
	ActiveTotal     []kernel.JobID   `json:"active_total"`
	BalanceOpen     []kernel.JobID   `json:"balance_open"`
	Counters        Counters         `json:"counters"`
	Candidates      CandidateMetrics `json:"candidates"`
	Sectors         []SectorRollup   `json:"sectors"`
	SLA             SLASummary       `json:"sla"`
	// Excluded lists visible jobs left out because their dates are malformed.
	Excluded []kernel.JobID `json:"excluded"`
}

func emptySnapshot(r DateRange, f Filter) Snapshot {
	return Snapshot{
		Range:           r,
		Filter:          f,
		Jobs:            []kernel.JobID{},
		Backlog:         []kernel.JobID{},
		OpenedInRange:   []kernel.JobID{},
		ClosedInRange:   []kernel.JobID{},
		CanceledInRange: []kernel.JobID{},
		FrozenInRange:   []kernel.JobID{},
		ActiveTotal:     []kernel.JobID{},
		BalanceOpen:     []kernel.JobID{},
		Candidates: CandidateMetrics{
			RejectionReasons:  []ReasonCount{},
			WithdrawalReasons: []ReasonCount{},
			Origins:           []ReasonCount{},
		},
		Sectors:  []SectorRollup{},
		Excluded: []kernel.JobID{},
	}
}

// ============================================================================
// Build
// ============================================================================

// Build produces the viewer-scoped report for r. It never mutates its inputs.
// An inverted range yields an empty snapshot.
func Build(jobs []job.Job, candidates []candidate.Candidate, viewer kernel.Viewer, r DateRange, f Filter, opts Options) Snapshot {
	snap := emptySnapshot(r, f)
	if !r.Valid() {
		return snap
	}

	// ACL first: nothing below may see a job the viewer cannot.
	scoped := make([]*job.Job, 0, len(jobs))
	seen := make(map[kernel.JobID]struct{}, len(jobs))
	for i := range jobs {
		j := &jobs[i]
		if _, dup := seen[j.ID]; dup {
			continue
		}
		if !j.VisibleTo(viewer) {
			continue
		}
		if !opts.GeneralPoolJobID.IsEmpty() && j.ID == opts.GeneralPoolJobID {
			continue
		}
		if f.Unit != "" && j.Unit != f.Unit {
			continue
		}
		if f.Sector != "" && j.Sector != f.Sector {
			continue
		}
		seen[j.ID] = struct{}{}

		if err := validate(j); err != nil {
			snap.Excluded = append(snap.Excluded, j.ID)
			continue
		}
		scoped = append(scoped, j)
	}

	sectors := make(map[string]*SectorRollup)
	var slaGross, slaFrozen, slaNet int

	for _, j := range scoped {
		snap.Jobs = append(snap.Jobs, j.ID)

		backlog := isBacklog(j, r)
		opened := r.Contains(j.OpenedAt)
		closed := j.Status == job.StatusClosed && r.containsPtr(j.ClosedAt)
		canceled := j.Status == job.StatusCanceled && r.containsPtr(j.ClosedAt)
		frozen := frozeInRange(j, r)

		if backlog {
			snap.Backlog = append(snap.Backlog, j.ID)
		}
		if opened {
			snap.OpenedInRange = append(snap.OpenedInRange, j.ID)
		}
		if closed {
			snap.ClosedInRange = append(snap.ClosedInRange, j.ID)
		}
		if canceled {
			snap.CanceledInRange = append(snap.CanceledInRange, j.ID)
		}
		if frozen {
			snap.FrozenInRange = append(snap.FrozenInRange, j.ID)
		}
		if backlog || opened {
			snap.ActiveTotal = append(snap.ActiveTotal, j.ID)
		}
		if isBalanceOpen(j, r) {
			snap.BalanceOpen = append(snap.BalanceOpen, j.ID)
		}

		sr, ok := sectors[j.Sector]
		if !ok {
			sr = &SectorRollup{Sector: j.Sector}
			sectors[j.Sector] = sr
		}
		if opened {
			sr.Opened++
		}
		if closed {
			sr.Closed++
		}
		if frozen {
			sr.Frozen++
		}
		if canceled {
			sr.Canceled++
		}

		if closed {
			res, err := sla.Compute(j, *j.ClosedAt)
			if err == nil {
				snap.SLA.Jobs++
				slaGross += res.GrossDays
				slaFrozen += res.FrozenDays
				slaNet += res.NetDays
				if res.NetDays > snap.SLA.MaxNetDays {
					snap.SLA.MaxNetDays = res.NetDays
				}
			}
		}
	}

	if n := snap.SLA.Jobs; n > 0 {
		snap.SLA.AvgGrossDays = float64(slaGross) / float64(n)
		snap.SLA.AvgFrozenDays = float64(slaFrozen) / float64(n)
		snap.SLA.AvgNetDays = float64(slaNet) / float64(n)
	}

	snap.Counters = Counters{
		Total:       len(snap.Jobs),
		Backlog:     len(snap.Backlog),
		Opened:      len(snap.OpenedInRange),
		Closed:      len(snap.ClosedInRange),
		Canceled:    len(snap.CanceledInRange),
		Frozen:      len(snap.FrozenInRange),
		Active:      len(snap.ActiveTotal),
		BalanceOpen: len(snap.BalanceOpen),
	}

	for _, sr := range sectors {
		snap.Sectors = append(snap.Sectors, *sr)
	}
	sort.Slice(snap.Sectors, func(a, b int) bool {
		return snap.Sectors[a].Sector < snap.Sectors[b].Sector
	})

	allowed := make(map[kernel.JobID]struct{}, len(scoped)+1)
	for _, j := range scoped {
		allowed[j.ID] = struct{}{}
	}
	if f.Unit == "" && !opts.GeneralPoolJobID.IsEmpty() {
		allowed[opts.GeneralPoolJobID] = struct{}{}
	}
	snap.Candidates = candidateMetrics(candidates, allowed, r)

	return snap
}

func validate(j *job.Job) error {
	if j.OpenedAt.IsZero() {
		return sla.ErrInvalidDate().WithDetail("field", "opened_at")
	}
	if j.Status.IsTerminal() && j.ClosedAt == nil {
		return sla.ErrInvalidDate().WithDetail("field", "closed_at")
	}
	for _, fi := range j.FreezeHistory {
		if fi.StartDate.IsZero() {
			return sla.ErrInvalidDate().WithDetail("field", "freeze_history.start_date")
		}
	}
	return nil
}

func isBacklog(j *job.Job, r DateRange) bool {
	return j.OpenedAt.Before(r.Start) && (j.ClosedAt == nil || !j.ClosedAt.Before(r.Start))
}

func frozeInRange(j *job.Job, r DateRange) bool {
	for _, fi := range j.FreezeHistory {
		if r.Contains(fi.StartDate) {
			return true
		}
	}
	return false
}

// exitEvent is the instant a job stopped counting as open: its close or
// cancel date, or the start of the freeze it currently sits in.
func exitEvent(j *job.Job) *time.Time {
	switch j.Status {
	case job.StatusClosed, job.StatusCanceled:
		return j.ClosedAt
	case job.StatusFrozen:
		if idx := j.OpenFreeze(); idx >= 0 {
			start := j.FreezeHistory[idx].StartDate
			return &start
		}
		return j.LastFreezeStart()
	default:
		return nil
	}
}

func isBalanceOpen(j *job.Job, r DateRange) bool {
	if j.OpenedAt.After(r.End) {
		return false
	}
	exit := exitEvent(j)
	return exit == nil || exit.After(r.End)
}

func candidateMetrics(candidates []candidate.Candidate, allowed map[kernel.JobID]struct{}, r DateRange) CandidateMetrics {
	rejections := make(map[string]int)
	withdrawals := make(map[string]int)
	origins := make(map[string]int)
	var m CandidateMetrics

	seen := make(map[kernel.CandidateID]struct{}, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if _, ok := allowed[c.JobID]; !ok {
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}

		if r.containsPtr(c.FirstContactAt) {
			m.Sourced++
			origins[string(c.Origin)]++
		}
		if r.containsPtr(c.InterviewAt) {
			m.Interviews++
		}
		if r.containsPtr(c.TechTestAt) {
			m.TechTests++
		}
		switch c.Status {
		case candidate.StatusRejected:
			if r.containsPtr(c.RejectionDate) {
				m.Rejections++
				rejections[reasonOf(c)]++
			}
		case candidate.StatusWithdrawn:
			if r.containsPtr(c.RejectionDate) {
				m.Withdrawals++
				withdrawals[reasonOf(c)]++
			}
		}
	}

	m.RejectionReasons = histogram(rejections)
	m.WithdrawalReasons = histogram(withdrawals)
	m.Origins = histogram(origins)
	return m
}

func reasonOf(c *candidate.Candidate) string {
	if c.RejectionReason == nil || strings.TrimSpace(*c.RejectionReason) == "" {
		return NotInformed
	}
	return strings.TrimSpace(*c.RejectionReason)
}

// histogram orders buckets by count, then name.
func histogram(counts map[string]int) []ReasonCount {
	out := make([]ReasonCount, 0, len(counts))
	for reason, n := range counts {
		out = append(out, ReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Reason < out[b].Reason
	})
	return out
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("REPORT")

var (
	CodeInvalidRange = ErrRegistry.Register("INVALID_RANGE", errx.TypeValidation, http.StatusBadRequest, "Report start date is after its end date")
	CodeExportFailed = ErrRegistry.Register("EXPORT_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to export report")
)

func ErrInvalidRange() *errx.Error { return ErrRegistry.New(CodeInvalidRange) }
func ErrExportFailed() *errx.Error { return ErrRegistry.New(CodeExportFailed) }
