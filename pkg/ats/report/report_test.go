package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/ats/candidate"
	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/ptrx"
)

var (
	recruiterA = kernel.Viewer{ID: "user-a", Role: kernel.RoleRecruiter}
	assistantB = kernel.Viewer{ID: "user-b", Role: kernel.RoleHRAssistant}
	recruiterC = kernel.Viewer{ID: "user-c", Role: kernel.RoleRecruiter}
	master     = kernel.Viewer{ID: "user-m", Role: kernel.RoleMaster}

	opts = Options{GeneralPoolJobID: "general-pool"}
)

func d(m time.Month, day int) time.Time {
	return time.Date(2024, m, day, 0, 0, 0, 0, time.UTC)
}

func febRange(t *testing.T) DateRange {
	t.Helper()
	r, err := NewDateRange(d(2, 1), d(2, 29), time.UTC)
	require.NoError(t, err)
	return r
}

func TestNewDateRange(t *testing.T) {
	r, err := NewDateRange(d(2, 1).Add(15*time.Hour), d(2, 29), time.UTC)
	require.NoError(t, err)
	require.Equal(t, d(2, 1), r.Start)
	require.Equal(t, d(3, 1).Add(-time.Nanosecond), r.End)
	require.True(t, r.Contains(d(2, 29).Add(23*time.Hour+59*time.Minute)))
	require.False(t, r.Contains(d(3, 1)))

	_, err = NewDateRange(d(3, 1), d(2, 1), time.UTC)
	require.True(t, errx.Is(err, CodeInvalidRange))
}

func TestNewDateRange_SingleDay(t *testing.T) {
	r, err := NewDateRange(d(2, 10), d(2, 10), time.UTC)
	require.NoError(t, err)
	require.True(t, r.Contains(d(2, 10).Add(12*time.Hour)))
}

func TestBuild_EmptyInputs(t *testing.T) {
	snap := Build(nil, nil, master, febRange(t), Filter{}, opts)

	require.Equal(t, Counters{}, snap.Counters)
	require.Empty(t, snap.Jobs)
	require.NotNil(t, snap.Jobs)
	require.Empty(t, snap.Sectors)
	require.Zero(t, snap.Candidates.Rejections)
	require.NotNil(t, snap.Candidates.RejectionReasons)
}

func TestBuild_InvertedRangeYieldsEmptySnapshot(t *testing.T) {
	jobs := []job.Job{{ID: "j1", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(2, 5)}}
	inverted := DateRange{Start: d(3, 1), End: d(2, 1)}

	snap := Build(jobs, nil, master, inverted, Filter{}, opts)
	require.Empty(t, snap.Jobs)
	require.Equal(t, Counters{}, snap.Counters)
}

func TestBuild_ConfidentialJobHiddenFromOutsider(t *testing.T) {
	secret := job.Job{
		ID:             "secret",
		Sector:         "Exec",
		Status:         job.StatusOpen,
		OpenedAt:       d(2, 3),
		IsConfidential: true,
		CreatedBy:      "user-a",
		AllowedUserIDs: []kernel.UserID{"user-b"},
		FreezeHistory:  []job.FreezeInterval{{StartDate: d(2, 10), EndDate: ptrx.Time(d(2, 12))}},
	}
	public := job.Job{ID: "public", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(1, 10)}
	candidates := []candidate.Candidate{
		{ID: "c1", JobID: "secret", Status: candidate.StatusRejected, RejectionDate: ptrx.Time(d(2, 5)), InterviewAt: ptrx.Time(d(2, 4))},
		{ID: "c2", JobID: "public", Status: candidate.StatusInterview, InterviewAt: ptrx.Time(d(2, 6))},
	}
	jobs := []job.Job{secret, public}

	for _, v := range []kernel.Viewer{recruiterA, assistantB, master} {
		snap := Build(jobs, candidates, v, febRange(t), Filter{}, opts)
		require.Contains(t, snap.Jobs, kernel.JobID("secret"), v.ID)
	}

	snap := Build(jobs, candidates, recruiterC, febRange(t), Filter{}, opts)
	require.Equal(t, []kernel.JobID{"public"}, snap.Jobs)
	require.NotContains(t, snap.ActiveTotal, kernel.JobID("secret"))
	require.NotContains(t, snap.BalanceOpen, kernel.JobID("secret"))
	require.Empty(t, snap.FrozenInRange)
	require.Empty(t, snap.OpenedInRange)
	require.Equal(t, 1, snap.Candidates.Interviews)
	require.Zero(t, snap.Candidates.Rejections)
	for _, sr := range snap.Sectors {
		require.NotEqual(t, "Exec", sr.Sector)
	}
}

func TestBuild_ConfidentialNeverLeaksAcrossRanges(t *testing.T) {
	secret := job.Job{
		ID:             "secret",
		Sector:         "Exec",
		Status:         job.StatusClosed,
		OpenedAt:       d(1, 3),
		ClosedAt:       ptrx.Time(d(4, 1)),
		IsConfidential: true,
		CreatedBy:      "user-a",
	}
	ranges := [][2]time.Time{
		{d(1, 1), d(1, 31)},
		{d(1, 3), d(1, 3)},
		{d(2, 1), d(6, 30)},
		{d(4, 1), d(4, 1)},
	}
	for _, rr := range ranges {
		r, err := NewDateRange(rr[0], rr[1], time.UTC)
		require.NoError(t, err)
		snap := Build([]job.Job{secret}, nil, recruiterC, r, Filter{}, opts)
		require.Empty(t, snap.Jobs)
		require.Equal(t, Counters{}, snap.Counters)
		require.Empty(t, snap.Sectors)
		require.Empty(t, snap.Excluded)
	}
}

func TestBuild_SectorRollupVersusGlobalBacklog(t *testing.T) {
	jobs := []job.Job{
		{ID: "new", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(2, 10)},
		{ID: "old", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(1, 15)},
	}

	snap := Build(jobs, nil, master, febRange(t), Filter{}, opts)

	require.Equal(t, []SectorRollup{{Sector: "Tech", Opened: 1}}, snap.Sectors)
	require.Equal(t, []kernel.JobID{"old"}, snap.Backlog)
	require.Equal(t, []kernel.JobID{"new"}, snap.OpenedInRange)
	require.ElementsMatch(t, []kernel.JobID{"new", "old"}, snap.ActiveTotal)
	require.ElementsMatch(t, []kernel.JobID{"new", "old"}, snap.BalanceOpen)
	require.Equal(t, 2, snap.Counters.Active)
}

func TestBuild_TemporalBuckets(t *testing.T) {
	jobs := []job.Job{
		{ID: "closed", Sector: "Ops", Status: job.StatusClosed, OpenedAt: d(1, 20), ClosedAt: ptrx.Time(d(2, 9))},
		{ID: "canceled", Sector: "Ops", Status: job.StatusCanceled, OpenedAt: d(2, 2), ClosedAt: ptrx.Time(d(2, 20))},
		{ID: "closed-before", Sector: "Ops", Status: job.StatusClosed, OpenedAt: d(1, 2), ClosedAt: ptrx.Time(d(1, 25))},
		{ID: "closed-after", Sector: "Ops", Status: job.StatusClosed, OpenedAt: d(1, 2), ClosedAt: ptrx.Time(d(3, 5))},
		{ID: "frozen", Sector: "Tech", Status: job.StatusFrozen, OpenedAt: d(1, 5), FreezeHistory: []job.FreezeInterval{
			{StartDate: d(1, 8), EndDate: ptrx.Time(d(1, 9))},
			{StartDate: d(2, 14)},
		}},
		{ID: "future", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(3, 2)},
	}

	snap := Build(jobs, nil, master, febRange(t), Filter{}, opts)

	require.ElementsMatch(t, []kernel.JobID{"closed", "closed-after", "frozen"}, snap.Backlog)
	require.Equal(t, []kernel.JobID{"canceled"}, snap.OpenedInRange)
	require.Equal(t, []kernel.JobID{"closed"}, snap.ClosedInRange)
	require.Equal(t, []kernel.JobID{"canceled"}, snap.CanceledInRange)
	require.Equal(t, []kernel.JobID{"frozen"}, snap.FrozenInRange)
	require.ElementsMatch(t, []kernel.JobID{"closed", "closed-after", "frozen", "canceled"}, snap.ActiveTotal)
	require.Equal(t, []kernel.JobID{"closed-after"}, snap.BalanceOpen)

	require.Equal(t, []SectorRollup{
		{Sector: "Ops", Opened: 1, Closed: 1, Canceled: 1},
		{Sector: "Tech", Frozen: 1},
	}, snap.Sectors)
}

func TestBuild_JobFrozenTwiceInWindowCountedOnce(t *testing.T) {
	jobs := []job.Job{{
		ID: "twice", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(1, 5),
		FreezeHistory: []job.FreezeInterval{
			{StartDate: d(2, 2), EndDate: ptrx.Time(d(2, 4))},
			{StartDate: d(2, 10), EndDate: ptrx.Time(d(2, 12))},
		},
	}}

	snap := Build(jobs, nil, master, febRange(t), Filter{}, opts)
	require.Equal(t, 1, snap.Counters.Frozen)
	require.Equal(t, 1, snap.Sectors[0].Frozen)
}

func TestBuild_ActiveTotalDedupOnSingleDayRange(t *testing.T) {
	r, err := NewDateRange(d(2, 10), d(2, 10), time.UTC)
	require.NoError(t, err)
	jobs := []job.Job{
		{ID: "same-day", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(2, 10).Add(9 * time.Hour)},
		{ID: "same-day", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(2, 10).Add(9 * time.Hour)},
		{ID: "before", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(2, 9)},
	}

	snap := Build(jobs, nil, master, r, Filter{}, opts)

	counts := make(map[kernel.JobID]int)
	for _, id := range snap.ActiveTotal {
		counts[id]++
	}
	require.Equal(t, map[kernel.JobID]int{"same-day": 1, "before": 1}, counts)
}

func TestBuild_UnitAndSectorFilters(t *testing.T) {
	jobs := []job.Job{
		{ID: "sp-tech", Unit: "SP", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(2, 3)},
		{ID: "rj-tech", Unit: "RJ", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(2, 3)},
		{ID: "sp-ops", Unit: "SP", Sector: "Ops", Status: job.StatusOpen, OpenedAt: d(2, 3)},
	}

	snap := Build(jobs, nil, master, febRange(t), Filter{Unit: "SP"}, opts)
	require.ElementsMatch(t, []kernel.JobID{"sp-tech", "sp-ops"}, snap.Jobs)

	snap = Build(jobs, nil, master, febRange(t), Filter{Unit: "SP", Sector: "Tech"}, opts)
	require.Equal(t, []kernel.JobID{"sp-tech"}, snap.Jobs)
}

func TestBuild_CandidateMetrics(t *testing.T) {
	jobs := []job.Job{
		{ID: "j1", Unit: "SP", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(1, 10)},
	}
	candidates := []candidate.Candidate{
		{ID: "c1", JobID: "j1", Status: candidate.StatusRejected, RejectionDate: ptrx.Time(d(2, 3))},
		{ID: "c2", JobID: "j1", Status: candidate.StatusRejected, RejectionDate: ptrx.Time(d(2, 4)), RejectionReason: ptrx.String("salary")},
		{ID: "c3", JobID: "j1", Status: candidate.StatusRejected, RejectionDate: ptrx.Time(d(2, 5)), RejectionReason: ptrx.String("  ")},
		{ID: "c4", JobID: "j1", Status: candidate.StatusWithdrawn, RejectionDate: ptrx.Time(d(2, 6)), RejectionReason: ptrx.String("relocation")},
		{ID: "c5", JobID: "j1", Status: candidate.StatusRejected, RejectionDate: ptrx.Time(d(1, 5))},
		{ID: "c6", JobID: "j1", Status: candidate.StatusInTest, TechTestAt: ptrx.Time(d(2, 7)), FirstContactAt: ptrx.Time(d(2, 1)), Origin: candidate.OriginLinkedIn},
		{ID: "c7", JobID: "general-pool", Status: candidate.StatusInterview, InterviewAt: ptrx.Time(d(2, 8)), FirstContactAt: ptrx.Time(d(2, 2)), Origin: candidate.OriginTalentPool},
		{ID: "c8", JobID: "missing-job", Status: candidate.StatusInterview, InterviewAt: ptrx.Time(d(2, 8))},
	}

	snap := Build(jobs, candidates, recruiterA, febRange(t), Filter{}, opts)
	m := snap.Candidates
	require.Equal(t, 3, m.Rejections)
	require.Equal(t, []ReasonCount{{Reason: NotInformed, Count: 2}, {Reason: "salary", Count: 1}}, m.RejectionReasons)
	require.Equal(t, 1, m.Withdrawals)
	require.Equal(t, []ReasonCount{{Reason: "relocation", Count: 1}}, m.WithdrawalReasons)
	require.Equal(t, 1, m.TechTests)
	require.Equal(t, 1, m.Interviews, "general pool interview counted, orphan excluded")
	require.Equal(t, 2, m.Sourced)
	require.Len(t, m.Origins, 2)

	withUnit := Build(jobs, candidates, recruiterA, febRange(t), Filter{Unit: "SP"}, opts)
	require.Zero(t, withUnit.Candidates.Interviews, "general pool dropped under a unit filter")
}

func TestBuild_RejectedWithoutReasonGoesToNotInformed(t *testing.T) {
	jobs := []job.Job{{ID: "j1", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(1, 10)}}
	candidates := []candidate.Candidate{
		{ID: "c1", JobID: "j1", Status: candidate.StatusRejected, RejectionDate: ptrx.Time(d(2, 3)), RejectionReason: nil},
	}

	snap := Build(jobs, candidates, master, febRange(t), Filter{}, opts)
	require.Equal(t, []ReasonCount{{Reason: NotInformed, Count: 1}}, snap.Candidates.RejectionReasons)
}

func TestBuild_MalformedJobExcluded(t *testing.T) {
	jobs := []job.Job{
		{ID: "no-open-date", Sector: "Tech", Status: job.StatusOpen},
		{ID: "closed-no-date", Sector: "Tech", Status: job.StatusClosed, OpenedAt: d(1, 3)},
		{ID: "ok", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(2, 3)},
	}
	candidates := []candidate.Candidate{
		{ID: "c1", JobID: "no-open-date", InterviewAt: ptrx.Time(d(2, 5))},
	}

	snap := Build(jobs, candidates, master, febRange(t), Filter{}, opts)
	require.Equal(t, []kernel.JobID{"ok"}, snap.Jobs)
	require.ElementsMatch(t, []kernel.JobID{"no-open-date", "closed-no-date"}, snap.Excluded)
	require.Zero(t, snap.Candidates.Interviews)
}

func TestBuild_SLASummary(t *testing.T) {
	jobs := []job.Job{
		{ID: "fast", Sector: "Tech", Status: job.StatusClosed, OpenedAt: d(2, 1), ClosedAt: ptrx.Time(d(2, 11))},
		{ID: "slow", Sector: "Tech", Status: job.StatusClosed, OpenedAt: d(1, 1), ClosedAt: ptrx.Time(d(2, 10)),
			FreezeHistory: []job.FreezeInterval{{StartDate: d(1, 5), EndDate: ptrx.Time(d(1, 15))}}},
	}

	snap := Build(jobs, nil, master, febRange(t), Filter{}, opts)
	require.Equal(t, 2, snap.SLA.Jobs)
	require.Equal(t, 30, snap.SLA.MaxNetDays)
	require.InDelta(t, 20.0, snap.SLA.AvgNetDays, 0.001)
	require.InDelta(t, 5.0, snap.SLA.AvgFrozenDays, 0.001)
}

func TestBuild_Idempotent(t *testing.T) {
	jobs := []job.Job{
		{ID: "j1", Sector: "Tech", Status: job.StatusOpen, OpenedAt: d(1, 10)},
		{ID: "j2", Sector: "Ops", Status: job.StatusFrozen, OpenedAt: d(2, 2), FreezeHistory: []job.FreezeInterval{{StartDate: d(2, 9)}}},
	}
	candidates := []candidate.Candidate{
		{ID: "c1", JobID: "j1", Status: candidate.StatusWithdrawn, RejectionDate: ptrx.Time(d(2, 3)), RejectionReason: ptrx.String("x")},
	}

	first := Build(jobs, candidates, recruiterA, febRange(t), Filter{}, opts)
	second := Build(jobs, candidates, recruiterA, febRange(t), Filter{}, opts)
	require.Equal(t, first, second)
	require.Nil(t, jobs[1].FreezeHistory[0].EndDate, "inputs untouched")
}
