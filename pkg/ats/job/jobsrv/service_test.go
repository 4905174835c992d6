package jobsrv

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/ats/job/jobinfra"
	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/ptrx"
)

var (
	creator  = kernel.Viewer{ID: "u1", Role: kernel.RoleRecruiter}
	outsider = kernel.Viewer{ID: "u2", Role: kernel.RoleRecruiter}
	t0       = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
)

func newService(t *testing.T, seed ...job.Job) *JobService {
	t.Helper()
	svc := NewJobService(jobinfra.NewMemoryJobRepository(seed...), nil)
	svc.now = func() time.Time { return t0 }
	return svc
}

func TestCreateJob(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	j, err := svc.CreateJob(ctx, creator, job.CreateJobRequest{
		Title:          " Data Engineer ",
		Sector:         "Tech",
		IsConfidential: true,
		OpeningDetails: job.OpeningDetails{Reason: job.OpeningExpansion},
	})
	require.NoError(t, err)
	require.Equal(t, "Data Engineer", j.Title)
	require.Equal(t, job.StatusOpen, j.Status)
	require.Equal(t, t0, j.OpenedAt)
	require.Equal(t, creator.ID, j.CreatedBy)

	_, err = svc.GetJob(ctx, outsider, j.ID)
	require.True(t, errx.Is(err, job.CodeJobNotFound), "hidden jobs are not found, never forbidden")

	got, err := svc.GetJob(ctx, creator, j.ID)
	require.NoError(t, err)
	require.Equal(t, j.ID, got.ID)
}

func TestCreateJob_Validation(t *testing.T) {
	svc := newService(t)
	_, err := svc.CreateJob(context.Background(), creator, job.CreateJobRequest{
		Title: "Ops", Sector: "Ops", OpeningDetails: job.OpeningDetails{Reason: job.OpeningReplacement},
	})
	require.True(t, errx.Is(err, job.CodeInvalidOpening))
}

func TestLifecycleAndSLA(t *testing.T) {
	svc := newService(t, job.Job{
		ID: "j1", Title: "QA", Sector: "Tech", Status: job.StatusOpen,
		OpenedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), CreatedBy: "u1",
	})
	ctx := context.Background()

	_, err := svc.FreezeJob(ctx, creator, "j1", job.FreezeRequest{Reason: "budget", At: ptrx.Time(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, err)

	_, err = svc.FreezeJob(ctx, creator, "j1", job.FreezeRequest{Reason: "again"})
	require.True(t, errx.Is(err, job.CodeInvalidTransition))

	_, err = svc.UnfreezeJob(ctx, creator, "j1", job.TransitionRequest{At: ptrx.Time(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, err)

	closed, err := svc.CloseJob(ctx, creator, "j1", job.TransitionRequest{At: ptrx.Time(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	require.Equal(t, job.StatusClosed, closed.Status)

	res, err := svc.GetSLA(ctx, creator, "j1", ptrx.Time(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	require.Equal(t, 30, res.GrossDays)
	require.Equal(t, 5, res.FrozenDays)
	require.Equal(t, 25, res.NetDays)
	require.Equal(t, *closed.ClosedAt, res.EvaluatedAt)

	_, err = svc.CancelJob(ctx, creator, "j1", job.TransitionRequest{Reason: "late"})
	require.True(t, errx.Is(err, job.CodeInvalidTransition))
}

func TestCancelRequiresReason(t *testing.T) {
	svc := newService(t, job.Job{ID: "j1", Status: job.StatusOpen, OpenedAt: t0.Add(-time.Hour), CreatedBy: "u1"})
	_, err := svc.CancelJob(context.Background(), creator, "j1", job.TransitionRequest{Reason: "  "})
	require.True(t, errx.Is(err, job.CodeCancelReasonRequired))
}

func TestUpdateAndDeleteRespectACL(t *testing.T) {
	svc := newService(t, job.Job{ID: "secret", Title: "CFO", Sector: "Exec", Status: job.StatusOpen, OpenedAt: t0, IsConfidential: true, CreatedBy: "u1"})
	ctx := context.Background()

	_, err := svc.UpdateJob(ctx, outsider, "secret", job.UpdateJobRequest{Title: ptrx.String("leak")})
	require.True(t, errx.Is(err, job.CodeJobNotFound))
	require.True(t, errx.Is(svc.DeleteJob(ctx, outsider, "secret"), job.CodeJobNotFound))

	allowed := []kernel.UserID{"u2"}
	updated, err := svc.UpdateJob(ctx, creator, "secret", job.UpdateJobRequest{AllowedUserIDs: &allowed})
	require.NoError(t, err)
	require.Equal(t, allowed, updated.AllowedUserIDs)

	_, err = svc.GetJob(ctx, outsider, "secret")
	require.NoError(t, err, "allow-listed now")

	_, err = svc.UpdateJob(ctx, creator, "secret", job.UpdateJobRequest{Title: ptrx.String(" ")})
	require.True(t, errx.Is(err, job.CodeInvalidJob))

	require.NoError(t, svc.DeleteJob(ctx, outsider, "secret"))
}

func TestListJobs_RejectsUnknownStatus(t *testing.T) {
	svc := newService(t)
	_, err := svc.ListJobs(context.Background(), creator, job.Filter{Status: "PAUSED"})
	require.True(t, errx.Is(err, job.CodeInvalidStatus))
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func TestJobWritesInvalidateSnapshots(t *testing.T) {
	inv := &countingInvalidator{}
	svc := NewJobService(jobinfra.NewMemoryJobRepository(), inv)
	svc.now = func() time.Time { return t0 }
	ctx := context.Background()

	j, err := svc.CreateJob(ctx, creator, job.CreateJobRequest{
		Title: "CFO", Sector: "Finance", IsConfidential: true,
		AllowedUserIDs: []kernel.UserID{"u2"},
		OpeningDetails: job.OpeningDetails{Reason: job.OpeningExpansion},
	})
	require.NoError(t, err)
	require.Equal(t, 1, inv.calls)

	_, err = svc.UpdateJob(ctx, creator, j.ID, job.UpdateJobRequest{AllowedUserIDs: &[]kernel.UserID{}})
	require.NoError(t, err)
	require.Equal(t, 2, inv.calls)

	_, err = svc.UpdateJob(ctx, outsider, j.ID, job.UpdateJobRequest{Title: ptrx.String("x")})
	require.True(t, errx.Is(err, job.CodeJobNotFound))
	require.Equal(t, 2, inv.calls)

	inv.err = errors.New("redis down")
	_, err = svc.CloseJob(ctx, creator, j.ID, job.TransitionRequest{})
	require.NoError(t, err)
	require.Equal(t, 3, inv.calls)

	require.NoError(t, svc.DeleteJob(ctx, creator, j.ID))
	require.Equal(t, 4, inv.calls)
}
