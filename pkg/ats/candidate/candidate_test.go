package candidate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/errx"
)

var at = time.Date(2024, time.March, 4, 9, 30, 0, 0, time.UTC)

func TestCandidate_ChangeStatusRequiresReasonForRejection(t *testing.T) {
	c := &Candidate{Status: StatusInAnalysis}

	err := c.ChangeStatus(StatusRejected, "", at)
	require.True(t, errx.Is(err, CodeReasonRequired))
	require.Equal(t, StatusInAnalysis, c.Status)
	require.Nil(t, c.RejectionDate)

	require.NoError(t, c.ChangeStatus(StatusWithdrawn, "accepted another offer", at))
	require.Equal(t, StatusWithdrawn, c.Status)
	require.Equal(t, at, *c.RejectionDate)
	require.Equal(t, "accepted another offer", *c.RejectionReason)
	require.Equal(t, at, *c.LastInteractionAt)
	require.Equal(t, at, *c.FirstContactAt)
}

func TestCandidate_ChangeStatusIsPermissive(t *testing.T) {
	c := &Candidate{Status: StatusHired}
	require.NoError(t, c.ChangeStatus(StatusAwaitingScreening, "", at))
	require.Equal(t, StatusAwaitingScreening, c.Status)
}

func TestCandidate_ChangeStatusRejectsUnknown(t *testing.T) {
	c := &Candidate{Status: StatusInAnalysis}
	err := c.ChangeStatus("LIMBO", "", at)
	require.True(t, errx.Is(err, CodeInvalidStatus))
}

func TestCandidate_Schedule(t *testing.T) {
	c := &Candidate{Status: StatusInAnalysis}
	c.ScheduleTechTest(at)
	require.Equal(t, StatusInTest, c.Status)
	require.Equal(t, at, *c.TechTestAt)

	later := at.Add(48 * time.Hour)
	c.ScheduleInterview(later)
	require.Equal(t, StatusInterview, c.Status)
	require.Equal(t, later, *c.LastInteractionAt)
	require.Equal(t, at, *c.FirstContactAt)

	rejected := &Candidate{Status: StatusRejected}
	rejected.ScheduleInterview(at)
	require.Equal(t, StatusRejected, rejected.Status)
}

func TestCandidate_InTalentPool(t *testing.T) {
	require.True(t, (&Candidate{Origin: OriginTalentPool, JobID: "job-1"}).InTalentPool("general-pool"))
	require.True(t, (&Candidate{Origin: OriginLinkedIn, JobID: "general-pool"}).InTalentPool("general-pool"))
	require.False(t, (&Candidate{Origin: OriginLinkedIn, JobID: "job-1"}).InTalentPool("general-pool"))
}

func TestCreateCandidateRequest_Validate(t *testing.T) {
	ok := CreateCandidateRequest{JobID: "job-1", Name: "Ana", Origin: OriginReferral}
	require.NoError(t, ok.Validate())

	missingJob := ok
	missingJob.JobID = ""
	require.Error(t, missingJob.Validate())

	badOrigin := ok
	badOrigin.Origin = "CARRIER_PIGEON"
	require.Error(t, badOrigin.Validate())

	rejected := ok
	rejected.Status = StatusRejected
	rejected.Reason = "  "
	require.True(t, errx.Is(rejected.Validate(), CodeReasonRequired))
	rejected.Reason = "profile"
	require.NoError(t, rejected.Validate())
}
