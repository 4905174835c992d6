package reportapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Abraxas-365/hireflow/pkg/ats/candidate"
	"github.com/Abraxas-365/hireflow/pkg/ats/candidate/candidateinfra"
	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/ats/job/jobinfra"
	"github.com/Abraxas-365/hireflow/pkg/ats/report"
	"github.com/Abraxas-365/hireflow/pkg/ats/report/reportinfra"
	"github.com/Abraxas-365/hireflow/pkg/ats/report/reportsrv"
	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/fiberx"
	"github.com/Abraxas-365/hireflow/pkg/iam/auth"
	"github.com/Abraxas-365/hireflow/pkg/iam/scopes"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
	"github.com/Abraxas-365/hireflow/pkg/ptrx"
)

type harness struct {
	app    *fiber.App
	tokens *auth.JWTService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tokens := auth.NewJWTServiceFromConfig(&config.JWTConfig{
		SecretKey:      "0123456789abcdef0123456789abcdef",
		AccessTokenTTL: time.Hour,
		Issuer:         "hireflow",
		Audience:       []string{"hireflow-api"},
	})

	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }
	jobs := jobinfra.NewMemoryJobRepository(
		job.Job{ID: "j1", Title: "QA", Sector: "Tech", Unit: "SP", Status: job.StatusOpen, OpenedAt: day(2, 3), CreatedBy: "u1"},
		job.Job{ID: "j2", Title: "CFO", Sector: "Finance", Unit: "RJ", Status: job.StatusClosed, OpenedAt: day(1, 3), ClosedAt: ptrx.Time(day(2, 10)), CreatedBy: "u1", IsConfidential: true},
	)
	candidates := candidateinfra.NewMemoryCandidateRepository(
		candidate.Candidate{ID: "c1", JobID: "j1", Origin: candidate.OriginLinkedIn, CreatedAt: day(2, 4), FirstContactAt: ptrx.Time(day(2, 4))},
	)
	svc := reportsrv.NewReportService(jobs, candidates, reportinfra.NoopCache{}, reportinfra.NewXLSXExporter(), nil,
		config.ReportConfig{Timezone: "UTC", GeneralPoolJobID: "general-pool"})

	app := fiber.New(fiber.Config{ErrorHandler: fiberx.ErrorHandler(false)})
	NewReportHandlers(svc).RegisterRoutes(app.Group("/api/v1"), auth.NewAuthMiddleware(tokens, "access_token"))
	return &harness{app: app, tokens: tokens}
}

func (h *harness) get(t *testing.T, path string, id kernel.UserID, role kernel.Role) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if id != "" {
		tok, err := h.tokens.GenerateAccessToken(&kernel.AuthContext{UserID: id, Role: role, Scopes: scopes.ForRole(role)})
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeSnapshot(t *testing.T, resp *http.Response) report.Snapshot {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var snap report.Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	return snap
}

func TestReportAPI_SnapshotRespectsConfidentiality(t *testing.T) {
	h := newHarness(t)

	snap := decodeSnapshot(t, h.get(t, "/api/v1/reports/snapshot?start=2024-02-01&end=2024-02-29", "u9", kernel.RoleHRAssistant))
	require.Equal(t, []kernel.JobID{"j1"}, snap.Jobs)
	require.Equal(t, 1, snap.Candidates.Sourced)

	snap = decodeSnapshot(t, h.get(t, "/api/v1/reports/snapshot?start=2024-02-01&end=2024-02-29", "m1", kernel.RoleMaster))
	require.Equal(t, 2, snap.Counters.Total)
	require.Equal(t, 1, snap.Counters.Closed)

	snap = decodeSnapshot(t, h.get(t, "/api/v1/reports/snapshot?start=2024-02-01&end=2024-02-29&sector=Finance", "m1", kernel.RoleMaster))
	require.Equal(t, []kernel.JobID{"j2"}, snap.Jobs)
}

func TestReportAPI_Validation(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/v1/reports/snapshot?start=2024-03-01&end=2024-02-01", "m1", kernel.RoleMaster)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.get(t, "/api/v1/reports/snapshot", "m1", kernel.RoleMaster)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = h.get(t, "/api/v1/reports/snapshot?start=2024-02-01&end=2024-02-29", "", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestReportAPI_Export(t *testing.T) {
	h := newHarness(t)

	resp := h.get(t, "/api/v1/reports/export?start=2024-02-01&end=2024-02-29", "u9", kernel.RoleHRAssistant)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.get(t, "/api/v1/reports/export?start=2024-02-01&end=2024-02-29", "u1", kernel.RoleRecruiter)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "report_20240201_20240229.xlsx")

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	total, err := f.GetCellValue(reportinfra.SheetSummary, "B6")
	require.NoError(t, err)
	require.Equal(t, "2", total)
}
