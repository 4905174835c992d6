package jobapi

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/pkg/ats/job"
	"github.com/Abraxas-365/hireflow/pkg/ats/job/jobinfra"
	"github.com/Abraxas-365/hireflow/pkg/ats/job/jobsrv"
	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/fiberx"
	"github.com/Abraxas-365/hireflow/pkg/iam/auth"
	"github.com/Abraxas-365/hireflow/pkg/iam/scopes"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

type harness struct {
	app    *fiber.App
	tokens *auth.JWTService
}

func newHarness(t *testing.T, seed ...job.Job) *harness {
	t.Helper()
	tokens := auth.NewJWTServiceFromConfig(&config.JWTConfig{
		SecretKey:      "0123456789abcdef0123456789abcdef",
		AccessTokenTTL: time.Hour,
		Issuer:         "hireflow",
		Audience:       []string{"hireflow-api"},
	})
	app := fiber.New(fiber.Config{ErrorHandler: fiberx.ErrorHandler(false)})
	svc := jobsrv.NewJobService(jobinfra.NewMemoryJobRepository(seed...), nil)
	NewJobHandlers(svc, time.UTC).RegisterRoutes(app.Group("/api/v1"), auth.NewAuthMiddleware(tokens, "access_token"))
	return &harness{app: app, tokens: tokens}
}

func (h *harness) token(t *testing.T, id kernel.UserID, role kernel.Role) string {
	t.Helper()
	tok, err := h.tokens.GenerateAccessToken(&kernel.AuthContext{UserID: id, Role: role, Scopes: scopes.ForRole(role)})
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, token, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestJobAPI_CreateFreezeSLA(t *testing.T) {
	h := newHarness(t)
	recruiter := h.token(t, "u1", kernel.RoleRecruiter)

	status, raw := h.do(t, http.MethodPost, "/api/v1/jobs", recruiter,
		`{"title":"SRE","sector":"Tech","unit":"SP","opened_at":"2024-01-01T00:00:00Z","opening_details":{"reason":"EXPANSION"}}`)
	require.Equal(t, http.StatusCreated, status, string(raw))
	var created job.Job
	require.NoError(t, json.Unmarshal(raw, &created))

	status, raw = h.do(t, http.MethodPost, "/api/v1/jobs/"+created.ID.String()+"/freeze", recruiter,
		`{"reason":"budget","at":"2024-01-05T00:00:00Z"}`)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = h.do(t, http.MethodGet, "/api/v1/jobs/"+created.ID.String()+"/sla?as_of=2024-01-11", recruiter, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	var res jobsrv.SLAResponse
	require.NoError(t, json.Unmarshal(raw, &res))
	require.Equal(t, 10, res.GrossDays)
	require.Equal(t, 6, res.FrozenDays)
	require.Equal(t, 4, res.NetDays)

	status, _ = h.do(t, http.MethodGet, "/api/v1/jobs/"+created.ID.String()+"/sla?as_of=yesterday", recruiter, "")
	require.Equal(t, http.StatusBadRequest, status)
}

func TestJobAPI_ConfidentialHiddenAsNotFound(t *testing.T) {
	h := newHarness(t, job.Job{
		ID: "secret", Title: "CEO", Sector: "Exec", Status: job.StatusOpen,
		OpenedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), IsConfidential: true,
		CreatedBy: "u1", AllowedUserIDs: []kernel.UserID{"u2"},
	})

	status, _ := h.do(t, http.MethodGet, "/api/v1/jobs/secret", h.token(t, "u3", kernel.RoleRecruiter), "")
	require.Equal(t, http.StatusNotFound, status)

	status, _ = h.do(t, http.MethodGet, "/api/v1/jobs/secret", h.token(t, "u2", kernel.RoleHRAssistant), "")
	require.Equal(t, http.StatusOK, status)

	status, raw := h.do(t, http.MethodGet, "/api/v1/jobs", h.token(t, "u3", kernel.RoleRecruiter), "")
	require.Equal(t, http.StatusOK, status)
	var list job.JobListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Zero(t, list.Total)
}

func TestJobAPI_ScopeChecks(t *testing.T) {
	h := newHarness(t, job.Job{ID: "j1", Title: "QA", Sector: "Tech", Status: job.StatusOpen, OpenedAt: time.Now().Add(-time.Hour)})
	assistant := h.token(t, "u9", kernel.RoleHRAssistant)

	status, _ := h.do(t, http.MethodPost, "/api/v1/jobs", assistant, `{"title":"x","sector":"y","opening_details":{"reason":"EXPANSION"}}`)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = h.do(t, http.MethodPost, "/api/v1/jobs/j1/close", assistant, "")
	require.Equal(t, http.StatusForbidden, status)

	status, _ = h.do(t, http.MethodGet, "/api/v1/jobs/j1", assistant, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = h.do(t, http.MethodGet, "/api/v1/jobs/j1", "", "")
	require.Equal(t, http.StatusUnauthorized, status)

	status, raw := h.do(t, http.MethodPost, "/api/v1/jobs/j1/cancel", h.token(t, "m", kernel.RoleMaster), "")
	require.Equal(t, http.StatusBadRequest, status, string(raw))
}
