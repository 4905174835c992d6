package userapi

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

	"github.com/Abraxas-365/hireflow/pkg/config"
	"github.com/Abraxas-365/hireflow/pkg/fiberx"
	"github.com/Abraxas-365/hireflow/pkg/iam/auth"
	"github.com/Abraxas-365/hireflow/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/hireflow/pkg/iam/scopes"
	"github.com/Abraxas-365/hireflow/pkg/iam/user"
	"github.com/Abraxas-365/hireflow/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/hireflow/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

func setup(t *testing.T) (*fiber.App, func(kernel.Role) string) {
	t.Helper()
	tokens := auth.NewJWTServiceFromConfig(&config.JWTConfig{
		SecretKey:      "0123456789abcdef0123456789abcdef",
		AccessTokenTTL: time.Hour,
		Issuer:         "hireflow",
		Audience:       []string{"hireflow-api"},
	})
	svc := usersrv.NewUserService(userinfra.NewMemoryUserRepository(), authinfra.NewBcryptPasswordService(4))

	app := fiber.New(fiber.Config{ErrorHandler: fiberx.ErrorHandler(false)})
	NewUserHandlers(svc).RegisterRoutes(app.Group("/api/v1"), auth.NewAuthMiddleware(tokens, "access_token"))

	token := func(role kernel.Role) string {
		tok, err := tokens.GenerateAccessToken(&kernel.AuthContext{UserID: "caller", Role: role, Scopes: scopes.ForRole(role)})
		require.NoError(t, err)
		return tok
	}
	return app, token
}

func call(t *testing.T, app *fiber.App, method, path, token, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func TestUserAPI(t *testing.T) {
	app, token := setup(t)
	master := token(kernel.RoleMaster)
	recruiter := token(kernel.RoleRecruiter)

	body := `{"email":"bia@acme.io","name":"Bia","password":"longpassword","role":"RECRUITER"}`
	status, _ := call(t, app, http.MethodPost, "/api/v1/users", recruiter, body)
	require.Equal(t, http.StatusForbidden, status)

	status, raw := call(t, app, http.MethodPost, "/api/v1/users", master, body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	require.NotContains(t, string(raw), "password")
	var created user.UserDetailsDTO
	require.NoError(t, json.Unmarshal(raw, &created))
	require.Equal(t, kernel.RoleRecruiter, created.Role)

	status, raw = call(t, app, http.MethodGet, "/api/v1/users/"+created.ID.String(), recruiter, "")
	require.Equal(t, http.StatusOK, status, string(raw))

	status, raw = call(t, app, http.MethodGet, "/api/v1/users", recruiter, "")
	require.Equal(t, http.StatusOK, status)
	var list user.UserListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Equal(t, 1, list.Total)

	status, _ = call(t, app, http.MethodGet, "/api/v1/users/ghost", recruiter, "")
	require.Equal(t, http.StatusNotFound, status)
}

func TestUserAPI_ListScopes(t *testing.T) {
	app, token := setup(t)
	recruiter := token(kernel.RoleRecruiter)

	status, raw := call(t, app, http.MethodGet, "/api/v1/users/scopes", recruiter, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	var catalog struct {
		Scopes []scopes.ScopeInfo `json:"scopes"`
	}
	require.NoError(t, json.Unmarshal(raw, &catalog))
	require.Len(t, catalog.Scopes, len(scopes.GetAllScopes()))

	status, raw = call(t, app, http.MethodGet, "/api/v1/users/scopes?role=HR_ASSISTANT", recruiter, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	var template struct {
		Role   kernel.Role        `json:"role"`
		Scopes []scopes.ScopeInfo `json:"scopes"`
	}
	require.NoError(t, json.Unmarshal(raw, &template))
	require.Equal(t, kernel.RoleHRAssistant, template.Role)
	granted := make([]string, 0, len(template.Scopes))
	for _, info := range template.Scopes {
		granted = append(granted, info.Scope)
		require.NotEqual(t, "No description available", info.Description)
	}
	require.Contains(t, granted, scopes.ScopeJobsRead)
	require.NotContains(t, granted, scopes.ScopeReportsExport)

	status, _ = call(t, app, http.MethodGet, "/api/v1/users/scopes?role=ADMIN", recruiter, "")
	require.Equal(t, http.StatusBadRequest, status)
}
