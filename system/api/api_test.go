package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexuscore/nexus/internal/security"
	"github.com/nexuscore/nexus/system/api"
	"github.com/nexuscore/nexus/system/bootstrap"
	"github.com/nexuscore/nexus/system/core"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestRouter(t *testing.T) (http.Handler, *core.Engine) {
	t.Helper()
	t.Setenv("NEXUS_SECURITY_JWT_SECRET", "api-test-secret")
	t.Setenv("NEXUS_LOGGING_FILE_ENABLED", "false")

	engine, err := bootstrap.Wire(bootstrap.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Facility.Shutdown(context.Background()) })

	return api.New(engine).Router(), engine
}

func obtainToken(t *testing.T, router http.Handler, username, password string) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token",
		strings.NewReader("username="+username+"&password="+password))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var result struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.AccessToken)
	return result.AccessToken
}

func TestHealthAndRoot(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"healthy":true`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"name"`)
}

func TestMissingTokenIsUniform401(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestAdminCanListUsersWithoutLeakingHashes(t *testing.T) {
	router, _ := newTestRouter(t)
	token := obtainToken(t, router, "admin", "Admin123!")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"username":"admin"`)
	require.NotContains(t, strings.ToLower(rec.Body.String()), "hashed_password")
	require.NotContains(t, rec.Body.String(), "$2a$")
}

func TestForbiddenNamesMissingPermission(t *testing.T) {
	router, engine := newTestRouter(t)

	_, err := engine.Security.Service().CreateUser(security.CreateUserInput{
		Username: "watcher",
		Email:    "watcher@example.com",
		Password: "Watch3r$pass",
		Roles:    []security.Role{security.RoleViewer},
	})
	require.NoError(t, err)
	token := obtainToken(t, router, "watcher", "Watch3r$pass")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "users.view")
}

func TestRevokedTokenRejected(t *testing.T) {
	router, _ := newTestRouter(t)
	token := obtainToken(t, router, "admin", "Admin123!")

	body := strings.NewReader(`{"token":"` + token + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/revoke", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
