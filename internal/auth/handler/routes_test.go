package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunabh-a/Colbin-Assignment/internal/auth/service"
	authconstant "github.com/arunabh-a/Colbin-Assignment/pkg/constant"
)

// TestRegisterRoutes verifies that all routes are mounted.
func TestRegisterRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/register"},
		{http.MethodPost, "/api/v1/login"},
		{http.MethodPost, "/api/v1/refresh"},
		{http.MethodPost, "/api/v1/verify"},
		{http.MethodDelete, "/api/v1/session"},
		{http.MethodGet, "/api/v1/me"},
		{http.MethodPut, "/api/v1/me"},
		{http.MethodGet, "/api/v1/admin/users"},
		{http.MethodPatch, "/api/v1/admin/user/some-id/role"},
		{http.MethodGet, "/api/v1/admin/user/some-id/sessions"},
		{http.MethodDelete, "/api/v1/admin/user/some-id/sessions"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s_%s_exists", tc.method, tc.path), func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)

			// A 404 means the route is missing; protected routes answer 401
			// without credentials, which is fine for the existence check.
			assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

// TestRequireAuth exercises the request gate: every failure mode answers the
// same uniform 401.
func TestRequireAuth(t *testing.T) {
	app, _ := newTestApp(t)

	expiredIssuer := service.NewTokenService("handler-test-secret", -time.Minute)
	expiredToken, _, err := expiredIssuer.Issue("user-123", "user")
	require.NoError(t, err)

	forgedIssuer := service.NewTokenService("some-other-secret", 15*time.Minute)
	forgedToken, _, err := forgedIssuer.Issue("user-123", "admin")
	require.NoError(t, err)

	testCases := []struct {
		name  string
		setup func(req *http.Request)
	}{
		{"no credentials", func(*http.Request) {}},
		{"empty bearer", func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer ")
		}},
		{"not a bearer scheme", func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Basic dXNlcjpwYXNz")
		}},
		{"garbage token", func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer not.a.token")
		}},
		{"expired token", func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+expiredToken)
		}},
		{"forged signature", func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+forgedToken)
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			tc.setup(req)

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}

// TestRequireRole checks the admin gate on top of authentication.
func TestRequireRole(t *testing.T) {
	app, _ := newTestApp(t)

	// A regular user's token is authenticated but not authorized.
	userIssuer := service.NewTokenService("handler-test-secret", 15*time.Minute)
	userToken, _, err := userIssuer.Issue("user-123", authconstant.DefaultUserRole)
	require.NoError(t, err)

	adminToken, _, err := userIssuer.Issue("admin-456", authconstant.AdminRole)
	require.NoError(t, err)

	t.Run("user role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+userToken)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin role passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+adminToken)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("admin can revoke a user's sessions", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/user/user-123/sessions", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+adminToken)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}
