package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Taistois/mims/internal/core/domain"
	"github.com/Taistois/mims/internal/core/services"
	"github.com/Taistois/mims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuth map[string]*domain.Actor

func (s stubAuth) Authenticate(token string) (*domain.Actor, error) {
	if token == "expired" {
		return nil, services.ErrTokenExpired
	}
	if a, ok := s[token]; ok {
		return a, nil
	}
	return nil, services.ErrInvalidToken
}

func newTestApp() *fiber.App {
	auth := stubAuth{
		"admin":  {UserID: 1, Name: "Admin", Role: domain.RoleAdmin},
		"staff":  {UserID: 2, Name: "Staff", Role: domain.RoleInsuranceStaff},
		"member": {UserID: 3, Name: "Alice", Role: domain.RoleMember},
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	whoami := func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": ActorFrom(c).UserID, "local": c.Locals("userID")})
	}
	app.Get("/me", AuthMiddleware(auth), whoami)
	app.Get("/admin", AuthMiddleware(auth), AdminOnly(), whoami)
	app.Get("/staff", AuthMiddleware(auth), StaffOnly(), whoami)
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("disk on fire") })
	return app
}

func request(t *testing.T, app *fiber.App, path string, setup func(*http.Request)) (*http.Response, response.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if setup != nil {
		setup(req)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body response.Response
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set(fiber.HeaderAuthorization, "Bearer "+token) }
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name    string
		setup   func(*http.Request)
		status  int
		message string
	}{
		{"missing", nil, fiber.StatusUnauthorized, "Access token required"},
		{"invalid", bearer("nope"), fiber.StatusUnauthorized, "Invalid access token"},
		{"expired", bearer("expired"), fiber.StatusUnauthorized, "Access token expired"},
		{"bearer", bearer("member"), fiber.StatusOK, ""},
		{"cookie", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "access_token", Value: "staff"})
		}, fiber.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := request(t, app, "/me", tt.setup)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.message != "" {
				assert.Equal(t, tt.message, body.Error)
			}
		})
	}
}

func TestActorIsExposedToHandlers(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer member")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var got struct {
		UserID uint `json:"user_id"`
		Local  uint `json:"local"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.EqualValues(t, 3, got.UserID)
	assert.EqualValues(t, 3, got.Local)
}

func TestRoleMiddleware(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		path, token string
		status      int
	}{
		{"/admin", "admin", fiber.StatusOK},
		{"/admin", "staff", fiber.StatusForbidden},
		{"/admin", "member", fiber.StatusForbidden},
		{"/staff", "admin", fiber.StatusOK},
		{"/staff", "staff", fiber.StatusOK},
		{"/staff", "member", fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.path+"/"+tt.token, func(t *testing.T) {
			resp, _ := request(t, app, tt.path, bearer(tt.token))
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := newTestApp()

	resp, body := request(t, app, "/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body.Code)

	resp, body = request(t, app, "/boom", nil)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, domain.ErrUnexpected.Message, body.Error)
	assert.NotContains(t, body.Error, "disk")
}

func TestCacheHeaders(t *testing.T) {
	app := fiber.New()
	app.Get("/private", NoStore(), func(c *fiber.Ctx) error { return c.SendString("secret") })
	app.Get("/report", PrivateCache(time.Minute), func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/report-fail", PrivateCache(time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusForbidden)
	})

	resp, _ := request(t, app, "/private", nil)
	assert.Equal(t, "no-store, no-cache, must-revalidate", resp.Header.Get(fiber.HeaderCacheControl))
	assert.Equal(t, "no-cache", resp.Header.Get(fiber.HeaderPragma))

	resp, _ = request(t, app, "/report", nil)
	assert.Equal(t, "private, max-age=60", resp.Header.Get(fiber.HeaderCacheControl))

	resp, _ = request(t, app, "/report-fail", nil)
	assert.Empty(t, resp.Header.Get(fiber.HeaderCacheControl))
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, "validation", codeForStatus(fiber.StatusBadRequest))
	assert.Equal(t, "unauthenticated", codeForStatus(fiber.StatusUnauthorized))
	assert.Equal(t, "transient", codeForStatus(fiber.StatusServiceUnavailable))
	assert.Equal(t, "unexpected", codeForStatus(fiber.StatusBadGateway))
	assert.Equal(t, "error", codeForStatus(fiber.StatusTooManyRequests))
}
