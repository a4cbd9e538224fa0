package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforce/internal/models"
)

type fakeUsers struct {
	bySub map[string]*models.User
	byID  map[uuid.UUID]*models.User
}

func (f *fakeUsers) GetUserBySub(_ context.Context, sub string) (*models.User, error) {
	if u, ok := f.bySub[sub]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func newUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{bySub: map[string]*models.User{}, byID: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		f.bySub[u.Sub] = u
		f.byID[u.ID] = u
	}
	return f
}

func newApp(m *AuthMiddleware) *fiber.App {
	app := fiber.New()
	sessionMiddleware, _ := session.NewWithStore(session.Config{CookieHTTPOnly: true})
	app.Use(sessionMiddleware)

	app.Post("/login-as/:sub", func(c fiber.Ctx) error {
		session.FromContext(c).Set("user_sub", c.Params("sub"))
		return c.SendString("ok")
	})
	whoami := func(c fiber.Ctx) error {
		if u := CurrentUser(c); u != nil {
			return c.SendString(u.Email)
		}
		return c.SendString("anonymous")
	}
	app.Get("/page", m.RequireAuth, whoami)
	app.Get("/open", m.OptionalAuth, whoami)
	app.Get("/api/me", m.RequireAPIAuth, whoami)
	return app
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestBearerToken(t *testing.T) {
	user := &models.User{ID: uuid.New(), Sub: "ada", Email: "ada@example.org"}
	tokens := NewTokenManager("secret-secret-secret-secret-1234", time.Hour)
	app := newApp(NewAuthMiddleware(newUsers(user), tokens))

	token, err := tokens.Issue(user.ID, models.RoleUser)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid", "Bearer " + token, 200, "ada@example.org"},
		{"lowercase scheme", "bearer " + token, 200, "ada@example.org"},
		{"missing", "", 401, ""},
		{"garbage", "Bearer not-a-jwt", 401, ""},
		{"basic auth", "Basic YWRhOnB3", 401, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest("GET", "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body(t, resp))
			}
		})
	}
}

func TestRequireAuthRedirects(t *testing.T) {
	app := newApp(NewAuthMiddleware(newUsers(), nil))

	resp, err := app.Test(httptestRequest("GET", "/page"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp, err = app.Test(httptestRequest("GET", "/open"))
	require.NoError(t, err)
	assert.Equal(t, "anonymous", body(t, resp))
}

func TestSessionAuth(t *testing.T) {
	user := &models.User{ID: uuid.New(), Sub: "grace", Email: "grace@example.org"}
	app := newApp(NewAuthMiddleware(newUsers(user), nil))

	resp, err := app.Test(httptestRequest("POST", "/login-as/grace"))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req := httptestRequest("GET", "/page")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "grace@example.org", body(t, resp))
}

func TestBearerIgnoredWhenTokensDisabled(t *testing.T) {
	user := &models.User{ID: uuid.New(), Sub: "ada"}
	issuer := NewTokenManager("secret-secret-secret-secret-1234", time.Hour)
	token, err := issuer.Issue(user.ID, "")
	require.NoError(t, err)

	app := newApp(NewAuthMiddleware(newUsers(user), NewTokenManager("", 0)))
	req := httptestRequest("GET", "/api/me")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func httptestRequest(method, target string) *http.Request {
	req, _ := http.NewRequest(method, target, nil)
	return req
}
