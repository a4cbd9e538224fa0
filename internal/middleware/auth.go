package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"
	"github.com/google/uuid"

	"taskforce/internal/models"
)

// UserStore looks up signed-in users.
type UserStore interface {
	GetUserBySub(ctx context.Context, sub string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthMiddleware authenticates requests from the OIDC session cookie or an
// API bearer token.
type AuthMiddleware struct {
	users  UserStore
	tokens *TokenManager
}

// NewAuthMiddleware creates a new auth middleware instance. tokens may be
// nil to accept sessions only.
func NewAuthMiddleware(users UserStore, tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{users: users, tokens: tokens}
}

// CurrentUser returns the user loaded for this request, or nil.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

// load resolves the user and stores it in Locals. A bearer token takes
// precedence over the session.
func (m *AuthMiddleware) load(c fiber.Ctx) *models.User {
	if raw, ok := bearerToken(c); ok {
		if !m.tokens.Enabled() {
			return nil
		}
		id, err := m.tokens.Parse(raw)
		if err != nil {
			slog.Debug("rejected bearer token", "error", err)
			return nil
		}
		user, err := m.users.GetUserByID(c.Context(), id)
		if err != nil {
			return nil
		}
		c.Locals("user", user)
		return user
	}

	sess := session.FromContext(c)
	if sess == nil {
		return nil
	}
	sub, ok := sess.Get("user_sub").(string)
	if !ok || sub == "" {
		return nil
	}
	user, err := m.users.GetUserBySub(c.Context(), sub)
	if err != nil {
		sess.Destroy()
		return nil
	}
	c.Locals("user", user)
	return user
}

// RequireAuth ensures the user is authenticated, redirecting to /login if not.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	if m.load(c) == nil {
		if sess := session.FromContext(c); sess != nil {
			sess.Set("redirect_after_login", c.OriginalURL())
		}
		return c.Redirect().To("/login")
	}
	return c.Next()
}

// OptionalAuth loads the user if authenticated, but doesn't require authentication.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	m.load(c)
	return c.Next()
}

// RequireAPIAuth answers 401 with the JSON error envelope when no user can
// be loaded.
func (m *AuthMiddleware) RequireAPIAuth(c fiber.Ctx) error {
	if m.load(c) == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status": "error",
			"error":  "authentication required",
		})
	}
	return c.Next()
}

func bearerToken(c fiber.Ctx) (string, bool) {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(h[7:])
	return raw, raw != ""
}
