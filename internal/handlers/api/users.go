package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/middleware"
	"taskforce/internal/models"
)

// UserStore is the slice of the data service user management needs.
type UserStore interface {
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	IsSuperadmin(ctx context.Context, userID uuid.UUID) (bool, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, name, bio string) error
}

// UserHandler handles user management and API tokens via JSON API.
type UserHandler struct {
	store  UserStore
	tokens *middleware.TokenManager
}

// NewUserHandler creates a new API user handler.
func NewUserHandler(store UserStore, tokens *middleware.TokenManager) *UserHandler {
	return &UserHandler{store: store, tokens: tokens}
}

// Me returns the signed-in user.
func (h *UserHandler) Me(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(c, apperr.ErrUnauthenticated)
	}
	return jsonSuccess(c, user)
}

// UpdateProfile handles PUT /api/me.
func (h *UserHandler) UpdateProfile(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(c, apperr.ErrUnauthenticated)
	}
	var body struct {
		Name string `json:"name"`
		Bio  string `json:"bio"`
	}
	if err := decode(c, &body); err != nil {
		return fail(c, err)
	}
	if len(body.Name) > 200 {
		return fail(c, apperr.Invalid("name", "must be at most 200 characters"))
	}
	if len(body.Bio) > 2000 {
		return fail(c, apperr.Invalid("bio", "must be at most 2000 characters"))
	}
	if err := h.store.UpdateUserProfile(c.Context(), user.ID, body.Name, body.Bio); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.Map{"message": "profile updated"})
}

// IssueToken handles POST /api/tokens, returning a bearer token for the
// signed-in user.
func (h *UserHandler) IssueToken(c fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return fail(c, apperr.ErrUnauthenticated)
	}
	if !h.tokens.Enabled() {
		return jsonError(c, fiber.StatusNotImplemented, "bearer tokens are not configured")
	}
	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.Map{"token": token, "token_type": "Bearer"})
}

// List returns all users (admin only).
func (h *UserHandler) List(c fiber.Ctx) error {
	if err := h.require(c, h.store.IsAdmin); err != nil {
		return fail(c, err)
	}
	users, err := h.store.ListUsers(c.Context())
	if err != nil {
		return fail(c, err)
	}
	if users == nil {
		users = []models.User{}
	}
	return jsonSuccess(c, users)
}

// UpdateRole updates a user's role (superadmin only).
func (h *UserHandler) UpdateRole(c fiber.Ctx) error {
	if err := h.require(c, h.store.IsSuperadmin); err != nil {
		return fail(c, err)
	}
	currentUser := middleware.CurrentUser(c)

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, apperr.Invalid("id", "must be a valid UUID"))
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := decode(c, &body); err != nil {
		return fail(c, err)
	}

	validRoles := map[string]bool{
		models.RoleUser:       true,
		models.RoleAdmin:      true,
		models.RoleSuperadmin: true,
	}
	if !validRoles[body.Role] {
		return fail(c, apperr.Invalid("role", "must be one of user, admin, superadmin"))
	}
	if userID == currentUser.ID && body.Role != models.RoleSuperadmin {
		return jsonError(c, fiber.StatusBadRequest, "cannot change your own role")
	}

	if err := h.store.UpdateUserRole(c.Context(), userID, body.Role); err != nil {
		return fail(c, err)
	}
	return jsonSuccess(c, fiber.Map{"message": "role updated successfully"})
}

// require runs a capability check for the current user.
func (h *UserHandler) require(c fiber.Ctx, check func(context.Context, uuid.UUID) (bool, error)) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return apperr.ErrUnauthenticated
	}
	ok, err := check(c.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("capability check: %w", err)
	}
	if !ok {
		return apperr.ErrForbidden
	}
	return nil
}
