package db

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforce/internal/apperr"
	"taskforce/internal/models"
)

func TestUpsertUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	u := &models.User{Sub: "oidc|amara", Email: "amara@example.org", Name: "Amara"}
	require.NoError(t, db.UpsertUser(ctx, u))
	require.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, models.RoleUser, u.Role, "role defaults to user")
	firstID := u.ID

	// A second login refreshes the profile but keeps the row
	again := &models.User{Sub: "oidc|amara", Email: "amara@coop.example.org", Name: "Amara O."}
	require.NoError(t, db.UpsertUser(ctx, again))
	assert.Equal(t, firstID, again.ID)

	got, err := db.GetUserBySub(ctx, "oidc|amara")
	require.NoError(t, err)
	assert.Equal(t, "amara@coop.example.org", got.Email)
	assert.Equal(t, "Amara O.", got.Name)
}

func TestUpsertUser_KeepsRole(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	u := &models.User{Sub: "oidc|reviewer", Email: "reviewer@example.org"}
	require.NoError(t, db.UpsertUser(ctx, u))
	require.NoError(t, db.UpdateUserRole(ctx, u.ID, models.RoleAdmin))

	// Signing in again must not demote an admin
	relogin := &models.User{Sub: "oidc|reviewer", Email: "reviewer@example.org", Role: models.RoleUser}
	require.NoError(t, db.UpsertUser(ctx, relogin))
	assert.Equal(t, models.RoleAdmin, relogin.Role)
}

func TestGetUser_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := db.GetUserBySub(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = db.GetUserByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateUserRole(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	u := &models.User{Sub: "oidc|role", Email: "role@example.org"}
	require.NoError(t, db.UpsertUser(ctx, u))

	require.NoError(t, db.UpdateUserRole(ctx, u.ID, models.RoleSuperadmin))
	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperadmin, got.Role)

	assert.ErrorIs(t, db.UpdateUserRole(ctx, uuid.New(), models.RoleAdmin), ErrUserNotFound)

	var ce *apperr.ConstraintError
	assert.ErrorAs(t, db.UpdateUserRole(ctx, u.ID, "overlord"), &ce, "role check constraint")
}

func TestUpdateUserProfile(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	u := &models.User{Sub: "oidc|bio", Email: "bio@example.org", Name: "Before"}
	require.NoError(t, db.UpsertUser(ctx, u))
	require.NoError(t, db.UpdateUserProfile(ctx, u.ID, "After", "Retrofits rooftops"))

	got, err := db.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, "Retrofits rooftops", got.Bio)

	assert.ErrorIs(t, db.UpdateUserProfile(ctx, uuid.New(), "x", ""), ErrUserNotFound)
}

func TestListUsersAndAdminEmails(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for _, u := range []*models.User{
		{Sub: "admin-1", Email: "a@example.org", Name: "Ada", Role: models.RoleAdmin},
		{Sub: "super-1", Email: "s@example.org", Name: "Sol", Role: models.RoleSuperadmin},
		{Sub: "user-1", Email: "u@example.org", Name: "Uma", Role: models.RoleUser},
		{Sub: "admin-2", Name: "Bo", Role: models.RoleAdmin},
	} {
		require.NoError(t, db.UpsertUser(ctx, u))
	}

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)
	assert.Equal(t, "Ada", users[0].Name)
	assert.Equal(t, "Uma", users[3].Name)

	// Admins without an address are skipped
	emails, err := db.AdminEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.org", "s@example.org"}, emails)
}
