package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskforce/internal/models"
)

const userCols = `id, sub, email, name, picture, role, bio, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Sub, &u.Email, &u.Name, &u.Picture, &u.Role, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UpsertUser creates or updates a user based on their OIDC subject. The role
// is only applied on insert; later logins never overwrite it.
func (d *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (sub, email, name, picture, role)
		VALUES ($1, $2, $3, $4, COALESCE($5, 'user'))
		ON CONFLICT (sub) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			picture = EXCLUDED.picture,
			updated_at = NOW()
		RETURNING id, role, bio, created_at, updated_at
	`

	return d.Pool.QueryRow(ctx, query,
		user.Sub,
		user.Email,
		user.Name,
		user.Picture,
		nullIfEmpty(user.Role),
	).Scan(&user.ID, &user.Role, &user.Bio, &user.CreatedAt, &user.UpdatedAt)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetUserBySub retrieves a user by their OIDC subject identifier.
func (d *DB) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	return scanUser(d.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE sub = $1`, sub))
}

// GetUserByID retrieves a user by their UUID.
func (d *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(d.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

// UpdateUserRole updates a user's role (superadmin only).
func (d *DB) UpdateUserRole(ctx context.Context, userID uuid.UUID, role string) error {
	tag, err := d.Pool.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, role, userID)
	if err != nil {
		return mapConstraint(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserProfile updates the editable profile fields.
func (d *DB) UpdateUserProfile(ctx context.Context, userID uuid.UUID, name, bio string) error {
	tag, err := d.Pool.Exec(ctx, `UPDATE users SET name = $1, bio = $2, updated_at = NOW() WHERE id = $3`, name, bio, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns every user ordered by name.
func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := d.Pool.Query(ctx, `SELECT `+userCols+` FROM users ORDER BY name ASC, email ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.User])
}

// AdminEmails returns email addresses of admins and superadmins.
func (d *DB) AdminEmails(ctx context.Context) ([]string, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT DISTINCT email FROM users
		WHERE email != '' AND role IN ('admin', 'superadmin')
		ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
