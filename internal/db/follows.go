package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskforce/internal/models"
)

func followColumn(t models.TargetType) (string, error) {
	switch t {
	case models.TargetPerson:
		return "target_person_id", nil
	case models.TargetOrg:
		return "target_org_id", nil
	case models.TargetProject:
		return "target_project_id", nil
	}
	return "", fmt.Errorf("unknown follow target type %q", t)
}

// Follow inserts a follow edge. Following an already-followed target is a
// no-op.
func (d *DB) Follow(ctx context.Context, f *models.Follow) error {
	col, err := followColumn(f.TargetType)
	if err != nil {
		return err
	}
	_, err = d.Pool.Exec(ctx, `
		INSERT INTO follows (follower_user_id, target_type, `+col+`)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, f.FollowerID, string(f.TargetType), f.TargetID)
	return mapConstraint(err)
}

// Unfollow deletes a follow edge if it exists.
func (d *DB) Unfollow(ctx context.Context, f *models.Follow) error {
	col, err := followColumn(f.TargetType)
	if err != nil {
		return err
	}
	_, err = d.Pool.Exec(ctx, `
		DELETE FROM follows
		WHERE follower_user_id = $1 AND target_type = $2 AND `+col+` = $3
	`, f.FollowerID, string(f.TargetType), f.TargetID)
	return err
}

// IsFollowing reports whether the edge exists.
func (d *DB) IsFollowing(ctx context.Context, f *models.Follow) (bool, error) {
	col, err := followColumn(f.TargetType)
	if err != nil {
		return false, err
	}
	var ok bool
	err = d.Pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM follows
			WHERE follower_user_id = $1 AND target_type = $2 AND `+col+` = $3
		)
	`, f.FollowerID, string(f.TargetType), f.TargetID).Scan(&ok)
	return ok, err
}

// FollowerCount returns how many users follow a target.
func (d *DB) FollowerCount(ctx context.Context, t models.TargetType, id uuid.UUID) (int64, error) {
	col, err := followColumn(t)
	if err != nil {
		return 0, err
	}
	var n int64
	err = d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM follows WHERE target_type = $1 AND `+col+` = $2`, string(t), id).Scan(&n)
	return n, err
}

// Following lists every edge owned by userID, newest first.
func (d *DB) Following(ctx context.Context, userID uuid.UUID) ([]models.Follow, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT follower_user_id, target_type,
			COALESCE(target_person_id, target_org_id, target_project_id), created_at
		FROM follows
		WHERE follower_user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.Follow])
}
