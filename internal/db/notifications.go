package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"taskforce/internal/models"
)

// CreateNotification inserts an in-app notification.
func (d *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	err := d.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, kind, title, body, link)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, n.UserID, n.Kind, n.Title, n.Body, n.Link).Scan(&n.ID, &n.CreatedAt)
	return mapConstraint(err)
}

// ListNotifications returns the newest notifications for userID.
func (d *DB) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, user_id, kind, title, body, link, read_at, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[models.Notification])
}

// UnreadNotificationCount returns how many notifications userID has not read.
func (d *DB) UnreadNotificationCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`, userID).Scan(&n)
	return n, err
}

// MarkNotificationRead calls mark_notification_read. Notifications owned by
// someone else are left untouched.
func (d *DB) MarkNotificationRead(ctx context.Context, id, userID uuid.UUID) error {
	_, err := d.Pool.Exec(ctx, `SELECT mark_notification_read($1, $2)`, id, userID)
	return err
}

// MarkAllNotificationsRead calls mark_all_notifications_read.
func (d *DB) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := d.Pool.Exec(ctx, `SELECT mark_all_notifications_read($1)`, userID)
	return err
}
