package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds
const (
	NotificationApproved = "moderation_approved"
	NotificationRejected = "moderation_rejected"
	NotificationReset    = "moderation_reset"
	NotificationFollowed = "followed"
)

// Notification is an in-app message for a user.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Link      string     `json:"link"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// HomeStats holds the counters shown on the landing page.
type HomeStats struct {
	Projects      int64 `json:"projects"`
	Organisations int64 `json:"organisations"`
	Grants        int64 `json:"grants"`
	Issues        int64 `json:"issues"`
	Members       int64 `json:"members"`
}
