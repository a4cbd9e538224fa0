// Package follows implements the follow/unfollow toggle between users and
// people, organisations or projects.
package follows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"taskforce/internal/apperr"
	"taskforce/internal/models"
)

// Store is the slice of the data service follows need.
type Store interface {
	Follow(ctx context.Context, f *models.Follow) error
	Unfollow(ctx context.Context, f *models.Follow) error
	IsFollowing(ctx context.Context, f *models.Follow) (bool, error)
	Following(ctx context.Context, userID uuid.UUID) ([]models.Follow, error)
	FollowerCount(ctx context.Context, t models.TargetType, id uuid.UUID) (int64, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// Service manages follow edges.
type Service struct {
	store Store
}

// NewService creates a follows service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Edge builds a follow edge for user from raw request values.
func Edge(user *models.User, targetType, targetID string) (*models.Follow, error) {
	if user == nil {
		return nil, apperr.ErrUnauthenticated
	}
	t := models.TargetType(targetType)
	if !t.Valid() {
		return nil, apperr.Invalid("targetType", "must be one of person, org, project")
	}
	id, err := uuid.Parse(targetID)
	if err != nil {
		return nil, apperr.Invalid("targetId", "must be a valid UUID")
	}
	return &models.Follow{FollowerID: user.ID, TargetType: t, TargetID: id}, nil
}

// Follow creates the edge. Following twice is a no-op.
func (s *Service) Follow(ctx context.Context, user *models.User, targetType, targetID string) error {
	f, err := Edge(user, targetType, targetID)
	if err != nil {
		return err
	}
	already, err := s.store.IsFollowing(ctx, f)
	if err != nil {
		return fmt.Errorf("check follow: %w", err)
	}
	if err := s.store.Follow(ctx, f); err != nil {
		return err
	}
	if !already {
		s.notifyFollowed(ctx, user, f)
	}
	return nil
}

// Unfollow deletes the edge if it exists.
func (s *Service) Unfollow(ctx context.Context, user *models.User, targetType, targetID string) error {
	f, err := Edge(user, targetType, targetID)
	if err != nil {
		return err
	}
	return s.store.Unfollow(ctx, f)
}

// IsFollowing reports whether user follows the target. Anonymous users
// follow nothing.
func (s *Service) IsFollowing(ctx context.Context, user *models.User, targetType, targetID string) (bool, error) {
	if user == nil {
		return false, nil
	}
	f, err := Edge(user, targetType, targetID)
	if err != nil {
		return false, err
	}
	return s.store.IsFollowing(ctx, f)
}

// Following lists the edges owned by user.
func (s *Service) Following(ctx context.Context, user *models.User) ([]models.Follow, error) {
	if user == nil {
		return nil, apperr.ErrUnauthenticated
	}
	return s.store.Following(ctx, user.ID)
}

// FollowerCount returns how many users follow the target.
func (s *Service) FollowerCount(ctx context.Context, targetType, targetID string) (int64, error) {
	t := models.TargetType(targetType)
	if !t.Valid() {
		return 0, apperr.Invalid("targetType", "must be one of person, org, project")
	}
	id, err := uuid.Parse(targetID)
	if err != nil {
		return 0, apperr.Invalid("targetId", "must be a valid UUID")
	}
	return s.store.FollowerCount(ctx, t, id)
}

// notifyFollowed tells a followed person about their new follower.
func (s *Service) notifyFollowed(ctx context.Context, user *models.User, f *models.Follow) {
	if f.TargetType != models.TargetPerson || f.TargetID == user.ID {
		return
	}
	n := &models.Notification{
		UserID: f.TargetID,
		Kind:   models.NotificationFollowed,
		Title:  user.DisplayName() + " started following you",
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		slog.Warn("failed to create follow notification", "follower", user.ID, "target", f.TargetID, "error", err)
	}
}
