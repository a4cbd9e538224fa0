package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforce/internal/models"
)

func TestFollow_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	follower := createUser(t, db, "follower", models.RoleUser)
	target := createUser(t, db, "target", models.RoleUser)
	p := createProject(t, db, "Followed", target.ID)

	edges := []*models.Follow{
		{FollowerID: follower.ID, TargetType: models.TargetPerson, TargetID: target.ID},
		{FollowerID: follower.ID, TargetType: models.TargetProject, TargetID: p.ID},
	}

	for _, f := range edges {
		require.NoError(t, db.Follow(ctx, f))
		require.NoError(t, db.Follow(ctx, f))

		ok, err := db.IsFollowing(ctx, f)
		require.NoError(t, err)
		assert.True(t, ok)

		n, err := db.FollowerCount(ctx, f.TargetType, f.TargetID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	}

	following, err := db.Following(ctx, follower.ID)
	require.NoError(t, err)
	assert.Len(t, following, 2)

	for _, f := range edges {
		require.NoError(t, db.Unfollow(ctx, f))
		require.NoError(t, db.Unfollow(ctx, f))

		ok, err := db.IsFollowing(ctx, f)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestNotifications_MarkRead(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	owner := createUser(t, db, "notified", models.RoleUser)
	other := createUser(t, db, "intruder", models.RoleUser)

	var notes []*models.Notification
	for _, title := range []string{"one", "two"} {
		n := &models.Notification{UserID: owner.ID, Kind: models.NotificationApproved, Title: title}
		require.NoError(t, db.CreateNotification(ctx, n))
		notes = append(notes, n)
	}

	// Marking someone else's notification is a silent no-op
	require.NoError(t, db.MarkNotificationRead(ctx, notes[0].ID, other.ID))
	unread, err := db.UnreadNotificationCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	require.NoError(t, db.MarkNotificationRead(ctx, notes[0].ID, owner.ID))
	unread, err = db.UnreadNotificationCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	require.NoError(t, db.MarkAllNotificationsRead(ctx, owner.ID))
	unread, err = db.UnreadNotificationCount(ctx, owner.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	stats, err := db.HomeStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Members)
	assert.Zero(t, stats.Projects)
}
