package follows

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskforce/internal/apperr"
	"taskforce/internal/models"
)

type edgeKey struct {
	follower uuid.UUID
	t        models.TargetType
	target   uuid.UUID
}

type fakeStore struct {
	edges         map[edgeKey]bool
	notifications []models.Notification
	calls         int
}

func newFakeStore() *fakeStore {
	return &fakeStore{edges: map[edgeKey]bool{}}
}

func key(f *models.Follow) edgeKey {
	return edgeKey{f.FollowerID, f.TargetType, f.TargetID}
}

func (s *fakeStore) Follow(_ context.Context, f *models.Follow) error {
	s.calls++
	s.edges[key(f)] = true
	return nil
}

func (s *fakeStore) Unfollow(_ context.Context, f *models.Follow) error {
	s.calls++
	delete(s.edges, key(f))
	return nil
}

func (s *fakeStore) IsFollowing(_ context.Context, f *models.Follow) (bool, error) {
	return s.edges[key(f)], nil
}

func (s *fakeStore) Following(_ context.Context, userID uuid.UUID) ([]models.Follow, error) {
	var out []models.Follow
	for k := range s.edges {
		if k.follower == userID {
			out = append(out, models.Follow{FollowerID: k.follower, TargetType: k.t, TargetID: k.target})
		}
	}
	return out, nil
}

func (s *fakeStore) FollowerCount(_ context.Context, t models.TargetType, id uuid.UUID) (int64, error) {
	var n int64
	for k := range s.edges {
		if k.t == t && k.target == id {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.notifications = append(s.notifications, *n)
	return nil
}

func TestFollowIsIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Name: "Ada"}
	target := uuid.NewString()

	require.NoError(t, svc.Follow(ctx, user, "project", target))
	require.NoError(t, svc.Follow(ctx, user, "project", target))
	assert.Len(t, store.edges, 1)

	n, err := svc.FollowerCount(ctx, "project", target)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := svc.IsFollowing(ctx, user, "project", target)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFollowThenUnfollow(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	user := &models.User{ID: uuid.New()}
	target := uuid.NewString()

	require.NoError(t, svc.Follow(ctx, user, "org", target))
	require.NoError(t, svc.Unfollow(ctx, user, "org", target))
	assert.Empty(t, store.edges)

	// unfollowing again is fine
	require.NoError(t, svc.Unfollow(ctx, user, "org", target))

	following, err := svc.Following(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, following)
}

func TestFollowPersonNotifiesOnce(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Name: "Ada"}
	person := uuid.New()

	require.NoError(t, svc.Follow(ctx, user, "person", person.String()))
	require.NoError(t, svc.Follow(ctx, user, "person", person.String()))
	require.Len(t, store.notifications, 1)
	assert.Equal(t, person, store.notifications[0].UserID)
	assert.Equal(t, models.NotificationFollowed, store.notifications[0].Kind)
	assert.Equal(t, "Ada started following you", store.notifications[0].Title)

	// following yourself is allowed but silent
	require.NoError(t, svc.Follow(ctx, user, "person", user.ID.String()))
	assert.Len(t, store.notifications, 1)
}

func TestFollowRejectsBadInput(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		targetType string
		targetID   string
		wantErr    error
		wantField  string
	}{
		{"anonymous", nil, "project", uuid.NewString(), apperr.ErrUnauthenticated, ""},
		{"bad type", &models.User{ID: uuid.New()}, "planet", uuid.NewString(), nil, "targetType"},
		{"bad id", &models.User{ID: uuid.New()}, "project", "42", nil, "targetId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			svc := NewService(store)

			for _, op := range []func(context.Context, *models.User, string, string) error{svc.Follow, svc.Unfollow} {
				err := op(context.Background(), tt.user, tt.targetType, tt.targetID)
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.True(t, errors.Is(err, tt.wantErr))
				} else {
					var verr *apperr.ValidationError
					require.True(t, errors.As(err, &verr))
					assert.True(t, verr.Has(tt.wantField))
				}
			}
			assert.Zero(t, store.calls)
		})
	}
}

func TestIsFollowingAnonymous(t *testing.T) {
	svc := NewService(newFakeStore())
	ok, err := svc.IsFollowing(context.Background(), nil, "project", uuid.NewString())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Following(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
