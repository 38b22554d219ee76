package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandscope-backend/internal/features/follow/repository"
)

type pair struct{ follower, following uuid.UUID }

type fakeFollowRepo struct {
	edges map[pair]bool
}

var _ repository.FollowRepository = (*fakeFollowRepo)(nil)

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{edges: map[pair]bool{}}
}

func (r *fakeFollowRepo) Insert(ctx context.Context, followerID, followingID uuid.UUID) error {
	r.edges[pair{followerID, followingID}] = true
	return nil
}

func (r *fakeFollowRepo) Delete(ctx context.Context, followerID, followingID uuid.UUID) error {
	delete(r.edges, pair{followerID, followingID})
	return nil
}

func (r *fakeFollowRepo) Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error) {
	return r.edges[pair{followerID, followingID}], nil
}

func (r *fakeFollowRepo) CountFollowers(ctx context.Context, profileID uuid.UUID) (int, error) {
	n := 0
	for p := range r.edges {
		if p.following == profileID {
			n++
		}
	}
	return n, nil
}

func (r *fakeFollowRepo) CountFollowing(ctx context.Context, profileID uuid.UUID) (int, error) {
	n := 0
	for p := range r.edges {
		if p.follower == profileID {
			n++
		}
	}
	return n, nil
}

func TestFollowIsIdempotent(t *testing.T) {
	repo := newFakeFollowRepo()
	svc := NewFollowService(repo)
	a, b := uuid.New(), uuid.New()

	require.NoError(t, svc.Follow(context.Background(), a, b))
	require.NoError(t, svc.Follow(context.Background(), a, b))

	status, err := svc.Status(context.Background(), a, b)
	require.NoError(t, err)
	assert.True(t, status.Following)
	assert.Equal(t, 1, status.FollowerCount, "a pair has no multiplicity")
}

func TestFollowRejectsSelf(t *testing.T) {
	svc := NewFollowService(newFakeFollowRepo())
	id := uuid.New()
	assert.ErrorIs(t, svc.Follow(context.Background(), id, id), ErrSelfFollow)
}

func TestUnfollowMissingEdgeIsNoOp(t *testing.T) {
	repo := newFakeFollowRepo()
	svc := NewFollowService(repo)
	a, b := uuid.New(), uuid.New()

	require.NoError(t, svc.Unfollow(context.Background(), a, b))

	require.NoError(t, svc.Follow(context.Background(), a, b))
	require.NoError(t, svc.Unfollow(context.Background(), a, b))
	status, err := svc.Status(context.Background(), a, b)
	require.NoError(t, err)
	assert.False(t, status.Following)
}
