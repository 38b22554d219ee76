package repository

import (
	"context"

	"github.com/google/uuid"
)

type FollowRepository interface {
	// Insert records the edge; inserting an existing pair is a no-op.
	Insert(ctx context.Context, followerID, followingID uuid.UUID) error
	// Delete removes the edge; deleting a missing pair is a no-op.
	Delete(ctx context.Context, followerID, followingID uuid.UUID) error
	Exists(ctx context.Context, followerID, followingID uuid.UUID) (bool, error)
	CountFollowers(ctx context.Context, profileID uuid.UUID) (int, error)
	CountFollowing(ctx context.Context, profileID uuid.UUID) (int, error)
}
