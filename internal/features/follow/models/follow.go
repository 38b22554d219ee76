package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed edge between two profiles. Membership is idempotent:
// a pair is either following or not.
type Follow struct {
	FollowerID  uuid.UUID `json:"follower_id"`
	FollowingID uuid.UUID `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// FollowStatus is the per-profile summary returned to the viewer.
type FollowStatus struct {
	Following      bool `json:"following"`
	FollowerCount  int  `json:"follower_count"`
	FollowingCount int  `json:"following_count"`
}
