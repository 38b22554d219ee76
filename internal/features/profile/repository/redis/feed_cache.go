package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"bandscope-backend/internal/features/profile/models"
)

const (
	feedKey = "profiles:feed"
	feedTTL = 30 * time.Second
)

// ErrCacheMiss means the snapshot is absent or expired; callers fall back
// to the repository.
var ErrCacheMiss = errors.New("feed cache miss")

// FeedCache holds a short-lived snapshot of the discovery profile list.
// The feed is an immutable snapshot per fetch, so a stale few seconds is
// acceptable; writes to any profile invalidate it.
type FeedCache struct {
	client *redis.Client
}

func NewFeedCache(client *redis.Client) *FeedCache {
	return &FeedCache{client: client}
}

func (c *FeedCache) Get(ctx context.Context) ([]*models.Profile, error) {
	raw, err := c.client.Get(ctx, feedKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var profiles []*models.Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, err
	}
	for _, p := range profiles {
		p.Normalize()
	}
	return profiles, nil
}

func (c *FeedCache) Set(ctx context.Context, profiles []*models.Profile) error {
	raw, err := json.Marshal(profiles)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, feedKey, raw, feedTTL).Err()
}

func (c *FeedCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, feedKey).Err()
}
