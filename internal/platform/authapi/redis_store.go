package authapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionCommands is the slice of redis.Client the store needs.
type sessionCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore persists the current session in Redis, keyed per client so
// independent instances do not trample each other.
type RedisStore struct {
	client   sessionCommands
	clientID string
}

func NewRedisStore(client sessionCommands, clientID string) *RedisStore {
	return &RedisStore{client: client, clientID: clientID}
}

func (s *RedisStore) key() string {
	return fmt.Sprintf("auth:session:%s", s.clientID)
}

func (s *RedisStore) Load(ctx context.Context) (*StoredSession, error) {
	raw, err := s.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var sess StoredSession
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *StoredSession) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	// Keep the record around past access-token expiry; the refresh token is
	// what makes a stale session recoverable.
	ttl := time.Until(sess.ExpiresAt) + 30*24*time.Hour
	return s.client.Set(ctx, s.key(), raw, ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key()).Err()
}
