package authapi

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedisCommands struct {
	data       map[string][]byte
	lastSetKey string
	lastSetTTL time.Duration
	deleted    []string
}

func newFakeRedisCommands() *fakeRedisCommands {
	return &fakeRedisCommands{data: map[string][]byte{}}
}

func (f *fakeRedisCommands) Get(ctx context.Context, key string) *redis.StringCmd {
	raw, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(raw), nil)
}

func (f *fakeRedisCommands) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.lastSetKey = key
	f.lastSetTTL = expiration
	switch v := value.(type) {
	case []byte:
		f.data[key] = v
	case string:
		f.data[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedisCommands) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
		f.deleted = append(f.deleted, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisStoreMissingSessionIsNilNotError(t *testing.T) {
	store := NewRedisStore(newFakeRedisCommands(), "web")

	sess, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, sess)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	cmds := newFakeRedisCommands()
	store := NewRedisStore(cmds, "web")

	saved := &StoredSession{
		Session: Session{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
			User:         &User{ID: "11111111-1111-4111-8111-111111111111", Email: "user@example.com"},
		},
		ExpiresAt: time.Now().Add(time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.Save(context.Background(), saved))
	assert.Equal(t, "auth:session:web", cmds.lastSetKey)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "access-1", loaded.AccessToken)
	assert.Equal(t, "refresh-1", loaded.RefreshToken)
	require.NotNil(t, loaded.User)
	assert.Equal(t, "user@example.com", loaded.User.Email)
	assert.True(t, loaded.ExpiresAt.Equal(saved.ExpiresAt))
}

func TestRedisStoreKeepsRecordPastTokenExpiry(t *testing.T) {
	cmds := newFakeRedisCommands()
	store := NewRedisStore(cmds, "web")

	// The access token expires in an hour, but the refresh token keeps the
	// session recoverable long after that.
	require.NoError(t, store.Save(context.Background(), &StoredSession{
		Session:   Session{AccessToken: "access-1", RefreshToken: "refresh-1"},
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	grace := 30 * 24 * time.Hour
	assert.Greater(t, cmds.lastSetTTL, grace)
	assert.LessOrEqual(t, cmds.lastSetTTL, grace+time.Hour)
}

func TestRedisStoreClientsDoNotCollide(t *testing.T) {
	cmds := newFakeRedisCommands()
	web := NewRedisStore(cmds, "web")
	cli := NewRedisStore(cmds, "cli")

	require.NoError(t, web.Save(context.Background(), &StoredSession{
		Session:   Session{AccessToken: "web-access"},
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	fromCli, err := cli.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, fromCli)
}

func TestRedisStoreClear(t *testing.T) {
	cmds := newFakeRedisCommands()
	store := NewRedisStore(cmds, "web")

	require.NoError(t, store.Save(context.Background(), &StoredSession{
		Session:   Session{AccessToken: "access-1"},
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.Clear(context.Background()))

	assert.Contains(t, cmds.deleted, "auth:session:web")
	sess, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, sess)
}
