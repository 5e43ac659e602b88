package presence

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string)    {}
func (nopLogger) Warning(string) {}
func (nopLogger) Error(string)   {}

// newTestPresence connects to the Redis named by REDIS_TEST_ADDR.
func newTestPresence(t *testing.T) *RedisPresence {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisPresence(client, 60, nopLogger{})
}

func TestRedisPresence(t *testing.T) {
	rp := newTestPresence(t)
	ctx := context.Background()

	t.Run("last player leaving drops the channel", func(t *testing.T) {
		code := uuid.NewString()
		p1, p2 := uuid.New(), uuid.New()
		t.Cleanup(func() { _ = rp.Clear(ctx, code) })

		first, err := rp.Register(ctx, code, p1)
		require.NoError(t, err)
		assert.True(t, first)
		first, err = rp.Register(ctx, code, p2)
		require.NoError(t, err)
		assert.True(t, first)

		players, err := rp.Players(ctx, code)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{p1, p2}, players)

		removed, err := rp.Remove(ctx, code, p1)
		require.NoError(t, err)
		assert.True(t, removed)

		exists, err := rp.Exists(ctx, code)
		require.NoError(t, err)
		assert.True(t, exists)

		removed, err = rp.Remove(ctx, code, p2)
		require.NoError(t, err)
		assert.True(t, removed)

		exists, err = rp.Exists(ctx, code)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("removing an absent player reports false", func(t *testing.T) {
		removed, err := rp.Remove(ctx, uuid.NewString(), uuid.New())
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("stale disconnect keeps a reconnected player", func(t *testing.T) {
		code := uuid.NewString()
		player := uuid.New()
		t.Cleanup(func() { _ = rp.Clear(ctx, code) })

		_, err := rp.Register(ctx, code, player)
		require.NoError(t, err)
		first, err := rp.Register(ctx, code, player)
		require.NoError(t, err)
		assert.False(t, first)

		removed, err := rp.Remove(ctx, code, player)
		require.NoError(t, err)
		assert.False(t, removed)

		exists, err := rp.Exists(ctx, code)
		require.NoError(t, err)
		assert.True(t, exists)

		removed, err = rp.Remove(ctx, code, player)
		require.NoError(t, err)
		assert.True(t, removed)

		exists, err = rp.Exists(ctx, code)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("clear forgets everybody", func(t *testing.T) {
		code := uuid.NewString()
		_, err := rp.Register(ctx, code, uuid.New())
		require.NoError(t, err)
		require.NoError(t, rp.Clear(ctx, code))

		players, err := rp.Players(ctx, code)
		require.NoError(t, err)
		assert.Empty(t, players)
	})
}
