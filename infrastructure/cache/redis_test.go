package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisCache(t *testing.T) {
	client := newRedisClient(t)
	c := NewRedisCache(client, nil)
	ctx := context.Background()

	_, ok := c.Get(ctx, "status-choices")
	assert.False(t, ok, "miss before set")

	require.NoError(t, c.Set(ctx, "status-choices", []byte("cached"), 60))
	got, ok := c.Get(ctx, "status-choices")
	require.True(t, ok)
	assert.Equal(t, "cached", string(got))

	ttl, err := client.TTL(ctx, "ideabox:status-choices").Result()
	require.NoError(t, err)
	assert.InDelta(t, 60, ttl.Seconds(), 2)

	require.NoError(t, c.Delete(ctx, "status-choices"))
	_, ok = c.Get(ctx, "status-choices")
	assert.False(t, ok)
	assert.NoError(t, c.Health(ctx))
}

func TestRedisCache_ReadFailureIsMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := NewRedisCache(client, nil)

	_, ok := c.Get(context.Background(), "k")

	assert.False(t, ok)
}
