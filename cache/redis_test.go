package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Scopes []string `json:"scopes"`
}

func setupRedisCache(t *testing.T) (*Redis[*payload], *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis[*payload](client, WithRedisTTL(time.Minute)), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := setupRedisCache(t)

	_, ok := c.Get(ctx, "role_a")
	assert.False(t, ok)

	c.Set(ctx, "role_a", &payload{Scopes: []string{"read"}})
	got, ok := c.Get(ctx, "role_a")
	require.True(t, ok)
	assert.Equal(t, []string{"read"}, got.Scopes)
}

func TestRedisCacheTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	c.Set(ctx, "role_a", &payload{})
	mr.FastForward(time.Minute + time.Second)

	_, ok := c.Get(ctx, "role_a")
	assert.False(t, ok)
}

func TestRedisCacheInvalidateByRole(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)

	ab := Key([]string{"role_a", "role_b"})
	cOnly := Key([]string{"role_c"})
	c.Set(ctx, ab, &payload{})
	c.Set(ctx, cOnly, &payload{})

	c.Invalidate(ctx, []string{"role_b"})

	_, ok := c.Get(ctx, ab)
	assert.False(t, ok, "entry containing role_b should be gone")
	_, ok = c.Get(ctx, cOnly)
	assert.True(t, ok, "unrelated entry should survive")
	assert.False(t, mr.Exists(DefaultRedisPrefix+"role:role_b"), "index set should be removed")
}

func TestRedisCacheInvalidateAll(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)
	require.NoError(t, mr.Set("unrelated", "keep"))

	c.Set(ctx, "role_a", &payload{})
	c.Set(ctx, "role_b", &payload{})
	c.Invalidate(ctx, nil)

	_, ok := c.Get(ctx, "role_a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "role_b")
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated"), "keys outside the prefix must survive")
}

func TestRedisCacheCorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := setupRedisCache(t)
	require.NoError(t, mr.Set(DefaultRedisPrefix+"rp:role_a", "{not json"))

	_, ok := c.Get(ctx, "role_a")
	assert.False(t, ok)
	assert.False(t, mr.Exists(DefaultRedisPrefix+"rp:role_a"))
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := DialRedis[*payload](context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	_, err = DialRedis[*payload](context.Background(), "not a url")
	assert.Error(t, err)
}
