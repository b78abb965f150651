package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/brandlens/brandlens/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache + cleanup.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisURL := "redis://" + host + ":" + port.Port()
	rc, err := cache.NewRedisCache(redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, rc.Close()) })

	return rc
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	err := rc.Ping(context.Background())
	assert.NoError(t, err)
}

func TestSetGet_Roundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	err := rc.Set(ctx, "test:key", []byte("hello"), 10*time.Second)
	require.NoError(t, err)

	val, found, err := rc.Get(ctx, "test:key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("hello"), val)
}

func TestGet_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	val, found, err := rc.Get(context.Background(), "nonexistent:key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestDelete_MultipleKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "del:a", []byte("1"), time.Minute))
	require.NoError(t, rc.Set(ctx, "del:b", []byte("2"), time.Minute))

	require.NoError(t, rc.Delete(ctx, "del:a", "del:b"))

	_, found, err := rc.Get(ctx, "del:a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestScan_MatchesPattern(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "resp:entry:aaa", []byte("1"), time.Minute))
	require.NoError(t, rc.Set(ctx, "resp:entry:bbb", []byte("2"), time.Minute))
	require.NoError(t, rc.Set(ctx, "other:key", []byte("3"), time.Minute))

	keys, err := rc.Scan(ctx, "resp:entry:*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"resp:entry:aaa", "resp:entry:bbb"}, keys)
}

func TestIncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	n, err := rc.IncrWithExpiry(ctx, "counter:x", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = rc.IncrWithExpiry(ctx, "counter:x", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestResponseCache_RedisRoundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	respCache := cache.NewResponseCache(rc, time.Hour)
	ctx := context.Background()

	respCache.Set(ctx, "openai", "What is Acme?", "Acme makes anvils.")

	got, hit := respCache.Get(ctx, "openai", "what is acme?")
	require.True(t, hit)
	assert.Equal(t, "Acme makes anvils.", got)

	removed, err := respCache.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
