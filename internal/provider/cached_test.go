package provider_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brandlens/brandlens/internal/cache"
	"github.com/brandlens/brandlens/internal/provider"
	"github.com/brandlens/brandlens/internal/provider/mock"
	"github.com/brandlens/brandlens/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is a minimal in-memory cache.Cache for wrapper tests.
type memCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	counters map[string]int64
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, counters: map[string]int64{}}
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memCache) Scan(context.Context, string) ([]string, error) { return nil, nil }

func (m *memCache) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memCache) IncrWithExpiry(ctx context.Context, key string, _ time.Duration) (int64, error) {
	return m.Incr(ctx, key)
}

func (m *memCache) Ping(context.Context) error { return nil }

var _ cache.Cache = (*memCache)(nil)

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Timeout:      5 * time.Second,
	}
}

func TestCached_SecondQueryServedFromCache(t *testing.T) {
	rc := cache.NewResponseCache(newMemCache(), time.Hour)
	inner := mock.NewMockProvider("openai", "Acme is great")
	wrapped := provider.Wrap(inner, rc, fastRetry())
	ctx := context.Background()

	first, err := wrapped.Query(ctx, "What is Acme?")
	require.NoError(t, err)
	assert.Equal(t, "Acme is great", first)
	assert.Equal(t, 1, inner.Calls())

	second, err := wrapped.Query(ctx, "What is Acme?")
	require.NoError(t, err)
	assert.Equal(t, "Acme is great", second)
	assert.Equal(t, 1, inner.Calls(), "cache hit must not reach the provider")
}

func TestCached_EmptyAnswerIsRetried(t *testing.T) {
	rc := cache.NewResponseCache(newMemCache(), time.Hour)
	calls := 0
	inner := &mock.MockProvider{
		Name_: "openai",
		QueryFunc: func(_ context.Context, _ string) (string, error) {
			calls++
			if calls < 2 {
				return "", provider.ErrEmptyAnswer
			}
			return "recovered", nil
		},
	}
	wrapped := provider.Wrap(inner, rc, fastRetry())

	answer, err := wrapped.Query(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "recovered", answer)
	assert.Equal(t, 2, calls)
}

func TestCached_AuthFailureNotRetried(t *testing.T) {
	rc := cache.NewResponseCache(newMemCache(), time.Hour)
	inner := mock.NewAuthFailingProvider("openai")
	wrapped := provider.Wrap(inner, rc, fastRetry())

	_, err := wrapped.Query(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrAuthFailure)
	assert.Equal(t, 1, inner.Calls(), "auth failure attempts exactly once")
}

func TestCached_FailureNotCached(t *testing.T) {
	rc := cache.NewResponseCache(newMemCache(), time.Hour)
	inner := mock.NewFailingProvider("openai", errors.New("boom"))
	wrapped := provider.Wrap(inner, rc, fastRetry())
	ctx := context.Background()

	_, err := wrapped.Query(ctx, "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrExhausted)

	before := inner.Calls()
	_, err = wrapped.Query(ctx, "q")
	require.Error(t, err)
	assert.Greater(t, inner.Calls(), before, "failures must not be served from cache")
}

func TestRegistry_Filter(t *testing.T) {
	r := &provider.Registry{}
	r.Add(mock.NewMockProvider("openai", "a"))
	r.Add(mock.NewMockProvider("anthropic", "b"))
	r.Add(mock.NewMockProvider("gemini", "c"))

	filtered := r.Filter([]string{"Anthropic", "gemini", "unknown"})
	names := make([]string, 0, len(filtered))
	for _, p := range filtered {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"anthropic", "gemini"}, names)

	assert.Len(t, r.Filter(nil), 3, "empty whitelist selects all")
}
