package provider

import (
	"context"

	"github.com/brandlens/brandlens/internal/cache"
	"github.com/brandlens/brandlens/pkg/models"
	"github.com/brandlens/brandlens/pkg/retry"
)

// Cached wraps a provider with the response cache and the retry executor:
// cache lookup (fast path) → on miss, retried live call → on success, cache
// store. Cache failures never fail the caller; they fall through to the live
// call.
type Cached struct {
	inner    models.Provider
	cache    *cache.ResponseCache
	retryCfg retry.Config
}

// Wrap composes p with the cache and retry policy. Auth failures are marked
// non-retryable.
func Wrap(p models.Provider, rc *cache.ResponseCache, retryCfg retry.Config) *Cached {
	retryCfg.NonRetryable = append(retryCfg.NonRetryable, ErrAuthFailure)
	return &Cached{inner: p, cache: rc, retryCfg: retryCfg}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Query(ctx context.Context, prompt string) (string, error) {
	if answer, hit := c.cache.Get(ctx, c.inner.Name(), prompt); hit {
		return answer, nil
	}

	answer, err := retry.DoWithResult(ctx, c.retryCfg, func(ctx context.Context) (string, error) {
		return c.inner.Query(ctx, prompt)
	})
	if err != nil {
		return "", err
	}

	c.cache.Set(ctx, c.inner.Name(), prompt, answer)
	return answer, nil
}

var _ models.Provider = (*Cached)(nil)
