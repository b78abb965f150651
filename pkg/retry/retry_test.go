package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brandlens/brandlens/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errAuth = errors.New("authentication failed")

// fastConfig keeps backoff delays negligible for tests.
func fastConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
		Timeout:      5 * time.Second,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientFailure(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	transient := errors.New("still broken")
	calls := 0
	err := retry.Do(context.Background(), fastConfig(), func(ctx context.Context) error {
		calls++
		return transient
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, retry.ErrExhausted)
	assert.ErrorIs(t, err, transient)
}

func TestDo_AuthErrorShortCircuits(t *testing.T) {
	cfg := fastConfig()
	cfg.NonRetryable = []error{errAuth}

	calls := 0
	err := retry.Do(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return errAuth
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "auth failures must not be retried")
	assert.ErrorIs(t, err, errAuth)
	assert.NotErrorIs(t, err, retry.ErrExhausted)
}

func TestDo_OverallTimeout(t *testing.T) {
	cfg := fastConfig()
	cfg.Timeout = 20 * time.Millisecond
	cfg.MaxAttempts = 10

	err := retry.Do(context.Background(), cfg, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, retry.ErrTimeout)
}

func TestDo_ParentCancellationIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := retry.Do(ctx, fastConfig(), func(ctx context.Context) error {
		return ctx.Err()
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, retry.ErrTimeout)
}

func TestDoWithResult_ReturnsValue(t *testing.T) {
	calls := 0
	got, err := retry.DoWithResult(context.Background(), fastConfig(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "answer", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", got)
	assert.Equal(t, 2, calls)
}

func TestDo_ZeroConfigUsesDefaults(t *testing.T) {
	err := retry.Do(context.Background(), retry.Config{InitialDelay: time.Millisecond}, func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)
}
