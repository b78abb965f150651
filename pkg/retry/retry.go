// Package retry runs operations with bounded attempts, exponential backoff,
// and a hard overall deadline.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrExhausted wraps the last error after all attempts failed.
	ErrExhausted = errors.New("retry attempts exhausted")
	// ErrTimeout is returned when the overall deadline elapses, regardless of
	// attempts remaining.
	ErrTimeout = errors.New("operation timed out")
)

// Config controls retry behavior. Zero values fall back to defaults.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// Timeout bounds the whole operation including backoff delays.
	Timeout time.Duration
	// NonRetryable errors short-circuit immediately. Authentication failures
	// belong here: they cannot succeed on retry.
	NonRetryable []error
}

// DefaultConfig returns the standard retry policy.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
		Timeout:      120 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
}

// Do runs op until it succeeds, a non-retryable error occurs, attempts are
// exhausted, or the overall timeout elapses. The context passed to op carries
// the overall deadline; each retry sequence is local to its own call and never
// blocks other in-flight operations.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	cfg.applyDefaults()

	opCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := op(opCtx)
		if err == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		if timedOut(opCtx, ctx) {
			return fmt.Errorf("%w after %s: %w", ErrTimeout, cfg.Timeout, err)
		}

		for _, fatal := range cfg.NonRetryable {
			if errors.Is(err, fatal) {
				return err
			}
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Warn("operation failed, retrying",
			"error", err,
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"delay", delay,
		)

		select {
		case <-opCtx.Done():
			if timedOut(opCtx, ctx) {
				return fmt.Errorf("%w after %s: %w", ErrTimeout, cfg.Timeout, err)
			}
			return opCtx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, cfg.MaxAttempts, lastErr)
}

// DoWithResult is Do for operations that produce a value.
func DoWithResult[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	return result, err
}

// timedOut reports whether the operation context hit its own deadline rather
// than inheriting cancellation from the parent.
func timedOut(opCtx, parent context.Context) bool {
	return errors.Is(opCtx.Err(), context.DeadlineExceeded) && parent.Err() == nil
}
