// Package mock provides a models.Provider test double.
package mock

import (
	"context"
	"sync/atomic"

	"github.com/brandlens/brandlens/internal/provider/providererr"
	"github.com/brandlens/brandlens/pkg/models"
)

// MockProvider satisfies models.Provider for testing.
type MockProvider struct {
	Name_     string
	QueryFunc func(ctx context.Context, prompt string) (string, error)

	calls atomic.Int64
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Query(ctx context.Context, prompt string) (string, error) {
	m.calls.Add(1)
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, prompt)
	}
	return "mock answer", nil
}

// Calls returns how many times Query has been invoked.
func (m *MockProvider) Calls() int {
	return int(m.calls.Load())
}

// NewMockProvider returns a MockProvider that answers every prompt with answer.
func NewMockProvider(name, answer string) *MockProvider {
	return &MockProvider{
		Name_: name,
		QueryFunc: func(_ context.Context, _ string) (string, error) {
			return answer, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(name string, err error) *MockProvider {
	return &MockProvider{
		Name_: name,
		QueryFunc: func(_ context.Context, _ string) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider(name string) *MockProvider {
	return &MockProvider{
		Name_: name,
		QueryFunc: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
}

// NewAuthFailingProvider returns a MockProvider that always fails authentication.
func NewAuthFailingProvider(name string) *MockProvider {
	return NewFailingProvider(name, providererr.ErrAuthFailure)
}

// Compile-time check that MockProvider implements Provider.
var _ models.Provider = (*MockProvider)(nil)
