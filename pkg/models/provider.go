// Package models contains shared data models used across the BrandLens codebase.
package models

import "context"

// Provider is the core interface that all generative AI integrations must
// implement. Never call specific providers directly — always inject this
// interface.
type Provider interface {
	// Query sends a plain-text prompt and returns the provider's answer text.
	Query(ctx context.Context, prompt string) (string, error)
	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string
}
