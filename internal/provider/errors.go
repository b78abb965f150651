package provider

import "github.com/brandlens/brandlens/internal/provider/providererr"

// The sentinel errors live in the leaf package providererr so provider
// implementations can reference them without importing this package.
// They are re-exported here so callers keep using provider.ErrX.
var (
	// ErrAuthFailure marks credential rejections (401/403 equivalents).
	// Never retried: these cannot succeed on a second attempt.
	ErrAuthFailure = providererr.ErrAuthFailure
	// ErrEmptyAnswer marks an empty or malformed payload. Treated as a
	// transient failure so the retry executor gets another attempt.
	ErrEmptyAnswer = providererr.ErrEmptyAnswer
	// ErrUnavailable marks a provider whose credential is missing.
	ErrUnavailable = providererr.ErrUnavailable
)
