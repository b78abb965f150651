// Package providererr holds the provider sentinel errors in a leaf
// package so provider implementations can share them without importing
// the registry in the parent provider package.
package providererr

import "errors"

var (
	// ErrAuthFailure marks credential rejections (401/403 equivalents).
	// Never retried: these cannot succeed on a second attempt.
	ErrAuthFailure = errors.New("provider authentication failed")
	// ErrEmptyAnswer marks an empty or malformed payload. Treated as a
	// transient failure so the retry executor gets another attempt.
	ErrEmptyAnswer = errors.New("provider returned empty answer")
	// ErrUnavailable marks a provider whose credential is missing.
	ErrUnavailable = errors.New("provider unavailable")
)
