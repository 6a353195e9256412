package domain

import (
	"errors"
	"fmt"
)

// Provider identifies which upstream dependency failed.
type Provider string

const (
	ProviderEmbedding  Provider = "embedding"
	ProviderSearch     Provider = "search"
	ProviderGeneration Provider = "generation"
)

// ProviderError tags an upstream failure with the provider that caused it.
// The core never retries these; callers map them to a status and message.
type ProviderError struct {
	Provider Provider
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err with the provider tag. Already-tagged errors
// pass through unchanged so the original provider attribution survives.
func NewProviderError(p Provider, err error) error {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: p, Err: err}
}

// ErrEmptyQuery rejects blank queries before any provider call.
var ErrEmptyQuery = errors.New("query must not be empty")

// ErrInternal wraps unexpected failures so callers only ever observe the
// defined taxonomy, never raw provider exception types.
var ErrInternal = errors.New("internal error")

// ErrNotFound is returned by repositories when the requested row is absent.
var ErrNotFound = errors.New("not found")
