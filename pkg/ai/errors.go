// Package ai provides the content-generation provider implementations
// and their error taxonomy.
package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable covers quota, network, and 5xx failures.
	// Safe to retry by re-invoking execution.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderAuth indicates a rejected credential. Not retryable
	// until the credential is fixed.
	ErrProviderAuth = errors.New("provider authentication failed")

	// ErrEmptyContent indicates the provider answered without usable
	// content.
	ErrEmptyContent = errors.New("provider returned empty content")
)

// ProviderError carries the provider identity alongside the failure so
// task error messages stay attributable.
type ProviderError struct {
	Provider ProviderID
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider %s: %v", e.Op, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error is transient from the runner's
// point of view.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
