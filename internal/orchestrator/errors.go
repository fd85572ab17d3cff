package orchestrator

import (
	"errors"
	"fmt"

	"github.com/aristath/careercrew/internal/scheduler"
)

var (
	// ErrChainNotConfigured means no provider chain is registered for a
	// task kind. It is a setup defect, not a runtime condition.
	ErrChainNotConfigured = errors.New("no provider chain configured")

	// ErrChainExhausted means every provider in a chain failed.
	ErrChainExhausted = errors.New("all providers failed")
)

// ProviderError is the final failure of one provider after the retry
// controller gave up on it.
type ProviderError struct {
	Provider string
	Attempts int
	Class    Class
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s failed after %d attempt(s) (%s): %v", e.Provider, e.Attempts, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ChainExhaustedError lists the provider failures of an exhausted chain in
// the order they were tried.
type ChainExhaustedError struct {
	Kind     scheduler.Kind
	Failures []*ProviderError
}

func (e *ChainExhaustedError) Error() string {
	return fmt.Sprintf("all %d providers failed for %s. Last error: %v", len(e.Failures), e.Kind, e.Last())
}

// Last returns the error of the final provider tried.
func (e *ChainExhaustedError) Last() error {
	if len(e.Failures) == 0 {
		return nil
	}
	return e.Failures[len(e.Failures)-1]
}

// Is matches ErrChainExhausted.
func (e *ChainExhaustedError) Is(target error) bool { return target == ErrChainExhausted }

// Unwrap exposes the last provider failure.
func (e *ChainExhaustedError) Unwrap() error { return e.Last() }
