package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sony/gobreaker"

	"github.com/aristath/careercrew/internal/provider"
)

// TestClassify covers the built-in rule table.
func TestClassify(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"unauthorized status", &provider.StatusError{Provider: "p", Status: 401}, ClassFatal},
		{"payment required", errors.New("Error 402: Payment Required"), ClassFatal},
		{"forbidden", errors.New("403 Forbidden"), ClassFatal},
		{"credits exhausted", errors.New("Insufficient CREDITS remaining"), ClassFatal},
		{"cannot afford", errors.New("This request requires more tokens than you can afford"), ClassFatal},
		{"paid account", errors.New("Please upgrade to a paid account"), ClassFatal},
		{"rate limited", &provider.StatusError{Provider: "p", Status: 429}, ClassRetryable},
		{"bad gateway", errors.New("502 bad gateway"), ClassRetryable},
		{"unavailable", errors.New("Service Unavailable (503)"), ClassRetryable},
		{"gateway timeout", errors.New("504"), ClassRetryable},
		{"overloaded", errors.New("model is Overloaded"), ClassRetryable},
		{"timeout text", errors.New("read tcp: i/o timeout"), ClassRetryable},
		{"temporarily unavailable", errors.New("service temporarily unavailable"), ClassRetryable},
		{"rate limit text", errors.New("Rate limit exceeded"), ClassRetryable},
		{"internal server error", errors.New("Internal Server Error"), ClassRetryable},
		{"fatal wins over retryable", errors.New("429 rate limit: add credits"), ClassFatal},
		{"unknown", errors.New("invalid JSON in response"), ClassUnknown},
		{"nil", nil, ClassUnknown},
		{"caller cancelled", fmt.Errorf("call: %w", context.Canceled), ClassFatal},
		{"attempt deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ClassRetryable},
		{"breaker open", gobreaker.ErrOpenState, ClassFatal},
		{"breaker half-open full", gobreaker.ErrTooManyRequests, ClassFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

// TestClassify_CustomRules verifies the table can be extended without
// changing control flow.
func TestClassify_CustomRules(t *testing.T) {
	rules := append(DefaultRules(),
		Rule{Pattern: "  Quota Exceeded ", Class: ClassFatal},
		Rule{Pattern: "try again", Class: ClassRetryable},
		Rule{Pattern: "ignored", Class: ClassUnknown},
		Rule{Pattern: "", Class: ClassFatal},
	)
	c := NewClassifier(rules...)

	if got := c.Classify(errors.New("daily quota exceeded")); got != ClassFatal {
		t.Errorf("Expected custom fatal rule, got %s", got)
	}
	if got := c.Classify(errors.New("please try again later")); got != ClassRetryable {
		t.Errorf("Expected custom retryable rule, got %s", got)
	}
	if got := c.Classify(errors.New("anything")); got != ClassUnknown {
		t.Errorf("Empty pattern must not match everything, got %s", got)
	}
}

// TestClass_Retryable verifies only retryable failures are retried.
func TestClass_Retryable(t *testing.T) {
	if !ClassRetryable.Retryable() || ClassFatal.Retryable() || ClassUnknown.Retryable() {
		t.Error("Unexpected Retryable() results")
	}
}
