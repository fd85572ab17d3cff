package orchestrator

import (
	"context"
	"errors"
	"strings"

	"github.com/sony/gobreaker"
)

// Class is the retry classification of a provider failure.
type Class int

const (
	// ClassUnknown matched no rule. It is not retried; the chain moves on.
	ClassUnknown Class = iota
	// ClassRetryable is transient and may succeed on the same provider.
	ClassRetryable
	// ClassFatal is permanent for this provider or credential.
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassRetryable:
		return "retryable"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Retryable reports whether the same provider should be tried again.
func (c Class) Retryable() bool { return c == ClassRetryable }

// Rule maps a case-insensitive substring of an error message to a class.
type Rule struct {
	Pattern string
	Class   Class
}

// DefaultFatalPatterns are authorization and billing failures.
var DefaultFatalPatterns = []string{
	"401", // unauthorized
	"402", // payment required
	"403", // forbidden
	"credits",
	"afford",
	"upgrade to a paid account",
}

// DefaultRetryablePatterns are transient capacity and network failures.
var DefaultRetryablePatterns = []string{
	"503",
	"502",
	"504",
	"429",
	"overloaded",
	"timeout",
	"temporarily unavailable",
	"rate limit",
	"internal server error",
}

// Classifier decides whether a failure is worth retrying. Fatal rules are
// always checked before retryable ones, so a message matching both is
// fatal.
type Classifier struct {
	fatal     []string
	retryable []string
}

// NewClassifier builds a classifier from rules. Patterns are lower-cased;
// rules with ClassUnknown are ignored.
func NewClassifier(rules ...Rule) *Classifier {
	c := &Classifier{}
	for _, r := range rules {
		p := strings.ToLower(strings.TrimSpace(r.Pattern))
		if p == "" {
			continue
		}
		switch r.Class {
		case ClassFatal:
			c.fatal = append(c.fatal, p)
		case ClassRetryable:
			c.retryable = append(c.retryable, p)
		}
	}
	return c
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, len(DefaultFatalPatterns)+len(DefaultRetryablePatterns))
	for _, p := range DefaultFatalPatterns {
		rules = append(rules, Rule{Pattern: p, Class: ClassFatal})
	}
	for _, p := range DefaultRetryablePatterns {
		rules = append(rules, Rule{Pattern: p, Class: ClassRetryable})
	}
	return rules
}

// DefaultClassifier returns a classifier with the built-in rules.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultRules()...)
}

// Classify inspects err. Caller cancellation and an open circuit are
// fatal; a per-attempt deadline is retryable; otherwise the message is
// matched against the rule table.
func (c *Classifier) Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	if errors.Is(err, context.Canceled) {
		return ClassFatal
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ClassFatal
	}

	msg := strings.ToLower(err.Error())
	for _, p := range c.fatal {
		if strings.Contains(msg, p) {
			return ClassFatal
		}
	}
	for _, p := range c.retryable {
		if strings.Contains(msg, p) {
			return ClassRetryable
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassRetryable
	}
	return ClassUnknown
}
