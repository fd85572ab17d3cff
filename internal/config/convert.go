package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/careercrew/internal/orchestrator"
	"github.com/aristath/careercrew/internal/provider"
	"github.com/aristath/careercrew/internal/scheduler"
)

// Handle builds the provider handle for name.
func (c *Config) Handle(name string) (provider.Handle, error) {
	p, ok := c.provider(name)
	if !ok {
		return provider.Handle{}, fmt.Errorf("unknown provider %q", name)
	}
	return provider.Handle{
		Name:          strings.ToLower(name),
		Type:          p.Type,
		Model:         p.Model,
		BaseURL:       p.BaseURL,
		Temperature:   p.Temperature,
		CredentialEnv: p.CredentialEnv,
		Command:       p.Command,
		Args:          append([]string(nil), p.Args...),
		Timeout:       p.Timeout,
	}, nil
}

// Handles returns every configured provider, sorted by name.
func (c *Config) Handles() []provider.Handle {
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]provider.Handle, 0, len(names))
	for _, name := range names {
		h, _ := c.Handle(name)
		out = append(out, h)
	}
	return out
}

// EngineChains resolves the named chains into provider handles.
func (c *Config) EngineChains() (orchestrator.Chains, error) {
	chains := make(orchestrator.Chains, len(c.Chains))
	for kind, names := range c.Chains {
		chain := make(orchestrator.Chain, 0, len(names))
		for _, name := range names {
			h, err := c.Handle(name)
			if err != nil {
				return nil, fmt.Errorf("chain %s: %w", kind, err)
			}
			chain = append(chain, h)
		}
		chains[scheduler.Kind(kind)] = chain
	}
	return chains, nil
}

// EngineRetry converts the retry section.
func (c *Config) EngineRetry() orchestrator.RetryConfig {
	return orchestrator.RetryConfig{
		MaxRetries:     c.Retry.MaxRetries,
		BaseDelay:      c.Retry.BaseDelay,
		MaxDelay:       c.Retry.MaxDelay,
		AttemptTimeout: c.Retry.AttemptTimeout,
	}
}

// EngineBreaker converts the breaker section.
func (c *Config) EngineBreaker() orchestrator.BreakerConfig {
	return orchestrator.BreakerConfig{
		Enabled:             c.Breaker.Enabled,
		ConsecutiveFailures: c.Breaker.ConsecutiveFailures,
		OpenTimeout:         c.Breaker.OpenTimeout,
		HalfOpenRequests:    c.Breaker.HalfOpenRequests,
	}
}

// Classifier returns the default classifier extended with the configured
// patterns.
func (c *Config) Classifier() *orchestrator.Classifier {
	rules := orchestrator.DefaultRules()
	for _, p := range c.Engine.FatalPatterns {
		rules = append(rules, orchestrator.Rule{Pattern: p, Class: orchestrator.ClassFatal})
	}
	for _, p := range c.Engine.RetryablePatterns {
		rules = append(rules, orchestrator.Rule{Pattern: p, Class: orchestrator.ClassRetryable})
	}
	return orchestrator.NewClassifier(rules...)
}

// chainOrder lists chain kinds in task sequence order, then any extras
// alphabetically.
func (c *Config) chainOrder() []string {
	seen := make(map[string]bool, len(c.Chains))
	var order []string
	for _, kind := range scheduler.Kinds(scheduler.CareerTasks()) {
		if _, ok := c.Chains[string(kind)]; ok {
			order = append(order, string(kind))
			seen[string(kind)] = true
		}
	}
	var extra []string
	for kind := range c.Chains {
		if !seen[kind] {
			extra = append(extra, kind)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}
