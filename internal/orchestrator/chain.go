package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/careercrew/internal/events"
	"github.com/aristath/careercrew/internal/provider"
	"github.com/aristath/careercrew/internal/scheduler"
)

// Work is one unit of work. It receives the provider to run against as a
// parameter, so trying another provider never mutates shared state.
type Work func(ctx context.Context, h provider.Handle) (string, error)

// Chain is a priority-ordered list of providers for one task kind.
type Chain []provider.Handle

// Chains maps task kinds to their provider chains.
type Chains map[scheduler.Kind]Chain

// clone deep-copies the chains so the engine's copy cannot be changed by
// the caller after construction.
func (c Chains) clone() Chains {
	out := make(Chains, len(c))
	for kind, chain := range c {
		cp := make(Chain, len(chain))
		for i, h := range chain {
			if h.Temperature != nil {
				t := *h.Temperature
				h.Temperature = &t
			}
			if h.Args != nil {
				h.Args = append([]string(nil), h.Args...)
			}
			cp[i] = h
		}
		out[kind] = cp
	}
	return out
}

// ExecuteChain runs work against the chain for kind, trying each provider
// in order through the retry controller. It returns the first success and
// never touches providers after it. A missing or empty chain yields
// ErrChainNotConfigured; a chain where every provider failed yields a
// *ChainExhaustedError.
func (e *Engine) ExecuteChain(ctx context.Context, kind scheduler.Kind, work Work) (string, error) {
	out, _, err := e.executeChain(ctx, call{kind: kind}, work)
	return out, err
}

func (e *Engine) executeChain(ctx context.Context, c call, work Work) (string, provider.Handle, error) {
	chain := e.chains[c.kind]
	if len(chain) == 0 {
		e.logger.Error("no fallback chain defined", "task", c.kind)
		return "", provider.Handle{}, fmt.Errorf("%w for %s", ErrChainNotConfigured, c.kind)
	}

	exhausted := &ChainExhaustedError{Kind: c.kind}
	for i, h := range chain {
		e.logger.Info("trying provider",
			"task", c.kind,
			"provider", h.Name,
			"option", fmt.Sprintf("%d/%d", i+1, len(chain)))

		out, err := e.retry.Run(ctx, c, h, work)
		if err == nil {
			e.logger.Info("provider succeeded", "task", c.kind, "provider", h.Name)
			return out, h, nil
		}

		var perr *ProviderError
		if !errors.As(err, &perr) {
			perr = &ProviderError{Provider: h.Name, Attempts: 1, Class: ClassUnknown, Err: err}
		}
		exhausted.Failures = append(exhausted.Failures, perr)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", h, fmt.Errorf("%s interrupted: %w", c.kind, ctxErr)
		}

		next := ""
		if i+1 < len(chain) {
			next = chain[i+1].Name
		}
		e.logger.Warn("provider failed", "task", c.kind, "provider", h.Name, "next", next, "error", err)
		e.publish(events.ProviderFallbackEvent{
			Run:       c.run,
			ID:        c.task,
			Kind:      string(c.kind),
			From:      h.Name,
			To:        next,
			Err:       err,
			Timestamp: time.Now(),
		})
	}

	e.logger.Error("all providers failed", "task", c.kind, "providers", len(chain))
	return "", provider.Handle{}, exhausted
}
