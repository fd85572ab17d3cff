// Package orchestrator is the resilient execution engine: it classifies
// provider failures, retries transient ones, falls back across ranked
// provider chains, substitutes placeholder content when a chain is
// exhausted, and runs the whole task sequence into a single report.
package orchestrator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aristath/careercrew/internal/events"
	"github.com/aristath/careercrew/internal/provider"
	"github.com/aristath/careercrew/internal/scheduler"
)

// Options configures an Engine.
type Options struct {
	Invoker      provider.Invoker             // Required
	Chains       Chains                       // Required; one non-empty chain per task kind
	Tasks        []scheduler.Task             // Defaults to scheduler.CareerTasks()
	Retry        RetryConfig                  // Zero value means DefaultRetryConfig()
	Classifier   *Classifier                  // Defaults to DefaultClassifier()
	Breakers     *CircuitBreakerRegistry      // Optional
	Placeholders map[scheduler.Kind]string    // Defaults to DefaultPlaceholders()
	Batch        BatchRunner                  // Defaults to PrimaryBatchRunner
	DisableBatch bool                         // Skip the batch attempt entirely
	TaskTimeout  time.Duration                // Wall-clock bound per task, 0 disables
	Events       events.Publisher             // Optional
	Logger       *slog.Logger                 // Defaults to slog.Default()
	NewTimer     func() backoff.Timer         // Overrides the backoff timer (tests)
}

// Engine runs tasks against provider chains. It is immutable after New and
// safe for concurrent use; each run keeps its state on its own stack.
type Engine struct {
	invoker      provider.Invoker
	chains       Chains
	tasks        []scheduler.Task
	placeholders map[scheduler.Kind]string
	batch        BatchRunner
	taskTimeout  time.Duration
	retry        *RetryController
	events       events.Publisher
	logger       *slog.Logger
}

// New validates opts and builds an Engine. Every task kind must have a
// non-empty chain; a missing one is reported as ErrChainNotConfigured.
func New(opts Options) (*Engine, error) {
	if opts.Invoker == nil {
		return nil, errors.New("orchestrator: invoker is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Classifier == nil {
		opts.Classifier = DefaultClassifier()
	}
	if opts.Retry == (RetryConfig{}) {
		opts.Retry = DefaultRetryConfig()
	}
	if opts.Retry.MaxRetries < 1 {
		return nil, fmt.Errorf("orchestrator: max retries must be at least 1, got %d", opts.Retry.MaxRetries)
	}
	if opts.Retry.MaxDelay < opts.Retry.BaseDelay {
		return nil, fmt.Errorf("orchestrator: max delay %s is below base delay %s", opts.Retry.MaxDelay, opts.Retry.BaseDelay)
	}
	if opts.Tasks == nil {
		opts.Tasks = scheduler.CareerTasks()
	}
	if opts.Placeholders == nil {
		opts.Placeholders = DefaultPlaceholders()
	}
	if opts.Batch == nil && !opts.DisableBatch {
		opts.Batch = PrimaryBatchRunner{}
	}
	if opts.DisableBatch {
		opts.Batch = nil
	}

	if _, err := scheduler.NewPlan(opts.Tasks); err != nil {
		return nil, fmt.Errorf("orchestrator: invalid task plan: %w", err)
	}
	for _, kind := range scheduler.Kinds(opts.Tasks) {
		if len(opts.Chains[kind]) == 0 {
			return nil, fmt.Errorf("orchestrator: %w for %s", ErrChainNotConfigured, kind)
		}
	}

	tasks := make([]scheduler.Task, len(opts.Tasks))
	for i, t := range opts.Tasks {
		t.DependsOn = append([]string(nil), t.DependsOn...)
		tasks[i] = t
	}
	placeholders := make(map[scheduler.Kind]string, len(opts.Placeholders))
	for k, v := range opts.Placeholders {
		placeholders[k] = v
	}

	return &Engine{
		invoker:      opts.Invoker,
		chains:       opts.Chains.clone(),
		tasks:        tasks,
		placeholders: placeholders,
		batch:        opts.Batch,
		taskTimeout:  opts.TaskTimeout,
		events:       opts.Events,
		logger:       opts.Logger,
		retry: &RetryController{
			cfg:        opts.Retry,
			classifier: opts.Classifier,
			breakers:   opts.Breakers,
			newTimer:   opts.NewTimer,
			events:     opts.Events,
			logger:     opts.Logger,
		},
	}, nil
}

// Tasks returns a copy of the task sequence.
func (e *Engine) Tasks() []scheduler.Task {
	out := make([]scheduler.Task, len(e.tasks))
	copy(out, e.tasks)
	return out
}

// Chain returns a copy of the chain for kind.
func (e *Engine) Chain(kind scheduler.Kind) Chain {
	return append(Chain(nil), e.chains[kind]...)
}

func (e *Engine) publish(ev events.Event) {
	if e.events != nil {
		e.events.Publish(ev)
	}
}
