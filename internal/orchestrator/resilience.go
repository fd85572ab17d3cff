package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/aristath/careercrew/internal/events"
	"github.com/aristath/careercrew/internal/provider"
	"github.com/aristath/careercrew/internal/scheduler"
)

// RetryConfig configures per-provider retries.
type RetryConfig struct {
	MaxRetries     int           // Total attempts per provider (default 3)
	BaseDelay      time.Duration // Delay before the second attempt (default 2s)
	MaxDelay       time.Duration // Upper bound on any single delay (default 30s)
	AttemptTimeout time.Duration // Wall-clock bound per attempt, 0 disables
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Delay returns the wait before attempt n+1, for n >= 1:
// min(BaseDelay * 2^(n-1), MaxDelay).
func (c RetryConfig) Delay(n int) time.Duration {
	if n < 1 {
		return 0
	}
	d := c.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if d > c.MaxDelay {
		return c.MaxDelay
	}
	return d
}

// BreakerConfig configures per-provider circuit breakers.
type BreakerConfig struct {
	Enabled             bool
	ConsecutiveFailures uint32        // Trip after this many failures in a row (default 5)
	OpenTimeout         time.Duration // Stay open this long before probing (default 30s)
	HalfOpenRequests    uint32        // Probe requests allowed when half-open (default 3)
}

// DefaultBreakerConfig returns the default breaker configuration. Breakers
// are off by default: their failure counts are shared by every run in the
// process, so one run's outage can move another run off a provider.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:             false,
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
		HalfOpenRequests:    3,
	}
}

// CircuitBreakerRegistry manages per-provider circuit breakers. Breaker
// state is shared by all runs using the registry; retry counters are not.
type CircuitBreakerRegistry struct {
	cfg    BreakerConfig
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewCircuitBreakerRegistry creates a new circuit breaker registry.
func NewCircuitBreakerRegistry(cfg BreakerConfig, logger *slog.Logger) *CircuitBreakerRegistry {
	def := DefaultBreakerConfig()
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = def.ConsecutiveFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = def.HalfOpenRequests
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CircuitBreakerRegistry{
		cfg:      cfg,
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Get returns the breaker for the named provider, creating it on first use.
func (r *CircuitBreakerRegistry) Get(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[name]; ok {
		return cb
	}

	threshold := r.cfg.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: r.cfg.HalfOpenRequests,
		Interval:    0, // counts are only cleared by state changes
		Timeout:     r.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			r.logger.Warn("circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	r.breakers[name] = cb
	return cb
}

// States returns the current state of every known breaker.
func (r *CircuitBreakerRegistry) States() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(r.breakers))
	for name, cb := range r.breakers {
		out[name] = cb.State().String()
	}
	return out
}

// call identifies the run and task an attempt belongs to.
type call struct {
	run  string
	task string
	kind scheduler.Kind
}

// RetryController runs one work item against one provider with bounded
// exponential backoff.
type RetryController struct {
	cfg        RetryConfig
	classifier *Classifier
	breakers   *CircuitBreakerRegistry
	newTimer   func() backoff.Timer
	events     events.Publisher
	logger     *slog.Logger
}

// Run executes work against h until it succeeds, fails non-retryably, or
// the attempt budget is spent. Failures are returned as *ProviderError.
func (rc *RetryController) Run(ctx context.Context, c call, h provider.Handle, work Work) (string, error) {
	var (
		out       string
		attempts  int
		lastClass Class
	)

	operation := func() error {
		if err := ctx.Err(); err != nil {
			lastClass = ClassFatal
			return backoff.Permanent(err)
		}

		attempts++
		start := time.Now()
		result, err := rc.attempt(ctx, h, work)
		elapsed := time.Since(start)

		if err == nil {
			out = result
			rc.publish(c, h, attempts, events.OutcomeSuccess, ClassUnknown, nil, 0, elapsed)
			if attempts > 1 {
				rc.logger.Info("provider succeeded on retry", "task", c.kind, "provider", h.Name, "attempt", attempts)
			}
			return nil
		}

		lastClass = rc.classifier.Classify(err)
		if ctx.Err() != nil {
			lastClass = ClassFatal
		}

		switch {
		case !lastClass.Retryable():
			rc.publish(c, h, attempts, events.OutcomeFailed, lastClass, err, 0, elapsed)
			rc.logger.Info("non-retryable provider error, switching provider",
				"task", c.kind, "provider", h.Name, "class", lastClass.String(), "error", err)
			return backoff.Permanent(err)
		case attempts >= rc.cfg.MaxRetries:
			rc.publish(c, h, attempts, events.OutcomeExhausted, lastClass, err, 0, elapsed)
			rc.logger.Warn("max retries reached", "task", c.kind, "provider", h.Name, "attempts", attempts, "error", err)
			return err
		default:
			rc.publish(c, h, attempts, events.OutcomeRetry, lastClass, err, rc.cfg.Delay(attempts), elapsed)
			return err
		}
	}

	notify := func(err error, wait time.Duration) {
		rc.logger.Info("retrying provider",
			"task", c.kind,
			"provider", h.Name,
			"attempt", attempts,
			"max", rc.cfg.MaxRetries,
			"delay", wait,
			"error", err)
	}

	var timer backoff.Timer
	if rc.newTimer != nil {
		timer = rc.newTimer()
	}

	err := backoff.RetryNotifyWithTimer(operation, rc.policy(ctx), notify, timer)
	if err == nil {
		return out, nil
	}
	if attempts == 0 {
		attempts = 1
	}
	return "", &ProviderError{Provider: h.Name, Attempts: attempts, Class: lastClass, Err: err}
}

// policy builds the backoff schedule: no jitter, doubling from BaseDelay,
// capped at MaxDelay, at most MaxRetries-1 waits.
func (rc *RetryController) policy(ctx context.Context) backoff.BackOff {
	if rc.cfg.MaxRetries <= 1 {
		// WithMaxRetries(b, 0) would mean unlimited.
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = rc.cfg.BaseDelay
	b.MaxInterval = rc.cfg.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(rc.cfg.MaxRetries-1)), ctx)
}

// attempt performs one call, bounded by AttemptTimeout and guarded by the
// provider's breaker.
func (rc *RetryController) attempt(ctx context.Context, h provider.Handle, work Work) (string, error) {
	if rc.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.cfg.AttemptTimeout)
		defer cancel()
	}

	if rc.breakers == nil {
		return safeWork(ctx, h, work)
	}

	result, err := rc.breakers.Get(h.Name).Execute(func() (interface{}, error) {
		return safeWork(ctx, h, work)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// safeWork turns a panicking work item into a failed attempt.
func safeWork(ctx context.Context, h provider.Handle, work Work) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("provider %s panicked: %v", h.Name, r)
		}
	}()
	return work(ctx, h)
}

func (rc *RetryController) publish(c call, h provider.Handle, attempt int, outcome string, class Class, err error, wait, elapsed time.Duration) {
	if rc.events == nil {
		return
	}
	rc.events.Publish(events.AttemptEvent{
		Run:       c.run,
		ID:        c.task,
		Kind:      string(c.kind),
		Provider:  h.Name,
		Attempt:   attempt,
		Outcome:   outcome,
		Class:     class.String(),
		Err:       err,
		Wait:      wait,
		Duration:  elapsed,
		Timestamp: time.Now(),
	})
}
