package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/aristath/careercrew/internal/provider"
	"github.com/aristath/careercrew/internal/scheduler"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// delayRecorder hands out timers that fire immediately and remembers every
// delay they were started with.
type delayRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *delayRecorder) NewTimer() backoff.Timer {
	return &instantTimer{rec: r}
}

func (r *delayRecorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

type instantTimer struct {
	rec *delayRecorder
	c   chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.rec.mu.Lock()
	t.rec.delays = append(t.rec.delays, d)
	t.rec.mu.Unlock()

	t.c = make(chan time.Time, 1)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

// scriptedInvoker replays responses per provider name. Each entry is a
// string or an error; the last entry repeats once the script runs out.
type scriptedInvoker struct {
	mu     sync.Mutex
	script map[string][]any
	calls  []string
}

func newScriptedInvoker(script map[string][]any) *scriptedInvoker {
	return &scriptedInvoker{script: script}
}

func (s *scriptedInvoker) Invoke(ctx context.Context, h provider.Handle, p provider.Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, h.Name)
	q := s.script[h.Name]
	if len(q) == 0 {
		return "", fmt.Errorf("unexpected call to %s", h.Name)
	}
	next := q[0]
	if len(q) > 1 {
		s.script[h.Name] = q[1:]
	}

	switch v := next.(type) {
	case string:
		return v, nil
	case error:
		return "", v
	default:
		return "", fmt.Errorf("invalid script entry %T", v)
	}
}

func (s *scriptedInvoker) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *scriptedInvoker) CallCount(name string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func handles(names ...string) Chain {
	chain := make(Chain, len(names))
	for i, n := range names {
		chain[i] = provider.Handle{Name: n, Type: "test"}
	}
	return chain
}

// singleTask is a one-step plan for chain-level tests.
func singleTask(kind scheduler.Kind) []scheduler.Task {
	return []scheduler.Task{{ID: string(kind), Kind: kind, Name: string(kind), Description: "do {user_info}"}}
}

func newTestEngine(t *testing.T, opts Options) (*Engine, *delayRecorder) {
	t.Helper()
	rec := &delayRecorder{}
	if opts.NewTimer == nil {
		opts.NewTimer = rec.NewTimer
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	e, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e, rec
}
