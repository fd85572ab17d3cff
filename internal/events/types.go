// Package events carries run, task and attempt notifications from the
// engine to its observers (metrics, terminal UI, logs).
package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Topic() string
	RunID() string
	TaskID() string
}

// Topic constants
const (
	TopicRun     = "run"
	TopicTask    = "task"
	TopicAttempt = "attempt"
)

// Event type constants
const (
	EventTypeRunStarted       = "run.started"
	EventTypeRunProgress      = "run.progress"
	EventTypeRunCompleted     = "run.completed"
	EventTypeTaskStarted      = "task.started"
	EventTypeTaskCompleted    = "task.completed"
	EventTypeAttempt          = "attempt.finished"
	EventTypeProviderFallback = "attempt.fallback"
)

// Attempt outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeRetry     = "retry"     // retryable failure, another attempt follows
	OutcomeFailed    = "failed"    // non-retryable failure
	OutcomeExhausted = "exhausted" // retryable failure on the last attempt
)

// RunStartedEvent is published when a sequence run begins.
type RunStartedEvent struct {
	Run       string
	Tasks     int
	Timestamp time.Time
}

func (e RunStartedEvent) EventType() string { return EventTypeRunStarted }
func (e RunStartedEvent) Topic() string     { return TopicRun }
func (e RunStartedEvent) RunID() string     { return e.Run }
func (e RunStartedEvent) TaskID() string    { return "" }

// RunProgressEvent is published whenever a task changes status.
type RunProgressEvent struct {
	Run       string
	Total     int
	Completed int
	Degraded  int
	Running   int
	Pending   int
	Timestamp time.Time
}

func (e RunProgressEvent) EventType() string { return EventTypeRunProgress }
func (e RunProgressEvent) Topic() string     { return TopicRun }
func (e RunProgressEvent) RunID() string     { return e.Run }
func (e RunProgressEvent) TaskID() string    { return "" }

// RunCompletedEvent is published once the final report is assembled.
type RunCompletedEvent struct {
	Run          string
	Status       string // complete, degraded or emergency
	Path         string // batch, individual or emergency
	Placeholders int
	Duration     time.Duration
	Timestamp    time.Time
}

func (e RunCompletedEvent) EventType() string { return EventTypeRunCompleted }
func (e RunCompletedEvent) Topic() string     { return TopicRun }
func (e RunCompletedEvent) RunID() string     { return e.Run }
func (e RunCompletedEvent) TaskID() string    { return "" }

// TaskStartedEvent is published when a task begins execution.
type TaskStartedEvent struct {
	Run       string
	ID        string
	Kind      string
	Name      string
	AgentRole string
	Index     int // 1-based position in the sequence
	Total     int
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) Topic() string     { return TopicTask }
func (e TaskStartedEvent) RunID() string     { return e.Run }
func (e TaskStartedEvent) TaskID() string    { return e.ID }

// TaskCompletedEvent is published when a task has a result, real or
// placeholder.
type TaskCompletedEvent struct {
	Run         string
	ID          string
	Kind        string
	Provider    string // empty for placeholders
	Placeholder bool
	Duration    time.Duration
	Timestamp   time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) Topic() string     { return TopicTask }
func (e TaskCompletedEvent) RunID() string     { return e.Run }
func (e TaskCompletedEvent) TaskID() string    { return e.ID }

// AttemptEvent records one provider call.
type AttemptEvent struct {
	Run       string
	ID        string // task ID, empty for calls made outside a run
	Kind      string
	Provider  string
	Attempt   int // 1-based
	Outcome   string
	Class     string
	Err       error
	Wait      time.Duration // delay before the next attempt, if any
	Duration  time.Duration
	Timestamp time.Time
}

func (e AttemptEvent) EventType() string { return EventTypeAttempt }
func (e AttemptEvent) Topic() string     { return TopicAttempt }
func (e AttemptEvent) RunID() string     { return e.Run }
func (e AttemptEvent) TaskID() string    { return e.ID }

// ProviderFallbackEvent is published when a chain gives up on a provider.
type ProviderFallbackEvent struct {
	Run       string
	ID        string
	Kind      string
	From      string
	To        string // empty when the chain is exhausted
	Err       error
	Timestamp time.Time
}

func (e ProviderFallbackEvent) EventType() string { return EventTypeProviderFallback }
func (e ProviderFallbackEvent) Topic() string     { return TopicAttempt }
func (e ProviderFallbackEvent) RunID() string     { return e.Run }
func (e ProviderFallbackEvent) TaskID() string    { return e.ID }
