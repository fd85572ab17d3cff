package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/careercrew/internal/events"
	"github.com/aristath/careercrew/internal/provider"
	"github.com/aristath/careercrew/internal/scheduler"
)

// Batch is the input to a combined run of the whole sequence.
type Batch struct {
	RunID    string
	UserInfo string
	Tasks    []scheduler.Task
	Chains   Chains
	Invoker  provider.Invoker

	// Optional progress hooks, called with the task's index.
	Started  func(i int)
	Finished func(i int, r TaskResult)
}

// BatchRunner executes every task of a sequence as one combined operation.
// Any error sends the run to individual per-task fallback.
type BatchRunner interface {
	RunBatch(ctx context.Context, b Batch) ([]TaskResult, error)
}

// BatchRunnerFunc adapts a function to BatchRunner.
type BatchRunnerFunc func(ctx context.Context, b Batch) ([]TaskResult, error)

// RunBatch calls f(ctx, b).
func (f BatchRunnerFunc) RunBatch(ctx context.Context, b Batch) ([]TaskResult, error) {
	return f(ctx, b)
}

// PrimaryBatchRunner runs each task once on the first provider of its
// chain, with shared context and no retries, and fails on the first error.
type PrimaryBatchRunner struct{}

// RunBatch implements BatchRunner.
func (PrimaryBatchRunner) RunBatch(ctx context.Context, b Batch) ([]TaskResult, error) {
	results := make([]TaskResult, 0, len(b.Tasks))
	for i, task := range b.Tasks {
		chain := b.Chains[task.Kind]
		if len(chain) == 0 {
			return nil, fmt.Errorf("batch: %w for %s", ErrChainNotConfigured, task.Kind)
		}
		if b.Started != nil {
			b.Started(i)
		}

		h := chain[0]
		out, err := b.Invoker.Invoke(ctx, h, BuildPrompt(task, b.UserInfo, results))
		if err != nil {
			return nil, fmt.Errorf("batch: %s on %s: %w", task.Name, h.Name, err)
		}

		r := TaskResult{TaskID: task.ID, Kind: task.Kind, Name: task.Name, Output: out, Provider: h.Name}
		results = append(results, r)
		if b.Finished != nil {
			b.Finished(i, r)
		}
	}
	return results, nil
}

// run is the per-call state of ExecuteAll.
type run struct {
	id       string
	userInfo string
	plan     *scheduler.DAG
	started  time.Time
}

// ExecuteAll runs the task sequence end to end and always returns a
// report. It first tries the batch path; if that fails it runs each task
// through its chain, feeding every earlier result forward as context. If
// even that cannot proceed, the emergency document is returned.
func (e *Engine) ExecuteAll(ctx context.Context, userInfo string) (report *Report) {
	r := &run{
		id:       uuid.NewString(),
		userInfo: userInfo,
		started:  time.Now(),
	}
	logger := e.logger.With("run", r.id)

	e.publish(events.RunStartedEvent{Run: r.id, Tasks: len(e.tasks), Timestamp: r.started})
	logger.Info("starting run", "tasks", len(e.tasks), "batch", e.batch != nil)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("run panicked", "panic", p)
			report = e.emergency(r, fmt.Errorf("panic: %v", p))
		}
		e.publish(events.RunCompletedEvent{
			Run:          r.id,
			Status:       string(report.Status),
			Path:         string(report.Path),
			Placeholders: report.Placeholders(),
			Duration:     time.Since(r.started),
			Timestamp:    time.Now(),
		})
		logger.Info("run finished", "status", report.Status, "path", report.Path, "duration", time.Since(r.started))
	}()

	if e.batch != nil {
		results, err := e.runBatch(ctx, r)
		if err == nil {
			return e.finish(r, PathBatch, results)
		}
		logger.Warn("batch execution failed, switching to individual task execution", "error", err)
	}

	results, err := e.runIndividually(ctx, r)
	if err != nil {
		logger.Error("individual execution failed", "error", err)
		return e.emergency(r, err)
	}
	return e.finish(r, PathIndividual, results)
}

func (e *Engine) newPlan(r *run) error {
	plan, err := scheduler.NewPlan(e.tasks)
	if err != nil {
		return err
	}
	r.plan = plan
	e.publishProgress(r)
	return nil
}

func (e *Engine) runBatch(ctx context.Context, r *run) (results []TaskResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			results, err = nil, fmt.Errorf("batch panicked: %v", p)
		}
	}()

	if err := e.newPlan(r); err != nil {
		return nil, err
	}

	// Task events are held until the batch succeeds. A failed batch is
	// replayed task by task and must not report its partial progress.
	var (
		mu      sync.Mutex
		pending []events.Event
	)
	hold := func(evs ...events.Event) {
		mu.Lock()
		pending = append(pending, evs...)
		mu.Unlock()
	}

	tasks := e.Tasks()
	starts := make([]time.Time, len(tasks))
	results, err = e.batch.RunBatch(ctx, Batch{
		RunID:    r.id,
		UserInfo: r.userInfo,
		Tasks:    tasks,
		Chains:   e.chains.clone(),
		Invoker:  e.invoker,
		Started: func(i int) {
			starts[i] = time.Now()
			r.plan.MarkRunning(tasks[i].ID)
			hold(e.taskStartedEvent(r, i), e.progressEvent(r))
		},
		Finished: func(i int, res TaskResult) {
			r.plan.MarkCompleted(tasks[i].ID, res.Output)
			hold(taskCompletedEvent(r.id, res, time.Since(starts[i])), e.progressEvent(r))
		},
	})
	if err != nil {
		return nil, err
	}
	if len(results) != len(tasks) {
		return nil, fmt.Errorf("batch returned %d results for %d tasks", len(results), len(tasks))
	}

	mu.Lock()
	defer mu.Unlock()
	for _, ev := range pending {
		e.publish(ev)
	}
	return results, nil
}

func (e *Engine) runIndividually(ctx context.Context, r *run) ([]TaskResult, error) {
	if err := e.newPlan(r); err != nil {
		return nil, err
	}

	results := make([]TaskResult, 0, len(e.tasks))
	for i, task := range e.tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.plan.MarkRunning(task.ID)
		e.publishTaskStarted(r, i)
		e.publishProgress(r)
		e.logger.Info("executing task", "run", r.id, "task", task.Kind, "role", task.Agent.Role, "step", fmt.Sprintf("%d/%d", i+1, len(e.tasks)))

		start := time.Now()
		res, err := e.runTask(ctx, r.id, task, r.userInfo, results)
		if err != nil {
			r.plan.MarkFailed(task.ID)
			e.publishProgress(r)
			return nil, fmt.Errorf("task %s: %w", task.ID, err)
		}

		if res.Placeholder {
			r.plan.MarkDegraded(task.ID, res.Output)
		} else {
			r.plan.MarkCompleted(task.ID, res.Output)
		}
		e.publishTaskCompleted(r.id, res, time.Since(start))
		e.publishProgress(r)

		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) finish(r *run, path Path, results []TaskResult) *Report {
	text, degraded := assemble(results)
	status := StatusComplete
	if degraded {
		status = StatusDegraded
	}
	return &Report{
		RunID:   r.id,
		Text:    text,
		Status:  status,
		Path:    path,
		Results: results,
	}
}

func (e *Engine) emergency(r *run, err error) *Report {
	return &Report{
		RunID:  r.id,
		Text:   EmergencyReport(r.userInfo),
		Status: StatusEmergency,
		Path:   PathEmergency,
		Err:    err,
	}
}

func (e *Engine) publishTaskStarted(r *run, i int) {
	e.publish(e.taskStartedEvent(r, i))
}

func (e *Engine) taskStartedEvent(r *run, i int) events.TaskStartedEvent {
	task := e.tasks[i]
	return events.TaskStartedEvent{
		Run:       r.id,
		ID:        task.ID,
		Kind:      string(task.Kind),
		Name:      task.Name,
		AgentRole: task.Agent.Role,
		Index:     i + 1,
		Total:     len(e.tasks),
		Timestamp: time.Now(),
	}
}

func (e *Engine) publishProgress(r *run) {
	if e.events == nil || r.plan == nil {
		return
	}
	e.publish(e.progressEvent(r))
}

func (e *Engine) progressEvent(r *run) events.RunProgressEvent {
	p := r.plan.Progress()
	return events.RunProgressEvent{
		Run:       r.id,
		Total:     p.Total,
		Completed: p.Completed,
		Degraded:  p.Degraded,
		Running:   p.Running,
		Pending:   p.Pending,
		Timestamp: time.Now(),
	}
}
