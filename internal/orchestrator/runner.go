package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/careercrew/internal/events"
	"github.com/aristath/careercrew/internal/provider"
	"github.com/aristath/careercrew/internal/scheduler"
)

// BuildPrompt renders the prompt for task: the agent persona as system
// text, then the description with the run input substituted, the expected
// output, and every prior result as context.
func BuildPrompt(task scheduler.Task, userInfo string, prior []TaskResult) provider.Prompt {
	var sys strings.Builder
	if task.Agent.Role != "" {
		fmt.Fprintf(&sys, "You are a %s. %s", task.Agent.Role, task.Agent.Backstory)
		if task.Agent.Goal != "" {
			fmt.Fprintf(&sys, "\n\nYour goal: %s", task.Agent.Goal)
		}
	}

	var user strings.Builder
	user.WriteString(strings.ReplaceAll(task.Description, scheduler.UserInfoToken, userInfo))
	if task.ExpectedOutput != "" {
		fmt.Fprintf(&user, "\n\nExpected output: %s", task.ExpectedOutput)
	}
	if len(prior) > 0 {
		user.WriteString("\n\nContext from previous tasks:")
		for _, r := range prior {
			fmt.Fprintf(&user, "\n\n### %s\n%s", r.Name, strings.TrimSpace(r.Output))
		}
	}

	return provider.Prompt{System: strings.TrimSpace(sys.String()), User: user.String()}
}

// RunTask runs one task through its provider chain. When the chain is
// exhausted the registered placeholder is returned instead of an error.
// Only ErrChainNotConfigured and the caller's own cancellation or deadline
// are returned as errors; the task timeout yields the placeholder.
func (e *Engine) RunTask(ctx context.Context, task scheduler.Task, userInfo string, prior []TaskResult) (TaskResult, error) {
	return e.runTask(ctx, "", task, userInfo, prior)
}

func (e *Engine) runTask(ctx context.Context, runID string, task scheduler.Task, userInfo string, prior []TaskResult) (TaskResult, error) {
	parent := ctx
	if e.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.taskTimeout)
		defer cancel()
	}

	prompt := BuildPrompt(task, userInfo, prior)
	work := func(ctx context.Context, h provider.Handle) (string, error) {
		return e.invoker.Invoke(ctx, h, prompt)
	}

	c := call{run: runID, task: task.ID, kind: task.Kind}
	out, h, err := e.executeChain(ctx, c, work)
	if err == nil {
		return TaskResult{
			TaskID:   task.ID,
			Kind:     task.Kind,
			Name:     task.Name,
			Output:   out,
			Provider: h.Name,
		}, nil
	}

	if errors.Is(err, ErrChainNotConfigured) {
		return TaskResult{}, err
	}

	// A task deadline is absorbed like any other exhaustion; the caller's
	// own cancellation or deadline is not.
	if perr := parent.Err(); perr != nil {
		return TaskResult{}, fmt.Errorf("%s: %w", task.Kind, perr)
	}
	if !errors.Is(err, ErrChainExhausted) && !e.taskDeadlineHit(ctx) {
		return TaskResult{}, err
	}

	e.logger.Warn("using fallback content", "task", task.Kind, "name", task.Name, "error", err)
	return TaskResult{
		TaskID:      task.ID,
		Kind:        task.Kind,
		Name:        task.Name,
		Output:      e.Placeholder(task.Kind, userInfo),
		Placeholder: true,
	}, nil
}

// taskDeadlineHit reports whether ctx, the task-scoped context, ended
// because of the task timeout. Callers check the parent first.
func (e *Engine) taskDeadlineHit(ctx context.Context) bool {
	return e.taskTimeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func (e *Engine) publishTaskCompleted(runID string, r TaskResult, d time.Duration) {
	e.publish(taskCompletedEvent(runID, r, d))
}

func taskCompletedEvent(runID string, r TaskResult, d time.Duration) events.TaskCompletedEvent {
	return events.TaskCompletedEvent{
		Run:         runID,
		ID:          r.TaskID,
		Kind:        string(r.Kind),
		Provider:    r.Provider,
		Placeholder: r.Placeholder,
		Duration:    d,
		Timestamp:   time.Now(),
	}
}
