package scheduler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gammazero/toposort"
)

// DAG holds a task sequence and its declared context dependencies. Tasks
// keep their insertion order, which is the order they run in.
type DAG struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]*Task
}

// NewDAG creates an empty DAG.
func NewDAG() *DAG {
	return &DAG{
		tasks: make(map[string]*Task),
	}
}

// NewPlan builds a DAG from tasks in run order and validates it.
func NewPlan(tasks []Task) (*DAG, error) {
	d := NewDAG()
	for i := range tasks {
		t := tasks[i]
		if err := d.AddTask(&t); err != nil {
			return nil, err
		}
	}
	if _, err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// AddTask appends a task. Returns error if the ID already exists.
func (d *DAG) AddTask(task *Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if task.ID == "" {
		return fmt.Errorf("task %q has no ID", task.Name)
	}
	if _, exists := d.tasks[task.ID]; exists {
		return fmt.Errorf("task with ID %q already exists", task.ID)
	}

	d.tasks[task.ID] = cloneTask(task)
	d.order = append(d.order, task.ID)
	return nil
}

// Validate checks that every dependency exists, that the graph is acyclic
// and that the insertion order runs each task after everything it depends
// on. Returns a topological order of task IDs.
func (d *DAG) Validate() ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	position := make(map[string]int, len(d.order))
	for i, id := range d.order {
		position[id] = i
	}

	var edges []toposort.Edge
	for _, id := range d.order {
		task := d.tasks[id]
		if len(task.DependsOn) == 0 {
			edges = append(edges, toposort.Edge{nil, id})
			continue
		}
		for _, depID := range task.DependsOn {
			if _, exists := d.tasks[depID]; !exists {
				return nil, fmt.Errorf("task %q depends on non-existent task %q", id, depID)
			}
			edges = append(edges, toposort.Edge{depID, id})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("task graph contains cycle: %w", err)
	}

	topo := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if id != nil {
			topo = append(topo, id.(string))
		}
	}
	if len(topo) != len(d.tasks) {
		return nil, fmt.Errorf("topological sort lost %d tasks", len(d.tasks)-len(topo))
	}

	var late []string
	for _, id := range d.order {
		for _, depID := range d.tasks[id].DependsOn {
			if position[depID] > position[id] {
				late = append(late, fmt.Sprintf("%s before %s", id, depID))
			}
		}
	}
	if len(late) > 0 {
		return nil, fmt.Errorf("task order violates dependencies: %s", strings.Join(late, ", "))
	}

	return topo, nil
}

// MarkRunning sets task status to TaskRunning.
func (d *DAG) MarkRunning(taskID string) error {
	return d.update(taskID, func(t *Task) { t.Status = TaskRunning })
}

// MarkCompleted stores a provider result.
func (d *DAG) MarkCompleted(taskID string, result string) error {
	return d.update(taskID, func(t *Task) {
		t.Status = TaskCompleted
		t.Result = result
	})
}

// MarkDegraded stores placeholder content.
func (d *DAG) MarkDegraded(taskID string, result string) error {
	return d.update(taskID, func(t *Task) {
		t.Status = TaskDegraded
		t.Result = result
	})
}

// MarkFailed records that the task could not run at all.
func (d *DAG) MarkFailed(taskID string) error {
	return d.update(taskID, func(t *Task) { t.Status = TaskFailed })
}

func (d *DAG) update(taskID string, fn func(*Task)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	task, exists := d.tasks[taskID]
	if !exists {
		return fmt.Errorf("task %q not found", taskID)
	}
	fn(task)
	return nil
}

// Get returns a copy of the task with the given ID.
func (d *DAG) Get(taskID string) (*Task, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	task, exists := d.tasks[taskID]
	if !exists {
		return nil, false
	}
	return cloneTask(task), true
}

// Tasks returns copies of all tasks in run order.
func (d *DAG) Tasks() []*Task {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tasks := make([]*Task, 0, len(d.order))
	for _, id := range d.order {
		tasks = append(tasks, cloneTask(d.tasks[id]))
	}
	return tasks
}

// Progress counts tasks per status.
type Progress struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Degraded  int
	Failed    int
}

// Progress returns current status counts.
func (d *DAG) Progress() Progress {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p := Progress{Total: len(d.order)}
	for _, task := range d.tasks {
		switch task.Status {
		case TaskPending:
			p.Pending++
		case TaskRunning:
			p.Running++
		case TaskCompleted:
			p.Completed++
		case TaskDegraded:
			p.Degraded++
		case TaskFailed:
			p.Failed++
		}
	}
	return p
}

func cloneTask(task *Task) *Task {
	if task == nil {
		return nil
	}

	cp := *task
	if task.DependsOn != nil {
		cp.DependsOn = append([]string(nil), task.DependsOn...)
	}
	return &cp
}
