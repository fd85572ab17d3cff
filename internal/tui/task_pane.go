package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/careercrew/internal/events"
)

// Task display states.
const (
	stateRunning  = "running"
	stateComplete = "completed"
	stateDegraded = "degraded"
)

// TaskState is what the pane knows about one task.
type TaskState struct {
	TaskID    string
	Name      string
	AgentRole string
	Status    string
	Provider  string
	Log       []string
	StartTime time.Time
	Duration  time.Duration
}

// TaskPaneModel is the task list plus a scrollable log of the selected
// task's provider attempts.
type TaskPaneModel struct {
	tasks       map[string]*TaskState // taskID -> state
	taskOrder   []string
	selectedIdx int
	viewport    viewport.Model
	width       int
	height      int
	focused     bool
}

// NewTaskPaneModel creates an empty task pane.
func NewTaskPaneModel() TaskPaneModel {
	return TaskPaneModel{
		tasks:    make(map[string]*TaskState),
		viewport: viewport.New(0, 0),
	}
}

// Update handles messages for the task pane.
func (m TaskPaneModel) Update(msg tea.Msg) (TaskPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			break
		}
		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.taskOrder)-1 {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.TaskStartedEvent:
		t, exists := m.tasks[msg.ID]
		if !exists {
			t = &TaskState{TaskID: msg.ID, Name: msg.Name, AgentRole: msg.AgentRole}
			m.tasks[msg.ID] = t
			m.taskOrder = append(m.taskOrder, msg.ID)
		}
		// A task can start twice when the batch attempt gives way to
		// individual execution.
		t.Status = stateRunning
		t.StartTime = msg.Timestamp
		t.Log = append(t.Log, fmt.Sprintf("[%d/%d] %s started", msg.Index, msg.Total, msg.AgentRole))
		for i, id := range m.taskOrder {
			if id == msg.ID {
				m.selectedIdx = i
			}
		}
		m.updateViewportContent()

	case events.AttemptEvent:
		m.appendLog(msg.ID, attemptLine(msg))

	case events.ProviderFallbackEvent:
		line := fmt.Sprintf("%s gave up, falling back to %s", msg.From, msg.To)
		if msg.To == "" {
			line = fmt.Sprintf("%s gave up, no providers left", msg.From)
		}
		m.appendLog(msg.ID, line)

	case events.TaskCompletedEvent:
		if t, exists := m.tasks[msg.ID]; exists {
			t.Duration = msg.Duration
			t.Provider = msg.Provider
			if msg.Placeholder {
				t.Status = stateDegraded
				t.Log = append(t.Log, fmt.Sprintf("Using fallback content after %v", msg.Duration.Round(time.Millisecond)))
			} else {
				t.Status = stateComplete
				t.Log = append(t.Log, fmt.Sprintf("Completed by %s in %v", msg.Provider, msg.Duration.Round(time.Millisecond)))
			}
			if m.selectedTaskID() == msg.ID {
				m.updateViewportContent()
			}
		}
	}

	return m, cmd
}

func attemptLine(e events.AttemptEvent) string {
	switch e.Outcome {
	case events.OutcomeSuccess:
		return fmt.Sprintf("attempt %d on %s succeeded", e.Attempt, e.Provider)
	case events.OutcomeRetry:
		return fmt.Sprintf("attempt %d on %s failed (%v), retrying in %v", e.Attempt, e.Provider, e.Err, e.Wait)
	default:
		return fmt.Sprintf("attempt %d on %s %s (%s): %v", e.Attempt, e.Provider, e.Outcome, e.Class, e.Err)
	}
}

func (m *TaskPaneModel) appendLog(taskID, line string) {
	t, exists := m.tasks[taskID]
	if !exists {
		return
	}
	t.Log = append(t.Log, line)
	if m.selectedTaskID() == taskID {
		m.updateViewportContent()
	}
}

// View renders the task pane.
func (m TaskPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	listWidth := 30
	viewportWidth := m.width - listWidth - 4

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTaskList(listWidth),
		lipgloss.NewStyle().
			Width(viewportWidth).
			Height(m.height-2).
			Render(m.viewport.View()),
	)

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m TaskPaneModel) renderTaskList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render("Tasks")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	if len(m.taskOrder) == 0 {
		b.WriteString(StyleStatusPending.Render("Waiting..."))
	}
	for i, id := range m.taskOrder {
		t := m.tasks[id]
		name := t.Name
		if len(name) > width-6 {
			name = name[:width-9] + "..."
		}
		line := fmt.Sprintf("%s %s", StatusIcon(t.Status), name)
		if i == m.selectedIdx {
			line = StyleSelected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// StatusIcon returns a styled status indicator.
func StatusIcon(status string) string {
	switch status {
	case stateRunning:
		return StyleStatusRunning.Render("●")
	case stateComplete:
		return StyleStatusComplete.Render("✓")
	case stateDegraded:
		return StyleStatusDegraded.Render("◐")
	default:
		return StyleStatusPending.Render("○")
	}
}

func (m TaskPaneModel) selectedTaskID() string {
	if m.selectedIdx >= 0 && m.selectedIdx < len(m.taskOrder) {
		return m.taskOrder[m.selectedIdx]
	}
	return ""
}

// Selected returns the state of the selected task, or nil.
func (m TaskPaneModel) Selected() *TaskState {
	return m.tasks[m.selectedTaskID()]
}

func (m *TaskPaneModel) updateViewportContent() {
	t := m.Selected()
	if t == nil {
		m.viewport.SetContent("Waiting for tasks...")
		return
	}
	m.viewport.SetContent(strings.Join(t.Log, "\n"))
	m.viewport.GotoBottom()
}

// SetSize updates the pane dimensions.
func (m *TaskPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = max(m.width-30-4, 10)
	m.viewport.Height = max(m.height-4, 5)
	m.updateViewportContent()
}

// SetFocused updates the focus state.
func (m *TaskPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
