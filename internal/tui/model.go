// Package tui is the terminal front end: an intake form and a live view of
// a report run.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/careercrew/internal/events"
	"github.com/aristath/careercrew/internal/orchestrator"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneTasks PaneID = iota
	PaneProgress
)

// RunFunc produces the report. It runs on its own goroutine.
type RunFunc func(ctx context.Context) *orchestrator.Report

// reportMsg carries the finished report back to the model.
type reportMsg struct {
	report *orchestrator.Report
}

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	taskPane     TaskPaneModel
	progressPane ProgressPaneModel
	reportView   viewport.Model
	showReport   bool
	focusedPane  PaneID
	eventSub     <-chan events.Event
	run          RunFunc
	ctx          context.Context
	cancel       context.CancelFunc
	result       *orchestrator.Report
	width        int
	height       int
	quitting     bool
}

// New creates a new TUI model. It subscribes to all events from the event
// bus using SubscribeAll; run starts when the program does.
func New(ctx context.Context, eventBus *events.EventBus, run RunFunc) Model {
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		taskPane:     NewTaskPaneModel(),
		progressPane: NewProgressPaneModel(),
		reportView:   viewport.New(0, 0),
		focusedPane:  PaneTasks,
		eventSub:     eventBus.SubscribeAll(256),
		run:          run,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	run, ctx := m.run, m.ctx
	return tea.Batch(
		waitForEvent(m.eventSub),
		m.progressPane.Init(),
		func() tea.Msg { return reportMsg{report: run(ctx)} },
	)
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Report returns the finished report, or nil if the run has not returned.
func (m Model) Report() *orchestrator.Report {
	return m.result
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case KeyCtrlC:
			// Cancel and wait for the run to hand back its report.
			m.cancel()
			m.quitting = true
			if m.result != nil {
				return m, tea.Quit
			}
			return m, nil

		case KeyQuit:
			if m.result != nil {
				m.quitting = true
				return m, tea.Quit
			}

		case KeyReport:
			if m.result != nil {
				m.showReport = !m.showReport
			}

		case KeyTab, KeyShiftTab:
			m.focusedPane = (m.focusedPane + 1) % 2
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneTasks
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PaneProgress
			m.updateFocusStates()

		default:
			var cmd tea.Cmd
			if m.showReport {
				m.reportView, cmd = m.reportView.Update(msg)
			} else if m.focusedPane == PaneTasks {
				m.taskPane, cmd = m.taskPane.Update(msg)
			}
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()

	case reportMsg:
		m.result = msg.report
		m.cancel()
		m.showReport = true
		m.setReportContent()
		if m.quitting {
			return m, tea.Quit
		}

	case events.Event:
		var cmd tea.Cmd
		m.taskPane, cmd = m.taskPane.Update(msg)
		cmds = append(cmds, cmd)
		m.progressPane, cmd = m.progressPane.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, waitForEvent(m.eventSub))

	default:
		var cmd tea.Cmd
		m.progressPane, cmd = m.progressPane.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting && m.result != nil {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	helpBar := HelpView(m.result != nil)

	if m.showReport {
		box := StyleFocusedBorder.
			Width(m.width - 2).
			Height(m.height - 3).
			Render(m.reportView.View())
		return lipgloss.JoinVertical(lipgloss.Left, box, helpBar)
	}

	mainContent := lipgloss.JoinVertical(lipgloss.Left, m.taskPane.View(), m.progressPane.View())
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, helpBar)
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	availableHeight := m.height - 1 // reserve 1 line for help bar
	progressHeight := min(13, availableHeight/2)

	m.taskPane.SetSize(m.width, availableHeight-progressHeight)
	m.progressPane.SetSize(m.width, progressHeight)

	m.reportView.Width = max(m.width-4, 10)
	m.reportView.Height = max(m.height-5, 5)
	m.setReportContent()

	m.updateFocusStates()
}

func (m *Model) setReportContent() {
	if m.result == nil {
		return
	}
	text := m.result.Text
	if m.reportView.Width > 0 {
		text = lipgloss.NewStyle().Width(m.reportView.Width).Render(text)
	}
	m.reportView.SetContent(text)
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.taskPane.SetFocused(m.focusedPane == PaneTasks)
	m.progressPane.SetFocused(m.focusedPane == PaneProgress)
}

// Run shows the live view until the user quits and returns the report. The
// report is nil only if the program failed before the run finished.
func Run(ctx context.Context, eventBus *events.EventBus, run RunFunc) (*orchestrator.Report, error) {
	final, err := tea.NewProgram(New(ctx, eventBus, run), tea.WithAltScreen()).Run()
	if m, ok := final.(Model); ok {
		return m.Report(), err
	}
	return nil, err
}
