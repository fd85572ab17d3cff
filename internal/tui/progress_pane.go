package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/careercrew/internal/events"
)

// ProgressPaneModel shows run progress counts and a bar.
type ProgressPaneModel struct {
	spinner   spinner.Model
	total     int
	completed int
	degraded  int
	running   int
	pending   int
	fallbacks int
	retries   int
	done      bool
	status    string
	width     int
	height    int
	focused   bool
}

// NewProgressPaneModel creates a new progress pane.
func NewProgressPaneModel() ProgressPaneModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StyleStatusRunning
	return ProgressPaneModel{spinner: s}
}

// Init starts the spinner.
func (m ProgressPaneModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the progress pane.
func (m ProgressPaneModel) Update(msg tea.Msg) (ProgressPaneModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case events.RunProgressEvent:
		m.total = msg.Total
		m.completed = msg.Completed
		m.degraded = msg.Degraded
		m.running = msg.Running
		m.pending = msg.Pending

	case events.AttemptEvent:
		if msg.Outcome == events.OutcomeRetry {
			m.retries++
		}

	case events.ProviderFallbackEvent:
		m.fallbacks++

	case events.RunCompletedEvent:
		m.done = true
		m.status = msg.Status
	}
	return m, nil
}

// View renders the progress pane.
func (m ProgressPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder

	heading := m.spinner.View() + " Generating report"
	if m.done {
		heading = "Report " + m.status
	}
	title := StyleTitle.Render(heading)
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", lipgloss.Width(title)))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Total:     %d\n", m.total))
	b.WriteString(fmt.Sprintf("Completed: %s\n", StyleStatusComplete.Render(fmt.Sprintf("%d", m.completed))))
	b.WriteString(fmt.Sprintf("Fallback:  %s\n", StyleStatusDegraded.Render(fmt.Sprintf("%d", m.degraded))))
	b.WriteString(fmt.Sprintf("Running:   %s\n", StyleStatusRunning.Render(fmt.Sprintf("%d", m.running))))
	b.WriteString(fmt.Sprintf("Pending:   %s\n", StyleStatusPending.Render(fmt.Sprintf("%d", m.pending))))
	b.WriteString(fmt.Sprintf("Retries:   %d   Provider switches: %d\n", m.retries, m.fallbacks))
	b.WriteString("\n")

	if m.total > 0 {
		barWidth := min(m.width-4, 40)
		completedWidth := (m.completed * barWidth) / m.total
		degradedWidth := (m.degraded * barWidth) / m.total
		runningWidth := (m.running * barWidth) / m.total
		pendingWidth := barWidth - completedWidth - degradedWidth - runningWidth

		bar := StyleStatusComplete.Render(strings.Repeat("=", max(0, completedWidth)))
		bar += StyleStatusDegraded.Render(strings.Repeat("~", max(0, degradedWidth)))
		bar += StyleStatusRunning.Render(strings.Repeat("-", max(0, runningWidth)))
		bar += StyleStatusPending.Render(strings.Repeat(".", max(0, pendingWidth)))

		b.WriteString(fmt.Sprintf("[%s]  %d/%d\n", bar, m.completed+m.degraded, m.total))
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}
	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// SetSize updates the pane dimensions.
func (m *ProgressPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused updates the focus state.
func (m *ProgressPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
