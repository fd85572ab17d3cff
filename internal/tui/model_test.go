package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/careercrew/internal/events"
	"github.com/aristath/careercrew/internal/orchestrator"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	bus := events.NewEventBus()
	t.Cleanup(bus.Close)

	m := New(context.Background(), bus, func(ctx context.Context) *orchestrator.Report {
		return &orchestrator.Report{Text: "# Report"}
	})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// TestModel_TracksTaskLifecycle verifies events drive list, log and counts.
func TestModel_TracksTaskLifecycle(t *testing.T) {
	m := newTestModel(t)

	m = update(m,
		events.RunProgressEvent{Total: 7, Running: 1, Pending: 6},
		events.TaskStartedEvent{ID: "skills", Name: "Skill Development", AgentRole: "Learning and Skill Advisor", Index: 3, Total: 7, Timestamp: time.Now()},
		events.AttemptEvent{ID: "skills", Provider: "openrouter_primary", Attempt: 1, Outcome: events.OutcomeRetry, Err: errors.New("503"), Wait: 2 * time.Second},
		events.AttemptEvent{ID: "skills", Provider: "openrouter_primary", Attempt: 2, Outcome: events.OutcomeFailed, Class: "fatal", Err: errors.New("402")},
		events.ProviderFallbackEvent{ID: "skills", From: "openrouter_primary", To: "gemini_secondary"},
		events.TaskCompletedEvent{ID: "skills", Placeholder: true, Duration: time.Second},
		events.RunProgressEvent{Total: 7, Degraded: 1, Pending: 6},
	)

	task := m.taskPane.Selected()
	if task == nil {
		t.Fatal("Expected the started task to be selected")
	}
	if task.Status != stateDegraded {
		t.Errorf("Expected degraded status, got %s", task.Status)
	}
	log := strings.Join(task.Log, "\n")
	for _, want := range []string{"[3/7]", "retrying in 2s", "falling back to gemini_secondary", "fallback content"} {
		if !strings.Contains(log, want) {
			t.Errorf("Expected %q in log:\n%s", want, log)
		}
	}

	if m.progressPane.retries != 1 || m.progressPane.fallbacks != 1 || m.progressPane.degraded != 1 {
		t.Errorf("Unexpected progress counts: %+v", m.progressPane)
	}
	if view := m.View(); !strings.Contains(view, "Skill Development") {
		t.Error("Expected task name in view")
	}
}

// TestModel_RestartedTaskIsNotDuplicated verifies a task started again
// after the batch attempt keeps one list entry.
func TestModel_RestartedTaskIsNotDuplicated(t *testing.T) {
	m := newTestModel(t)
	start := events.TaskStartedEvent{ID: "profile", Name: "Profile", Index: 1, Total: 7}
	m = update(m, start, events.TaskCompletedEvent{ID: "profile", Provider: "gemini_primary"}, start)

	if len(m.taskPane.taskOrder) != 1 {
		t.Fatalf("Expected 1 task entry, got %d", len(m.taskPane.taskOrder))
	}
	if m.taskPane.Selected().Status != stateRunning {
		t.Errorf("Expected restarted task to be running")
	}
}

// TestModel_QuitWaitsForReport verifies q is ignored until the report is in
// and ctrl+c waits for the cancelled run to return.
func TestModel_QuitWaitsForReport(t *testing.T) {
	m := newTestModel(t)

	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd != nil {
		if _, ok := cmd().(tea.QuitMsg); ok {
			t.Fatal("q must not quit while the run is in progress")
		}
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	if cmd != nil {
		t.Fatal("ctrl+c should wait for the report before quitting")
	}
	if m.ctx.Err() == nil {
		t.Error("ctrl+c should cancel the run")
	}

	next, cmd = m.Update(reportMsg{report: &orchestrator.Report{Text: "# Emergency"}})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("Expected quit once the report arrived")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.Quit")
	}
	if m.Report() == nil || m.Report().Text != "# Emergency" {
		t.Error("Expected the report to be kept")
	}
}

func TestModel_ShowsReportWhenDone(t *testing.T) {
	m := newTestModel(t)
	m = update(m, reportMsg{report: &orchestrator.Report{Text: "# Comprehensive Career Report\n\nhello"}})

	if !m.showReport {
		t.Fatal("Expected report view after completion")
	}
	if !strings.Contains(m.View(), "Comprehensive Career Report") {
		t.Error("Expected report text in view")
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if m.showReport {
		t.Error("Expected r to toggle back to the progress view")
	}
}

func TestProfile_UserInfo(t *testing.T) {
	p := Profile{Name: "Sam", Stage: "High School Student", Interests: " robotics ", Goals: "engineer"}
	want := "Name: Sam\nCurrent Stage: High School Student\nInterests: robotics\nGoals: engineer"
	if got := p.UserInfo(); got != want {
		t.Errorf("UserInfo() = %q, want %q", got, want)
	}
}
