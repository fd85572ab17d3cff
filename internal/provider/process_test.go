package provider

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"syscall"
	"testing"
	"time"
)

// TestRunProcess_LargeOutput verifies concurrent pipe draining does not
// deadlock on output larger than a pipe buffer.
func TestRunProcess_LargeOutput(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := newCommand(ctx, "bash", "-c", "for i in $(seq 1 20000); do echo line-$i; echo err-$i >&2; done")
	out, err := runProcess(nil, "local", cmd, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(out.Stdout)), "\n")
	if len(lines) != 20000 {
		t.Errorf("Expected 20000 lines, got %d", len(lines))
	}
	if out.Truncated {
		t.Error("Output under the cap should not be truncated")
	}
}

// TestRunProcess_FailureQuotesStderr verifies output capture on failure and
// that stderr reaches the error text the classifier reads.
func TestRunProcess_FailureQuotesStderr(t *testing.T) {
	cmd := newCommand(context.Background(), "bash", "-c", "echo partial; echo 503 overloaded >&2; exit 1")

	out, err := runProcess(nil, "local", cmd, nil)
	if err == nil {
		t.Fatal("Expected error due to non-zero exit code, got nil")
	}
	if !strings.Contains(string(out.Stdout), "partial") {
		t.Errorf("Expected stdout despite error, got: %s", out.Stdout)
	}
	if !strings.Contains(err.Error(), "503 overloaded") {
		t.Errorf("Expected stderr in error, got: %v", err)
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Errorf("Expected wrapped *exec.ExitError with code 1, got %T: %v", err, err)
	}
}

// TestRunProcess_TracksWhileRunning verifies the subprocess is tracked under
// its provider name until it exits.
func TestRunProcess_TracksWhileRunning(t *testing.T) {
	pm := NewProcessManager()
	done := make(chan error, 1)

	cmd := newCommand(context.Background(), "sleep", "30")
	go func() {
		_, err := runProcess(pm, "ollama", cmd, nil)
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for pm.Count() == 0 {
		select {
		case <-deadline:
			t.Fatal("subprocess was never tracked")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got := pm.Running(); len(got) != 1 || got[0] != "ollama" {
		t.Errorf("Running() = %v, want [ollama]", got)
	}

	if err := pm.KillAll(); err != nil {
		t.Fatalf("KillAll failed: %v", err)
	}
	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected killed process to report an error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Process did not terminate after KillAll()")
	}
	if pm.Count() != 0 {
		t.Errorf("Expected 0 tracked processes after exit, got %d", pm.Count())
	}
}

// TestProcessManager_TrackAndKillAll verifies tracked processes are killed
// by signal.
func TestProcessManager_TrackAndKillAll(t *testing.T) {
	pm := NewProcessManager()

	cmd := newCommand(context.Background(), "sleep", "300")
	if err := cmd.Start(); err != nil {
		t.Fatalf("Failed to start process: %v", err)
	}

	pm.Track("local", cmd)
	if pm.Count() != 1 {
		t.Errorf("Expected 1 tracked process, got %d", pm.Count())
	}

	if err := pm.KillAll(); err != nil {
		t.Fatalf("KillAll failed: %v", err)
	}

	err := cmd.Wait()
	if err == nil {
		t.Fatal("Expected process to be killed, got nil")
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && !status.Signaled() {
			t.Errorf("Expected process to be signaled, got exit status: %v", status)
		}
	}

	pm.Untrack(cmd)
	if pm.Count() != 0 {
		t.Errorf("Expected 0 tracked processes after Untrack, got %d", pm.Count())
	}
}

// TestProcessManager_UnstartedCommand verifies unstarted commands are ignored.
func TestProcessManager_UnstartedCommand(t *testing.T) {
	pm := NewProcessManager()
	pm.Track("local", exec.Command("true"))
	if pm.Count() != 0 {
		t.Errorf("Expected unstarted command to be ignored, got %d", pm.Count())
	}
}

// TestCappedBuffer verifies writes past the limit are dropped but reported
// as written.
func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{limit: 5}

	n, err := b.Write([]byte("abc"))
	if err != nil || n != 3 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	n, err = b.Write([]byte("defgh"))
	if err != nil || n != 5 {
		t.Fatalf("Write = %d, %v, want full length reported", n, err)
	}
	if got := b.buf.String(); got != "abcde" {
		t.Errorf("buffer = %q, want %q", got, "abcde")
	}
	if !b.truncated {
		t.Error("Expected truncated flag")
	}
}
