package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"
)

const (
	// maxCommandOutput caps what is kept from each stream of a command
	// provider. Anything beyond it is read and discarded.
	maxCommandOutput = 8 << 20

	// stderrTail is how much stderr is quoted in a failure message.
	stderrTail = 512
)

// newCommand creates an exec.Cmd in its own process group. Cancelling ctx
// kills the whole group, not just the direct child.
func newCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	return cmd
}

// processOutput is what a finished command wrote.
type processOutput struct {
	Stdout    []byte
	Stderr    []byte
	Truncated bool
}

// runProcess starts cmd with stdin attached, tracks it under name in pm and
// drains both pipes concurrently until it exits. Output is returned even
// when the command fails.
func runProcess(pm *ProcessManager, name string, cmd *exec.Cmd, stdin io.Reader) (processOutput, error) {
	cmd.Stdin = stdin

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return processOutput{}, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return processOutput{}, fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return processOutput{}, fmt.Errorf("starting %s: %w", filepath.Base(cmd.Path), err)
	}
	if pm != nil {
		pm.Track(name, cmd)
		defer pm.Untrack(cmd)
	}

	stdout := &cappedBuffer{limit: maxCommandOutput}
	stderr := &cappedBuffer{limit: maxCommandOutput}

	// Both pipes must be drained before Wait, or a chatty child blocks on a
	// full pipe buffer.
	var g errgroup.Group
	g.Go(func() error { _, err := io.Copy(stdout, stdoutPipe); return err })
	g.Go(func() error { _, err := io.Copy(stderr, stderrPipe); return err })
	copyErr := g.Wait()
	waitErr := cmd.Wait()

	out := processOutput{
		Stdout:    stdout.buf.Bytes(),
		Stderr:    stderr.buf.Bytes(),
		Truncated: stdout.truncated || stderr.truncated,
	}

	if waitErr != nil {
		msg := tail(out.Stderr, stderrTail)
		if msg == "" {
			return out, fmt.Errorf("%s failed: %w", filepath.Base(cmd.Path), waitErr)
		}
		return out, fmt.Errorf("%s failed: %w: %s", filepath.Base(cmd.Path), waitErr, msg)
	}
	if copyErr != nil {
		return out, fmt.Errorf("reading %s output: %w", filepath.Base(cmd.Path), copyErr)
	}
	return out, nil
}

// cappedBuffer keeps the first limit bytes written and drops the rest
// while still reporting success, so the writer keeps draining the pipe.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	room := c.limit - c.buf.Len()
	if room >= len(p) {
		return c.buf.Write(p)
	}
	c.truncated = true
	if room > 0 {
		c.buf.Write(p[:room])
	}
	return len(p), nil
}

// tail returns the last n bytes of b with surrounding space trimmed.
func tail(b []byte, n int) string {
	b = bytes.TrimSpace(b)
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}

// killProcessGroup sends SIGKILL to the command's whole process group.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return errors.New("process not started")
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("killing process group %d: %w", cmd.Process.Pid, err)
	}
	return nil
}

type trackedProcess struct {
	provider string
	cmd      *exec.Cmd
}

// ProcessManager tracks running command-provider subprocesses so shutdown
// can kill them all.
type ProcessManager struct {
	mu    sync.Mutex
	procs map[int]trackedProcess
}

// NewProcessManager creates an empty ProcessManager.
func NewProcessManager() *ProcessManager {
	return &ProcessManager{procs: make(map[int]trackedProcess)}
}

// Track registers a started subprocess belonging to provider. Unstarted
// commands are ignored.
func (pm *ProcessManager) Track(provider string, cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.procs[cmd.Process.Pid] = trackedProcess{provider: provider, cmd: cmd}
}

// Untrack forgets a subprocess after it has been waited on.
func (pm *ProcessManager) Untrack(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.procs, cmd.Process.Pid)
}

// KillAll kills the process group of every tracked subprocess.
func (pm *ProcessManager) KillAll() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var errs []error
	for _, p := range pm.procs {
		if err := killProcessGroup(p.cmd); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.provider, err))
		}
	}
	return errors.Join(errs...)
}

// Running returns the providers with a tracked subprocess, sorted and
// deduplicated.
func (pm *ProcessManager) Running() []string {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	seen := make(map[string]bool, len(pm.procs))
	names := make([]string, 0, len(pm.procs))
	for _, p := range pm.procs {
		if !seen[p.provider] {
			seen[p.provider] = true
			names = append(names, p.provider)
		}
	}
	sort.Strings(names)
	return names
}

// Count returns the number of tracked subprocesses.
func (pm *ProcessManager) Count() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.procs)
}
