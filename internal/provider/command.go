package provider

import (
	"context"
	"fmt"
	"strings"
)

// commandInvoker runs a local model CLI (for example "ollama run llama3.2")
// with the prompt on stdin and returns its stdout.
type commandInvoker struct {
	procs *ProcessManager
}

func newCommandInvoker(pm *ProcessManager) *commandInvoker {
	return &commandInvoker{procs: pm}
}

func (c *commandInvoker) Invoke(ctx context.Context, h Handle, p Prompt) (string, error) {
	if h.Command == "" {
		return "", fmt.Errorf("%s: command is required", h.Name)
	}

	cmd := newCommand(ctx, h.Command, h.Args...)
	out, err := runProcess(c.procs, h.Name, cmd, strings.NewReader(p.Combined()))
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", h.Name, ctx.Err())
		}
		return "", fmt.Errorf("%s: %w", h.Name, err)
	}

	text := strings.TrimSpace(string(out.Stdout))
	if text == "" {
		return "", fmt.Errorf("%s: %w", h.Name, ErrEmptyResponse)
	}
	return text, nil
}
