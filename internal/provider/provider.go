// Package provider implements the text-generation backends the engine
// delegates work to: Google Gemini, OpenAI-compatible chat completions
// (OpenRouter, Perplexity) and local command-line models.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Provider types understood by the Registry.
const (
	TypeGemini  = "gemini"
	TypeChat    = "openai"
	TypeCommand = "command"
)

// Handle identifies one configured provider: which service, which model and
// which sampling parameters. Handles are values; a work item is rebound to a
// different provider by passing it a different Handle, never by mutating one.
type Handle struct {
	Name          string
	Type          string
	Model         string
	BaseURL       string
	Temperature   *float64
	CredentialEnv string        // environment variable holding the API key
	Command       string        // TypeCommand only
	Args          []string      // TypeCommand only
	Timeout       time.Duration // per-call bound, 0 disables
}

// String returns the handle's display name.
func (h Handle) String() string {
	if h.Model == "" {
		return h.Name
	}
	return h.Name + " (" + h.Model + ")"
}

// Prompt is the text sent to a provider.
type Prompt struct {
	System string
	User   string
}

// Combined folds the system and user parts into a single text for backends
// without a separate system channel.
func (p Prompt) Combined() string {
	if p.System == "" {
		return p.User
	}
	return p.System + "\n\n" + p.User
}

// Invoker performs a single call against the provider described by h.
type Invoker interface {
	Invoke(ctx context.Context, h Handle, p Prompt) (string, error)
}

// InvokerFunc adapts an ordinary function to the Invoker interface.
type InvokerFunc func(ctx context.Context, h Handle, p Prompt) (string, error)

// Invoke calls f(ctx, h, p).
func (f InvokerFunc) Invoke(ctx context.Context, h Handle, p Prompt) (string, error) {
	return f(ctx, h, p)
}

// Options configures the built-in invokers.
type Options struct {
	HTTPClient *http.Client
	Processes  *ProcessManager
	Logger     *slog.Logger
	// LookupEnv resolves credential references. Defaults to os.Getenv.
	LookupEnv func(string) string
}

// Registry dispatches calls to the invoker registered for a handle's type.
type Registry struct {
	invokers map[string]Invoker
	logger   *slog.Logger
}

// NewRegistry creates a registry with the gemini, openai and command
// invokers installed.
func NewRegistry(opts Options) *Registry {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.Getenv
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	creds := credentials{lookup: opts.LookupEnv}
	r := &Registry{
		invokers: make(map[string]Invoker),
		logger:   opts.Logger,
	}
	r.Register(TypeGemini, newGemini(opts.HTTPClient, creds))
	r.Register(TypeChat, newChat(opts.HTTPClient, creds))
	r.Register(TypeCommand, newCommandInvoker(opts.Processes))
	return r
}

// Register installs inv for handles of the given type, replacing any
// previous registration.
func (r *Registry) Register(typ string, inv Invoker) {
	r.invokers[strings.ToLower(typ)] = inv
}

// Supports reports whether an invoker exists for typ.
func (r *Registry) Supports(typ string) bool {
	_, ok := r.invokers[strings.ToLower(typ)]
	return ok
}

// Invoke routes the call to the invoker for h.Type, applying h.Timeout.
func (r *Registry) Invoke(ctx context.Context, h Handle, p Prompt) (string, error) {
	inv, ok := r.invokers[strings.ToLower(h.Type)]
	if !ok {
		return "", fmt.Errorf("unknown provider type: %s", h.Type)
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := inv.Invoke(ctx, h, p)
	r.logger.Debug("provider call finished",
		"provider", h.Name,
		"model", h.Model,
		"duration", time.Since(start),
		"ok", err == nil)
	return out, err
}

// credentials resolves API keys by environment variable name.
type credentials struct {
	lookup func(string) string
}

// resolve returns the API key for h. A handle without a credential reference
// gets an empty key; a reference to an unset variable is reported as an
// authorization failure so the caller moves on to another provider.
func (c credentials) resolve(h Handle) (string, error) {
	if h.CredentialEnv == "" {
		return "", nil
	}
	key := strings.TrimSpace(c.lookup(h.CredentialEnv))
	if key == "" {
		return "", &StatusError{
			Provider: h.Name,
			Status:   http.StatusUnauthorized,
			Message:  "credential " + h.CredentialEnv + " is not set",
		}
	}
	return key, nil
}
