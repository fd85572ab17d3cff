package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/aristath/careercrew/internal/config"
	"github.com/aristath/careercrew/internal/events"
	"github.com/aristath/careercrew/internal/logging"
	"github.com/aristath/careercrew/internal/metrics"
	"github.com/aristath/careercrew/internal/orchestrator"
	"github.com/aristath/careercrew/internal/provider"
)

// app holds the flag values and the services every subcommand shares.
type app struct {
	configPath string
	envFile    string
	logLevel   string
	logFormat  string

	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	lookupEnv  func(string) string
	isTerminal func() bool

	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
	bus       *events.EventBus
	processes *provider.ProcessManager
	recorder  *metrics.Recorder
	invoker   provider.Invoker
	cancel    context.CancelFunc
}

func newApp() *app {
	return &app{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		lookupEnv:  os.Getenv,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		processes:  provider.NewProcessManager(),
	}
}

// setup loads the environment and configuration, then builds the logger,
// event bus and metrics recorder.
func (a *app) setup(ctx context.Context) error {
	var envFiles []string
	if a.envFile != "" {
		envFiles = append(envFiles, a.envFile)
	}
	if err := config.LoadEnv(envFiles...); err != nil {
		return err
	}

	globalPath, projectPath, err := config.Paths()
	if err != nil {
		return err
	}
	if a.configPath != "" {
		projectPath = a.configPath
	}
	cfg, err := config.Load(globalPath, projectPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	a.cfg = cfg

	logger, closer, err := logging.Setup(cfg.Logging)
	if err != nil {
		return err
	}
	a.logger = logger
	a.logCloser = closer

	ctx, a.cancel = context.WithCancel(ctx)
	a.bus = events.NewEventBus()
	a.recorder = metrics.New()
	a.recorder.WatchDropped(a.bus.Dropped)
	go a.recorder.Consume(ctx, a.bus.SubscribeAll(1024))
	return nil
}

// quiet drops log output that has no file to go to, so it cannot tear
// through a full-screen view.
func (a *app) quiet() {
	if a.cfg.Logging.File == "" {
		a.logger = logging.Discard()
		slog.SetDefault(a.logger)
	}
}

// provider returns the invoker used for every call, building the registry
// on first use.
func (a *app) provider() provider.Invoker {
	if a.invoker == nil {
		a.invoker = provider.NewRegistry(provider.Options{
			Processes: a.processes,
			Logger:    a.logger,
			LookupEnv: a.lookupEnv,
		})
	}
	return a.invoker
}

// engine wires the configured chains, retry policy, classifier and breakers
// into an orchestrator.
func (a *app) engine() (*orchestrator.Engine, error) {
	chains, err := a.cfg.EngineChains()
	if err != nil {
		return nil, err
	}

	var breakers *orchestrator.CircuitBreakerRegistry
	if bc := a.cfg.EngineBreaker(); bc.Enabled {
		breakers = orchestrator.NewCircuitBreakerRegistry(bc, a.logger)
	}

	eng, err := orchestrator.New(orchestrator.Options{
		Invoker:      a.provider(),
		Chains:       chains,
		Retry:        a.cfg.EngineRetry(),
		Classifier:   a.cfg.Classifier(),
		Breakers:     breakers,
		DisableBatch: a.cfg.Engine.DisableBatch,
		TaskTimeout:  a.cfg.Engine.TaskTimeout,
		Events:       a.bus,
		Logger:       a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("building engine: %w", err)
	}
	return eng, nil
}

// shutdown kills tracked subprocesses and releases the bus and log file.
func (a *app) shutdown() {
	var errs []error
	if n := a.processes.Count(); n > 0 {
		if a.logger != nil {
			a.logger.Info("killing tracked subprocesses", "count", n, "providers", a.processes.Running())
		}
		errs = append(errs, a.processes.KillAll())
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.bus != nil {
		a.bus.Close()
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	if err := errors.Join(errs...); err != nil {
		fmt.Fprintf(a.stderr, "Error during cleanup: %v\n", err)
	}
}
