// Package api is the HTTP host for the report generator: the browser pages,
// the JSON endpoints and the metrics scrape target.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/careercrew/internal/orchestrator"
	"github.com/aristath/careercrew/internal/provider"
	"github.com/aristath/careercrew/internal/scheduler"
)

// Engine is the part of the orchestrator the server needs.
type Engine interface {
	ExecuteAll(ctx context.Context, userInfo string) *orchestrator.Report
	Tasks() []scheduler.Task
	Chain(kind scheduler.Kind) orchestrator.Chain
}

// Options configures a Server.
type Options struct {
	Engine      Engine            // Required
	Providers   []provider.Handle // Reported by /api/health and /api/status
	Metrics     http.Handler      // Mounted at /metrics when set
	StaticDir   string            // Serves /static from disk instead of the embedded assets
	MaxInputLen int               // Upper bound on user_info length, 0 means 10000
	Version     string
	Logger      *slog.Logger
	LookupEnv   func(string) string // Defaults to os.Getenv
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine      Engine
	providers   []provider.Handle
	metrics     http.Handler
	staticDir   string
	maxInputLen int
	version     string
	logger      *slog.Logger
	lookupEnv   func(string) string
	validate    *validator.Validate
}

// NewServer builds a Server from opts.
func NewServer(opts Options) *Server {
	if opts.MaxInputLen <= 0 {
		opts.MaxInputLen = 10000
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.Getenv
	}
	return &Server{
		engine:      opts.Engine,
		providers:   append([]provider.Handle(nil), opts.Providers...),
		metrics:     opts.Metrics,
		staticDir:   opts.StaticDir,
		maxInputLen: opts.MaxInputLen,
		version:     opts.Version,
		logger:      opts.Logger,
		lookupEnv:   opts.LookupEnv,
		validate:    validator.New(),
	}
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.page("demo.html"))
	r.Get("/app", s.page("index.html"))
	r.Handle("/static/*", http.StripPrefix("/static/", s.staticHandler()))

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate-career-report", s.GenerateReport)
		r.Get("/health", s.Health)
		r.Get("/status", s.Status)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Serve runs srv until ctx is done, then shuts it down, waiting up to
// shutdownTimeout for in-flight requests.
func Serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
