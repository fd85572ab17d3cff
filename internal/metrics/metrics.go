// Package metrics exports engine activity as Prometheus collectors fed from
// the event bus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aristath/careercrew/internal/events"
)

// Recorder holds the collectors. Each Recorder registers on its own
// registry so tests and multiple servers never collide.
type Recorder struct {
	registry *prometheus.Registry

	// RunsTotal counts finished runs by status and path
	RunsTotal *prometheus.CounterVec

	// RunDuration tracks end-to-end run latency
	RunDuration *prometheus.HistogramVec

	// RunsInFlight tracks runs currently executing
	RunsInFlight prometheus.Gauge

	// AttemptsTotal counts provider calls by outcome
	AttemptsTotal *prometheus.CounterVec

	// AttemptLatency tracks provider call latency
	AttemptLatency *prometheus.HistogramVec

	// FallbacksTotal counts chain advances away from a provider
	FallbacksTotal *prometheus.CounterVec

	// TasksTotal counts finished tasks, placeholder or not
	TasksTotal *prometheus.CounterVec
}

// New creates a Recorder with a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercrew_runs_total",
				Help: "Total number of finished runs",
			},
			[]string{"status", "path"},
		),
		RunDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "careercrew_run_duration_seconds",
				Help:    "Run latency in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),
		RunsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "careercrew_runs_in_flight",
				Help: "Number of runs currently executing",
			},
		),
		AttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercrew_provider_attempts_total",
				Help: "Total number of provider calls",
			},
			[]string{"provider", "kind", "outcome"},
		),
		AttemptLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "careercrew_provider_attempt_seconds",
				Help:    "Provider call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		FallbacksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercrew_provider_fallbacks_total",
				Help: "Total number of times a chain moved past a provider",
			},
			[]string{"kind", "from"},
		),
		TasksTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercrew_tasks_total",
				Help: "Total number of finished tasks",
			},
			[]string{"kind", "result"},
		),
	}
}

// Registry returns the registry the collectors live on.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WatchDropped exposes a monotonically increasing count, such as the event
// bus drop counter, as careercrew_events_dropped_total.
func (r *Recorder) WatchDropped(count func() uint64) {
	promauto.With(r.registry).NewCounterFunc(
		prometheus.CounterOpts{
			Name: "careercrew_events_dropped_total",
			Help: "Events not delivered to a slow subscriber",
		},
		func() float64 { return float64(count()) },
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Observe updates collectors for one event. Unknown events are ignored.
func (r *Recorder) Observe(ev events.Event) {
	switch e := ev.(type) {
	case events.RunStartedEvent:
		r.RunsInFlight.Inc()
	case events.RunCompletedEvent:
		r.RunsInFlight.Dec()
		r.RunsTotal.WithLabelValues(e.Status, e.Path).Inc()
		r.RunDuration.WithLabelValues(e.Status).Observe(e.Duration.Seconds())
	case events.AttemptEvent:
		r.AttemptsTotal.WithLabelValues(e.Provider, e.Kind, e.Outcome).Inc()
		r.AttemptLatency.WithLabelValues(e.Provider).Observe(e.Duration.Seconds())
	case events.ProviderFallbackEvent:
		r.FallbacksTotal.WithLabelValues(e.Kind, e.From).Inc()
	case events.TaskCompletedEvent:
		result := "provider"
		if e.Placeholder {
			result = "placeholder"
		}
		r.TasksTotal.WithLabelValues(e.Kind, result).Inc()
	}
}

// Consume observes events from ch until it closes or ctx is done.
func (r *Recorder) Consume(ctx context.Context, ch <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			r.Observe(ev)
		}
	}
}
