// Package metrics exports router dispatch metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dframe-go/dframe/router"
)

// Config configures the Prometheus recorder.
type Config struct {
	// Namespace is the metrics namespace (default: "dframe").
	Namespace string

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use. Default: a fresh registry
	// carrying the Go and process collectors.
	Registry *prometheus.Registry
}

// Option configures the Prometheus recorder.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Prometheus records every dispatch outcome. It implements router.Recorder.
type Prometheus struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var _ router.Recorder = (*Prometheus)(nil)

// NewPrometheus registers the dispatch metrics:
// <namespace>_router_dispatch_total{outcome,method} and
// <namespace>_router_dispatch_duration_seconds{outcome}.
func NewPrometheus(opts ...Option) *Prometheus {
	cfg := Config{Namespace: "dframe", Buckets: prometheus.DefBuckets}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
		cfg.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	factory := promauto.With(cfg.Registry)
	return &Prometheus{
		registry: cfg.Registry,
		total: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "router",
			Name:      "dispatch_total",
			Help:      "Requests dispatched, by outcome and method",
		}, []string{"outcome", "method"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "router",
			Name:      "dispatch_duration_seconds",
			Help:      "Dispatch duration in seconds, by outcome",
			Buckets:   cfg.Buckets,
		}, []string{"outcome"}),
	}
}

// RecordDispatch implements router.Recorder
func (p *Prometheus) RecordDispatch(class router.Classification, method string, d time.Duration) {
	p.total.WithLabelValues(string(class), method).Inc()
	p.duration.WithLabelValues(string(class)).Observe(d.Seconds())
}

// Registry returns the registry the metrics live in
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
