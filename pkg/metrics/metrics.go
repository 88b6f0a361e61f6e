// Package metrics exposes prometheus metrics for partitioning runs and the
// HTTP API.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "partition"

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Pipeline Metrics
	RunsTotal        *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	StageDuration    *prometheus.HistogramVec
	GraphNodes       prometheus.Histogram
	GraphEdges       prometheus.Histogram
	DendrogramLevels prometheus.Histogram
	SelectedClusters prometheus.Gauge
	LevelModularity  prometheus.Gauge
	LoadImbalance    prometheus.Gauge
	LoadSpread       prometheus.Gauge
	ExtraNodesDealt  prometheus.Counter

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with every metric registered on its own
// prometheus.Registry, so separate instances never collide.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.initHTTPMetrics()
	r.initPipelineMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordHTTPRequest records one finished request.
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordStage records the duration of one pipeline stage.
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RunResult is what a pipeline run reports to the registry.
type RunResult struct {
	Strategy   string
	Backend    string
	Status     string
	Duration   time.Duration
	Nodes      int
	Edges      int
	Levels     int
	Clusters   int
	Modularity float64
	Imbalance  float64
	Spread     int
	ExtraNodes int
}

// RecordRun records a finished pipeline run. Graph and balance figures are
// only observed for successful runs.
func (r *Registry) RecordRun(res RunResult) {
	r.RunsTotal.WithLabelValues(res.Strategy, res.Backend, res.Status).Inc()
	r.RunDuration.WithLabelValues(res.Strategy, res.Backend).Observe(res.Duration.Seconds())
	if res.Status != StatusSuccess {
		return
	}

	r.GraphNodes.Observe(float64(res.Nodes))
	r.GraphEdges.Observe(float64(res.Edges))
	r.DendrogramLevels.Observe(float64(res.Levels))
	r.SelectedClusters.Set(float64(res.Clusters))
	r.LevelModularity.Set(res.Modularity)
	r.LoadImbalance.Set(res.Imbalance)
	r.LoadSpread.Set(float64(res.Spread))
	r.ExtraNodesDealt.Add(float64(res.ExtraNodes))
}

// Run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)
