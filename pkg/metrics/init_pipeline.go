package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPipelineMetrics() {
	factory := promauto.With(r.registry)

	r.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of partitioning runs",
		},
		[]string{"strategy", "backend", "status"},
	)

	r.RunDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "End-to-end partitioning run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"strategy", "backend"},
	)

	r.StageDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		},
		[]string{"stage"},
	)

	r.GraphNodes = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "graph_nodes",
		Help:      "Number of nodes in partitioned graphs",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	r.GraphEdges = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "graph_edges",
		Help:      "Number of edges in partitioned graphs",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
	})

	r.DendrogramLevels = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dendrogram_levels",
		Help:      "Number of levels recorded by community detection",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	})

	r.SelectedClusters = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "selected_clusters",
		Help:      "Clusters at the selected level in the last run",
	})

	r.LevelModularity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "selected_level_modularity",
		Help:      "Modularity of the selected level in the last run",
	})

	r.LoadImbalance = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "load_imbalance_ratio",
		Help:      "Max bin load over mean bin load in the last run",
	})

	r.LoadSpread = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "load_spread",
		Help:      "Difference between largest and smallest bin load in the last run",
	})

	r.ExtraNodesDealt = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extra_nodes_dealt_total",
		Help:      "Nodes without statistics dealt round robin after distribution",
	})
}
