// Package pipeline composes graph building, community detection, level
// selection and distribution into a single partitioning run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-partition-service/pkg/dendrogram"
	"github.com/gilchrisn/graph-partition-service/pkg/graph"
	"github.com/gilchrisn/graph-partition-service/pkg/louvain"
	"github.com/gilchrisn/graph-partition-service/pkg/metrics"
	"github.com/gilchrisn/graph-partition-service/pkg/partition"
)

// Partitioning strategies.
const (
	StrategyCommunity  = "community"
	StrategyRoundRobin = "round-robin"
)

// Options configures a run. The zero value is not usable: HeaderSkip has
// no default and must be set by the caller.
type Options struct {
	HeaderSkip  int
	Strategy    string
	Backend     string
	Distributor string
	Weights     []float64
	Blocksize   int
	ExtraNodes  []int64

	LouvainConfig *louvain.Config
	Logger        zerolog.Logger
	Metrics       *metrics.Registry
}

// DefaultOptions returns community partitioning with the native detector
// and the scan distributor.
func DefaultOptions(headerSkip int) Options {
	return Options{
		HeaderSkip:    headerSkip,
		Strategy:      StrategyCommunity,
		Backend:       louvain.BackendLouvain,
		Distributor:   partition.DistributorScan,
		Blocksize:     1,
		LouvainConfig: louvain.NewConfig(),
		Logger:        zerolog.Nop(),
	}
}

// Report describes a finished run.
type Report struct {
	RunID         string          `json:"run_id" yaml:"run_id"`
	Strategy      string          `json:"strategy" yaml:"strategy"`
	Backend       string          `json:"backend,omitempty" yaml:"backend,omitempty"`
	N             int             `json:"n" yaml:"n"`
	Nodes         int             `json:"nodes" yaml:"nodes"`
	Edges         int             `json:"edges" yaml:"edges"`
	Partitions    [][]int64       `json:"partitions" yaml:"partitions"`
	Loads         []int           `json:"loads" yaml:"loads"`
	Levels        int             `json:"levels" yaml:"levels"`
	SelectedLevel int             `json:"selected_level" yaml:"selected_level"`
	Clusters      int             `json:"clusters" yaml:"clusters"`
	Modularity    float64         `json:"modularity" yaml:"modularity"`
	ExtraNodes    int             `json:"extra_nodes" yaml:"extra_nodes"`
	Stats         partition.Stats `json:"stats" yaml:"stats"`
	RuntimeMS     int64           `json:"runtime_ms" yaml:"runtime_ms"`

	// Dendrogram is the detected hierarchy, nil unless the community
	// strategy ran the detector.
	Dendrogram *dendrogram.Dendrogram `json:"-" yaml:"-"`
}

// StrategyInfo describes a selectable strategy.
type StrategyInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Backends    []string `json:"backends,omitempty"`
}

// Strategies lists the partitioning strategies Run accepts.
func Strategies() []StrategyInfo {
	return []StrategyInfo{
		{
			Name:        StrategyCommunity,
			Description: "Louvain communities, second-coarsest level, greedy least-loaded distribution",
			Backends:    []string{louvain.BackendLouvain, louvain.BackendGonum},
		},
		{
			Name:        StrategyRoundRobin,
			Description: "Nodes dealt to partitions in blocks, in input order",
		},
	}
}

// BuildPartitions reads the edge list at path and splits its nodes into n
// partitions.
func BuildPartitions(ctx context.Context, path string, n int, opts Options) ([][]int64, error) {
	report, err := Run(ctx, path, n, opts)
	if err != nil {
		return nil, err
	}
	return report.Partitions, nil
}

// Run is BuildPartitions returning the full report.
func Run(ctx context.Context, path string, n int, opts Options) (*Report, error) {
	if n <= 0 {
		return nil, &partition.InvalidPartitionCountError{N: n}
	}
	opts.normalize()

	start := time.Now()
	g, err := graph.BuildFromFile(path, opts.HeaderSkip)
	if err != nil {
		opts.recordFailure(time.Since(start))
		return nil, err
	}
	opts.recordStage("build", time.Since(start))

	return RunGraph(ctx, g, n, opts)
}

// RunGraph partitions an already built graph.
func RunGraph(ctx context.Context, g *graph.Graph, n int, opts Options) (*Report, error) {
	opts.normalize()
	start := time.Now()
	report, err := runGraph(ctx, g, n, &opts)
	if err != nil {
		opts.recordFailure(time.Since(start))
		return nil, err
	}

	report.RuntimeMS = time.Since(start).Milliseconds()
	opts.recordSuccess(report, time.Since(start))

	opts.Logger.Info().
		Str("run_id", report.RunID).
		Str("strategy", report.Strategy).
		Int("n", n).
		Int("nodes", report.Nodes).
		Int("clusters", report.Clusters).
		Ints("loads", report.Loads).
		Int64("runtime_ms", report.RuntimeMS).
		Msg("Partitioning completed")

	return report, nil
}

func runGraph(ctx context.Context, g *graph.Graph, n int, opts *Options) (*Report, error) {
	if n <= 0 {
		return nil, &partition.InvalidPartitionCountError{N: n}
	}
	if err := partition.ValidateWeights(opts.Weights, n); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:    uuid.New().String(),
		Strategy: opts.Strategy,
		N:        n,
		Nodes:    g.NumNodes(),
		Edges:    g.NumEdges(),
	}

	var assignment *partition.Assignment
	var err error
	switch opts.Strategy {
	case StrategyCommunity:
		assignment, err = opts.community(ctx, g, n, report)
	case StrategyRoundRobin:
		assignment, err = partition.RoundRobin(g.Nodes(), n, opts.Blocksize)
		report.Clusters = g.NumNodes()
	default:
		err = fmt.Errorf("unknown partitioning strategy %q", opts.Strategy)
	}
	if err != nil {
		return nil, err
	}

	if len(opts.ExtraNodes) > 0 {
		report.ExtraNodes = assignment.Deal(opts.ExtraNodes)
		opts.Logger.Debug().Int("extra_nodes", report.ExtraNodes).Msg("Dealt nodes without statistics")
	}

	report.Partitions = assignment.Partitions()
	report.Loads = append([]int{}, assignment.Loads...)
	report.Stats = assignment.Stats()
	return report, nil
}

func (opts *Options) community(ctx context.Context, g *graph.Graph, n int, report *Report) (*partition.Assignment, error) {
	report.Backend = opts.Backend

	if g.NumNodes() == 0 {
		opts.Logger.Warn().Msg("Graph has no nodes, returning empty partitions")
		return partition.BalancedPartition(nil, n)
	}
	if n == 1 {
		report.Clusters = 1
		return partition.BalancedPartition([]dendrogram.Cluster{{ID: 0, Nodes: g.Nodes()}}, 1)
	}

	config := opts.LouvainConfig
	if config == nil {
		config = louvain.NewConfig()
	}
	detector, err := louvain.NewDetector(opts.Backend, config, opts.Logger)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	d, err := detector.Detect(ctx, g)
	if errors.Is(err, louvain.ErrEmptyGraph) {
		return partition.BalancedPartition(nil, n)
	}
	if err != nil {
		return nil, fmt.Errorf("community detection failed: %w", err)
	}
	opts.recordStage("detect", time.Since(start))

	start = time.Now()
	report.Dendrogram = d
	clustering := dendrogram.SelectBalanceLevel(d)
	clusters := clustering.BySizeAscending()
	report.Levels = d.Len()
	report.SelectedLevel = clustering.Level()
	report.Clusters = clustering.Len()
	report.Modularity = d.Level(clustering.Level()).Modularity()
	opts.recordStage("select", time.Since(start))

	opts.Logger.Debug().
		Int("levels", report.Levels).
		Int("selected_level", report.SelectedLevel).
		Int("clusters", report.Clusters).
		Float64("modularity", report.Modularity).
		Msg("Selected balance level")

	start = time.Now()
	defer func() { opts.recordStage("distribute", time.Since(start)) }()
	if opts.Weights != nil {
		return partition.WeightedPartition(clusters, n, opts.Weights)
	}
	distribute, err := partition.NewDistributor(opts.Distributor)
	if err != nil {
		return nil, err
	}
	return distribute(clusters, n)
}

func (opts *Options) normalize() {
	if opts.Strategy == "" {
		opts.Strategy = StrategyCommunity
	}
	if opts.Strategy == StrategyCommunity && opts.Backend == "" {
		opts.Backend = louvain.BackendLouvain
	}
}

func (opts *Options) recordStage(stage string, d time.Duration) {
	if opts.Metrics != nil {
		opts.Metrics.RecordStage(stage, d)
	}
}

func (opts *Options) recordFailure(d time.Duration) {
	if opts.Metrics == nil {
		return
	}
	opts.Metrics.RecordRun(metrics.RunResult{
		Strategy: opts.Strategy,
		Backend:  opts.Backend,
		Status:   metrics.StatusError,
		Duration: d,
	})
}

func (opts *Options) recordSuccess(r *Report, d time.Duration) {
	if opts.Metrics == nil {
		return
	}
	opts.Metrics.RecordRun(metrics.RunResult{
		Strategy:   r.Strategy,
		Backend:    r.Backend,
		Status:     metrics.StatusSuccess,
		Duration:   d,
		Nodes:      r.Nodes,
		Edges:      r.Edges,
		Levels:     r.Levels,
		Clusters:   r.Clusters,
		Modularity: r.Modularity,
		Imbalance:  r.Stats.Imbalance,
		Spread:     r.Stats.Spread,
		ExtraNodes: r.ExtraNodes,
	})
}
