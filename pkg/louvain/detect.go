package louvain

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/graph-partition-service/pkg/dendrogram"
	"github.com/gilchrisn/graph-partition-service/pkg/graph"
)

// Detector turns a graph into a dendrogram.
type Detector interface {
	Name() string
	Detect(ctx context.Context, g *graph.Graph) (*dendrogram.Dendrogram, error)
}

// Backend names accepted by NewDetector.
const (
	BackendLouvain = "louvain"
	BackendGonum   = "gonum"
)

// NewDetector returns the detector registered under backend.
func NewDetector(backend string, config *Config, logger zerolog.Logger) (Detector, error) {
	switch backend {
	case BackendLouvain, "":
		return &NativeDetector{Config: config, Logger: logger}, nil
	case BackendGonum:
		return &GonumDetector{Config: config, Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown detector backend %q", backend)
	}
}

// NativeDetector runs this package's multi-level Louvain.
type NativeDetector struct {
	Config *Config
	Logger zerolog.Logger
}

// Name returns the backend name
func (d *NativeDetector) Name() string { return BackendLouvain }

// Detect runs Louvain on g and returns its levels as a dendrogram over the
// original node ids.
func (d *NativeDetector) Detect(ctx context.Context, g *graph.Graph) (*dendrogram.Dendrogram, error) {
	return Detect(ctx, g, d.Config, d.Logger)
}

// Detect is the package-level form of NativeDetector.Detect.
func Detect(ctx context.Context, g *graph.Graph, config *Config, logger zerolog.Logger) (*dendrogram.Dendrogram, error) {
	if g.NumNodes() == 0 {
		return nil, ErrEmptyGraph
	}

	dense, err := FromGraph(g)
	if err != nil {
		return nil, fmt.Errorf("failed to convert graph: %w", err)
	}

	result, err := Run(ctx, dense, config, logger)
	if err != nil {
		return nil, err
	}

	return result.Dendrogram(g.Nodes())
}

// Dendrogram converts the recorded levels into a dendrogram. nodes maps
// dense index i to its original id and must be the order used to build
// the dense graph.
func (r *Result) Dendrogram(nodes []int64) (*dendrogram.Dendrogram, error) {
	levels := make([]dendrogram.Level, 0, len(r.Levels))
	for _, info := range r.Levels {
		if len(info.Membership) != len(nodes) {
			return nil, fmt.Errorf("level %d covers %d nodes, expected %d", info.Level, len(info.Membership), len(nodes))
		}
		membership := make(map[int64]int, len(nodes))
		for i, id := range nodes {
			membership[id] = info.Membership[i]
		}
		level, err := dendrogram.NewLevel(nodes, membership, info.Modularity)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", info.Level, err)
		}
		levels = append(levels, level)
	}
	return dendrogram.New(levels...)
}
