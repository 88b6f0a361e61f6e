package louvain

import (
	"context"
	"math/rand/v2"

	"github.com/rs/zerolog"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"

	"github.com/gilchrisn/graph-partition-service/pkg/dendrogram"
	"github.com/gilchrisn/graph-partition-service/pkg/graph"
)

// GonumDetector delegates modularity optimisation to gonum's
// graph/community Louvain implementation. Self-loops are not represented
// in the gonum graph.
type GonumDetector struct {
	Config *Config
	Logger zerolog.Logger
}

// Name returns the backend name
func (d *GonumDetector) Name() string { return BackendGonum }

// Detect runs community.Modularize with a source seeded from the config,
// so repeated runs on the same graph agree.
func (d *GonumDetector) Detect(ctx context.Context, g *graph.Graph) (*dendrogram.Dendrogram, error) {
	return DetectGonum(ctx, g, d.Config, d.Logger)
}

// DetectGonum is the package-level form of GonumDetector.Detect.
func DetectGonum(ctx context.Context, g *graph.Graph, config *Config, logger zerolog.Logger) (*dendrogram.Dendrogram, error) {
	if g.NumNodes() == 0 {
		return nil, ErrEmptyGraph
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nodes := g.Nodes()
	ug := g.Gonum()
	if ug.Edges().Len() == 0 {
		return dendrogram.New(dendrogram.Singletons(nodes))
	}

	seed := uint64(config.RandomSeed())
	reduced := community.Modularize(ug, config.Resolution(), rand.NewPCG(seed, seed))

	// Walk from the coarsest level down; Expanded returns the next finer one.
	var chain []*community.ReducedUndirected
	r, _ := reduced.(*community.ReducedUndirected)
	for r != nil {
		chain = append(chain, r)
		r, _ = r.Expanded().(*community.ReducedUndirected)
	}

	levels := make([]dendrogram.Level, 0, len(chain))
	previous := -1
	for i := len(chain) - 1; i >= 0; i-- {
		communities := chain[i].Communities()
		if len(communities) == previous {
			// A coarsening with the same cluster count is the same clustering.
			continue
		}
		previous = len(communities)

		level, err := levelFromCommunities(nodes, communities, ug, config.Resolution())
		if err != nil {
			return nil, err
		}
		levels = append(levels, level)
	}

	logger.Info().
		Int("nodes", len(nodes)).
		Int("levels", len(levels)).
		Msg("gonum Louvain completed")

	return dendrogram.New(levels...)
}

// levelFromCommunities numbers communities by the first appearance of any
// member in nodes order, which keeps ids stable across equal runs.
func levelFromCommunities(nodes []int64, communities [][]gonumgraph.Node, ug gonumgraph.Undirected, resolution float64) (dendrogram.Level, error) {
	owner := make(map[int64]int, len(nodes))
	for c, members := range communities {
		for _, n := range members {
			owner[n.ID()] = c
		}
	}

	dense := make(map[int]int)
	membership := make(map[int64]int, len(nodes))
	for _, id := range nodes {
		c := owner[id]
		d, seen := dense[c]
		if !seen {
			d = len(dense)
			dense[c] = d
		}
		membership[id] = d
	}

	q := community.Q(ug, communities, resolution)
	return dendrogram.NewLevel(nodes, membership, q)
}
