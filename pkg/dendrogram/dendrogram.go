// Package dendrogram models the output of hierarchical community detection
// as an ordered sequence of immutable per-level node -> cluster snapshots,
// from finest (index 0) to coarsest, and selects the level that is handed
// to the balanced distributor.
package dendrogram

import (
	"fmt"
)

// Dendrogram is an ordered, read-only sequence of levels. Level k+1 is a
// coarsening of level k: nodes sharing a cluster at k share one at k+1.
type Dendrogram struct {
	levels []Level
}

// New builds a dendrogram and checks that all levels cover the same nodes
// and refine each other.
func New(levels ...Level) (*Dendrogram, error) {
	d := &Dendrogram{levels: make([]Level, len(levels))}
	copy(d.levels, levels)

	for k := 1; k < len(d.levels); k++ {
		if err := checkRefinement(d.levels[k-1], d.levels[k]); err != nil {
			return nil, fmt.Errorf("levels %d and %d: %w", k-1, k, err)
		}
	}
	return d, nil
}

// checkRefinement verifies that every cluster of fine lies inside a single
// cluster of coarse.
func checkRefinement(fine, coarse Level) error {
	if fine.Len() != coarse.Len() {
		return fmt.Errorf("node count differs (%d vs %d)", fine.Len(), coarse.Len())
	}

	parent := make(map[int]int)
	for _, node := range fine.nodes {
		coarseCluster, ok := coarse.Cluster(node)
		if !ok {
			return fmt.Errorf("node %d missing from coarser level", node)
		}
		fineCluster := fine.membership[node]
		if p, seen := parent[fineCluster]; seen && p != coarseCluster {
			return fmt.Errorf("cluster %d is split between clusters %d and %d", fineCluster, p, coarseCluster)
		}
		parent[fineCluster] = coarseCluster
	}
	return nil
}

// Len returns the number of levels
func (d *Dendrogram) Len() int {
	if d == nil {
		return 0
	}
	return len(d.levels)
}

// Level returns level i. It panics when i is out of range, like a slice.
func (d *Dendrogram) Level(i int) Level {
	return d.levels[i]
}

// Levels returns the levels from finest to coarsest.
func (d *Dendrogram) Levels() []Level {
	levels := make([]Level, len(d.levels))
	copy(levels, d.levels)
	return levels
}

// BalanceLevelIndex returns the level used for balancing in a dendrogram of
// numLevels levels: one below the coarsest, or 0 when there are fewer than
// two levels.
func BalanceLevelIndex(numLevels int) int {
	if numLevels < 2 {
		return 0
	}
	return numLevels - 2
}

// SelectBalanceLevel returns the clustering one level below the coarsest.
// The coarsest level tends to merge into too few clusters to spread over
// N bins. Dendrograms with fewer than two levels fall back to level 0; an
// empty dendrogram yields an empty clustering.
func SelectBalanceLevel(d *Dendrogram) *Clustering {
	if d.Len() == 0 {
		return &Clustering{index: make(map[int]int)}
	}

	idx := BalanceLevelIndex(d.Len())
	c := d.levels[idx].Clustering()
	c.level = idx
	return c
}
