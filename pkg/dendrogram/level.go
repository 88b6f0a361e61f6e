package dendrogram

import (
	"fmt"
)

// Level is an immutable snapshot of one hierarchy level: every node of the
// original graph mapped to a cluster id valid at that level.
type Level struct {
	nodes      []int64
	membership map[int64]int
	modularity float64
}

// NewLevel copies nodes and membership into a Level. Every node must have
// a membership entry and membership may not name unknown nodes.
func NewLevel(nodes []int64, membership map[int64]int, modularity float64) (Level, error) {
	if len(nodes) != len(membership) {
		return Level{}, fmt.Errorf("level has %d nodes but %d memberships", len(nodes), len(membership))
	}

	l := Level{
		nodes:      make([]int64, len(nodes)),
		membership: make(map[int64]int, len(membership)),
		modularity: modularity,
	}
	copy(l.nodes, nodes)

	for _, node := range nodes {
		cluster, exists := membership[node]
		if !exists {
			return Level{}, fmt.Errorf("node %d has no cluster", node)
		}
		if _, dup := l.membership[node]; dup {
			return Level{}, fmt.Errorf("node %d listed twice", node)
		}
		l.membership[node] = cluster
	}

	return l, nil
}

// Singletons returns the level that puts every node in its own cluster,
// numbered by position. nodes must be distinct.
func Singletons(nodes []int64) Level {
	l := Level{
		nodes:      make([]int64, len(nodes)),
		membership: make(map[int64]int, len(nodes)),
	}
	copy(l.nodes, nodes)
	for i, node := range nodes {
		l.membership[node] = i
	}
	return l
}

// Nodes returns the level's nodes in their canonical order.
func (l Level) Nodes() []int64 {
	nodes := make([]int64, len(l.nodes))
	copy(nodes, l.nodes)
	return nodes
}

// Len returns the number of nodes covered by the level
func (l Level) Len() int { return len(l.nodes) }

// Cluster returns the cluster id of node
func (l Level) Cluster(node int64) (int, bool) {
	c, ok := l.membership[node]
	return c, ok
}

// Membership returns a copy of the node -> cluster mapping
func (l Level) Membership() map[int64]int {
	m := make(map[int64]int, len(l.membership))
	for node, c := range l.membership {
		m[node] = c
	}
	return m
}

// NumClusters returns the number of distinct clusters
func (l Level) NumClusters() int {
	seen := make(map[int]struct{})
	for _, c := range l.membership {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// Modularity returns the modularity recorded by the detector for this level.
func (l Level) Modularity() float64 { return l.modularity }

// Clustering groups the level's nodes by cluster.
func (l Level) Clustering() *Clustering {
	return newClustering(l)
}
