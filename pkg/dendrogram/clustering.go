package dendrogram

import (
	"sort"
)

// Cluster is one group of nodes at a chosen level. It is never split by
// the distributor.
type Cluster struct {
	ID    int     `json:"id"`
	Nodes []int64 `json:"nodes"`
}

// Size is the cluster's weight for balancing: its node count.
func (c Cluster) Size() int { return len(c.Nodes) }

// Clustering is the cluster id -> ordered node list view of one level.
// Clusters are ordered by the first appearance of any of their nodes in the
// level's node order, and nodes inside a cluster keep that order too.
type Clustering struct {
	level    int
	clusters []Cluster
	index    map[int]int
}

func newClustering(l Level) *Clustering {
	c := &Clustering{index: make(map[int]int)}
	for _, node := range l.nodes {
		id := l.membership[node]
		pos, exists := c.index[id]
		if !exists {
			pos = len(c.clusters)
			c.index[id] = pos
			c.clusters = append(c.clusters, Cluster{ID: id})
		}
		c.clusters[pos].Nodes = append(c.clusters[pos].Nodes, node)
	}
	return c
}

// Level returns the dendrogram index the clustering was taken from.
func (c *Clustering) Level() int { return c.level }

// Len returns the number of clusters
func (c *Clustering) Len() int { return len(c.clusters) }

// NumNodes returns the number of nodes over all clusters
func (c *Clustering) NumNodes() int {
	total := 0
	for _, cl := range c.clusters {
		total += cl.Size()
	}
	return total
}

// Clusters returns the clusters in first-appearance order.
func (c *Clustering) Clusters() []Cluster {
	return cloneClusters(c.clusters)
}

// Nodes returns the nodes of cluster id in insertion order.
func (c *Clustering) Nodes(id int) ([]int64, bool) {
	pos, exists := c.index[id]
	if !exists {
		return nil, false
	}
	nodes := make([]int64, len(c.clusters[pos].Nodes))
	copy(nodes, c.clusters[pos].Nodes)
	return nodes, true
}

// BySizeAscending returns the clusters sorted by ascending size, the input
// order the balanced distributor expects. Equal sizes keep first-appearance
// order.
func (c *Clustering) BySizeAscending() []Cluster {
	clusters := cloneClusters(c.clusters)
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Size() < clusters[j].Size()
	})
	return clusters
}

func cloneClusters(in []Cluster) []Cluster {
	out := make([]Cluster, len(in))
	for i, cl := range in {
		nodes := make([]int64, len(cl.Nodes))
		copy(nodes, cl.Nodes)
		out[i] = Cluster{ID: cl.ID, Nodes: nodes}
	}
	return out
}
