package graph

import (
	"fmt"
)

// Edge is an undirected weighted edge. From and To are stored in the order
// they were first seen; the pair is unordered for lookups.
type Edge struct {
	From   int64 `json:"from"`
	To     int64 `json:"to"`
	Weight int64 `json:"weight"`
}

// pairKey is the canonical (min, max) form of an unordered node pair.
type pairKey struct {
	lo, hi int64
}

func keyOf(a, b int64) pairKey {
	if a <= b {
		return pairKey{lo: a, hi: b}
	}
	return pairKey{lo: b, hi: a}
}

// Graph is a weighted undirected graph over integer node identifiers.
// Nodes and edges keep first-insertion order so every traversal is
// reproducible for the same input. Self-loops are allowed.
type Graph struct {
	nodes     []int64
	nodeIndex map[int64]int
	edges     []Edge
	edgeIndex map[pairKey]int
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		nodeIndex: make(map[int64]int),
		edgeIndex: make(map[pairKey]int),
	}
}

// AddNode inserts id if it is not already present and returns its dense index.
func (g *Graph) AddNode(id int64) int {
	if idx, exists := g.nodeIndex[id]; exists {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.nodeIndex[id] = idx
	return idx
}

// AddEdge adds an undirected edge between a and b, creating missing nodes.
// A repeated pair (in either orientation) replaces the previous weight.
func (g *Graph) AddEdge(a, b, weight int64) error {
	if weight <= 0 {
		return fmt.Errorf("edge weight must be positive: %d-%d weight %d", a, b, weight)
	}

	g.AddNode(a)
	g.AddNode(b)

	key := keyOf(a, b)
	if idx, exists := g.edgeIndex[key]; exists {
		g.edges[idx].Weight = weight
		return nil
	}

	g.edgeIndex[key] = len(g.edges)
	g.edges = append(g.edges, Edge{From: a, To: b, Weight: weight})
	return nil
}

// NumNodes returns the number of distinct nodes
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of distinct node pairs with an edge
func (g *Graph) NumEdges() int { return len(g.edges) }

// Nodes returns node ids in first-insertion order.
func (g *Graph) Nodes() []int64 {
	nodes := make([]int64, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Edges returns edges in first-insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// HasNode reports whether id is a node of the graph
func (g *Graph) HasNode(id int64) bool {
	_, exists := g.nodeIndex[id]
	return exists
}

// Index returns the dense index of id, which is its insertion position.
func (g *Graph) Index(id int64) (int, bool) {
	idx, exists := g.nodeIndex[id]
	return idx, exists
}

// Weight returns the weight of the edge between a and b.
func (g *Graph) Weight(a, b int64) (int64, bool) {
	idx, exists := g.edgeIndex[keyOf(a, b)]
	if !exists {
		return 0, false
	}
	return g.edges[idx].Weight, true
}

// TotalWeight returns the sum of all edge weights, self-loops counted once.
func (g *Graph) TotalWeight() int64 {
	var total int64
	for _, e := range g.edges {
		total += e.Weight
	}
	return total
}

// Validate checks that every edge references known nodes and carries a
// positive weight.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if !g.HasNode(e.From) {
			return fmt.Errorf("edge references non-existent node: %d", e.From)
		}
		if !g.HasNode(e.To) {
			return fmt.Errorf("edge references non-existent node: %d", e.To)
		}
		if e.Weight <= 0 {
			return fmt.Errorf("non-positive weight %d for edge %d-%d", e.Weight, e.From, e.To)
		}
	}
	return nil
}

// Subgraph returns the graph induced by members: all of them as nodes (in
// the given order) and every edge whose endpoints are both members.
func (g *Graph) Subgraph(members []int64) *Graph {
	in := make(map[int64]bool, len(members))
	sub := NewGraph()
	for _, id := range members {
		in[id] = true
		sub.AddNode(id)
	}
	for _, e := range g.edges {
		if in[e.From] && in[e.To] {
			// Weights are validated on insertion into g.
			_ = sub.AddEdge(e.From, e.To, e.Weight)
		}
	}
	return sub
}
