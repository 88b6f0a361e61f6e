package louvain

import (
	"fmt"

	"github.com/gilchrisn/graph-partition-service/pkg/graph"
)

// Graph represents a weighted undirected graph using simple arrays.
// Nodes are dense indices 0..NumNodes-1.
type Graph struct {
	NumNodes    int         `json:"num_nodes"`
	Adjacency   [][]int     `json:"-"`            // adjacency[i] = list of neighbors of node i
	Weights     [][]float64 `json:"-"`            // weights[i][j] = weight of edge from node i to neighbor adjacency[i][j]
	Degrees     []float64   `json:"degrees"`      // degrees[i] = weighted degree of node i, self-loops counted twice
	SelfLoops   []float64   `json:"self_loops"`   // selfLoops[i] = weight of the edge i-i
	TotalWeight float64     `json:"total_weight"` // sum of all edge weights, each edge once
}

// NewGraph creates a new graph with n nodes
func NewGraph(numNodes int) *Graph {
	return &Graph{
		NumNodes:  numNodes,
		Adjacency: make([][]int, numNodes),
		Weights:   make([][]float64, numNodes),
		Degrees:   make([]float64, numNodes),
		SelfLoops: make([]float64, numNodes),
	}
}

// FromGraph converts an edge-list graph into dense form. Node i of the
// result is the i-th node in g's insertion order.
func FromGraph(g *graph.Graph) (*Graph, error) {
	dense := NewGraph(g.NumNodes())
	for _, e := range g.Edges() {
		u, _ := g.Index(e.From)
		v, _ := g.Index(e.To)
		if err := dense.AddEdge(u, v, float64(e.Weight)); err != nil {
			return nil, err
		}
	}
	return dense, nil
}

// AddEdge adds a weighted edge between two nodes. Callers add each pair
// once; a self-loop is stored once in the adjacency list.
func (g *Graph) AddEdge(u, v int, weight float64) error {
	if u < 0 || u >= g.NumNodes || v < 0 || v >= g.NumNodes {
		return fmt.Errorf("node index out of range: u=%d, v=%d, numNodes=%d", u, v, g.NumNodes)
	}

	if weight <= 0 {
		return fmt.Errorf("edge weight must be positive: %f", weight)
	}

	g.Adjacency[u] = append(g.Adjacency[u], v)
	g.Weights[u] = append(g.Weights[u], weight)
	g.Degrees[u] += weight

	if u != v {
		g.Adjacency[v] = append(g.Adjacency[v], u)
		g.Weights[v] = append(g.Weights[v], weight)
		g.Degrees[v] += weight
	} else {
		// Self-loop: count weight twice for degree
		g.Degrees[u] += weight
		g.SelfLoops[u] += weight
	}

	g.TotalWeight += weight
	return nil
}

// GetNeighbors returns neighbors and their edge weights for a node
func (g *Graph) GetNeighbors(node int) ([]int, []float64) {
	if node < 0 || node >= g.NumNodes {
		return nil, nil
	}
	return g.Adjacency[node], g.Weights[node]
}

// Validate checks graph consistency
func (g *Graph) Validate() error {
	if g.NumNodes <= 0 {
		return ErrEmptyGraph
	}

	for i := 0; i < g.NumNodes; i++ {
		if len(g.Adjacency[i]) != len(g.Weights[i]) {
			return fmt.Errorf("adjacency and weights arrays inconsistent for node %d", i)
		}

		for j, neighbor := range g.Adjacency[i] {
			if neighbor < 0 || neighbor >= g.NumNodes {
				return fmt.Errorf("invalid neighbor %d for node %d", neighbor, i)
			}

			if g.Weights[i][j] <= 0 {
				return fmt.Errorf("non-positive weight %f for edge %d-%d", g.Weights[i][j], i, neighbor)
			}
		}
	}

	return nil
}
