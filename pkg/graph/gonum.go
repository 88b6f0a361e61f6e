package graph

import (
	"gonum.org/v1/gonum/graph/simple"
)

// Gonum converts g into a gonum weighted undirected graph with node ids
// equal to the original ids. gonum simple graphs reject self edges, so
// self-loops are dropped.
func (g *Graph) Gonum() *simple.WeightedUndirectedGraph {
	ug := simple.NewWeightedUndirectedGraph(0, 0)
	for _, id := range g.nodes {
		ug.AddNode(simple.Node(id))
	}
	for _, e := range g.edges {
		if e.From == e.To {
			continue
		}
		ug.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(e.From),
			T: simple.Node(e.To),
			W: float64(e.Weight),
		})
	}
	return ug
}

// SelfLoopCount returns how many self-loop edges Gonum drops.
func (g *Graph) SelfLoopCount() int {
	count := 0
	for _, e := range g.edges {
		if e.From == e.To {
			count++
		}
	}
	return count
}
