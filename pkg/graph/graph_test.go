package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeMergesNodes(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge(1, 2, 3))
	require.NoError(t, g.AddEdge(2, 3, 2))
	require.NoError(t, g.AddEdge(1, 3, 1))

	assert.Equal(t, []int64{1, 2, 3}, g.Nodes())
	assert.Equal(t, 3, g.NumEdges())
	assert.Equal(t, int64(6), g.TotalWeight())
}

func TestAddEdgeLastWriteWins(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge(1, 2, 3))
	require.NoError(t, g.AddEdge(2, 1, 7))

	w, ok := g.Weight(1, 2)
	require.True(t, ok)
	assert.Equal(t, int64(7), w)
	assert.Equal(t, 1, g.NumEdges())

	edges := g.Edges()
	assert.Equal(t, Edge{From: 1, To: 2, Weight: 7}, edges[0])
}

func TestAddEdgeRejectsNonPositiveWeight(t *testing.T) {
	g := NewGraph()
	assert.Error(t, g.AddEdge(1, 2, 0))
	assert.Error(t, g.AddEdge(1, 2, -4))
	assert.Equal(t, 0, g.NumNodes())
}

func TestSelfLoop(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge(5, 5, 2))

	assert.Equal(t, []int64{5}, g.Nodes())
	w, ok := g.Weight(5, 5)
	require.True(t, ok)
	assert.Equal(t, int64(2), w)
	assert.Equal(t, 1, g.SelfLoopCount())
}

func TestAddNodeIdempotent(t *testing.T) {
	g := NewGraph()
	assert.Equal(t, 0, g.AddNode(9))
	assert.Equal(t, 1, g.AddNode(4))
	assert.Equal(t, 0, g.AddNode(9))

	idx, ok := g.Index(4)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.NoError(t, g.Validate())
}

func TestSubgraph(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge(1, 2, 3))
	require.NoError(t, g.AddEdge(2, 3, 2))
	require.NoError(t, g.AddEdge(3, 4, 9))

	sub := g.Subgraph([]int64{3, 2, 7})
	assert.Equal(t, []int64{3, 2, 7}, sub.Nodes())
	assert.Equal(t, []Edge{{From: 2, To: 3, Weight: 2}}, sub.Edges())
}

func TestGonumConversion(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddEdge(1, 2, 3))
	require.NoError(t, g.AddEdge(2, 2, 4))
	g.AddNode(10)

	ug := g.Gonum()
	assert.Equal(t, 3, ug.Nodes().Len())

	w, ok := ug.Weight(1, 2)
	require.True(t, ok)
	assert.Equal(t, 3.0, w)
	assert.Nil(t, ug.Edge(2, 2))
}
