package output

import (
	"fmt"
	"io"
	"strconv"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/gilchrisn/graph-partition-service/pkg/graph"
)

// paletteSize is the number of colours in the graphviz set312 scheme.
const paletteSize = 12

type partitionNode struct {
	id        int64
	partition int
}

func (n partitionNode) ID() int64 { return n.id }
func (n partitionNode) DOTID() string { return strconv.FormatInt(n.id, 10) }

func (n partitionNode) Attributes() []encoding.Attribute {
	if n.partition < 0 {
		return nil
	}
	return []encoding.Attribute{
		{Key: "style", Value: "filled"},
		{Key: "colorscheme", Value: "set312"},
		{Key: "fillcolor", Value: strconv.Itoa(n.partition%paletteSize + 1)},
		{Key: "partition", Value: strconv.Itoa(n.partition)},
	}
}

type weightedEdge struct {
	from, to gonumgraph.Node
	weight   float64
}

func (e weightedEdge) From() gonumgraph.Node { return e.from }
func (e weightedEdge) To() gonumgraph.Node { return e.to }
func (e weightedEdge) Weight() float64 { return e.weight }
func (e weightedEdge) ReversedEdge() gonumgraph.Edge { return weightedEdge{from: e.to, to: e.from, weight: e.weight} }

func (e weightedEdge) Attributes() []encoding.Attribute {
	return []encoding.Attribute{{Key: "label", Value: strconv.FormatFloat(e.weight, 'f', -1, 64)}}
}

// WriteGraphviz writes g in DOT format with each node filled by the colour
// of its partition. Nodes outside every partition are left unfilled and
// self-loops are omitted.
func WriteGraphviz(w io.Writer, g *graph.Graph, partitions [][]int64) error {
	owner := make(map[int64]int)
	for i, p := range partitions {
		for _, node := range p {
			owner[node] = i
		}
	}

	nodes := make(map[int64]partitionNode, g.NumNodes())
	ug := simple.NewWeightedUndirectedGraph(0, 0)
	for _, id := range g.Nodes() {
		p, ok := owner[id]
		if !ok {
			p = -1
		}
		nodes[id] = partitionNode{id: id, partition: p}
		ug.AddNode(nodes[id])
	}
	for _, e := range g.Edges() {
		if e.From == e.To {
			continue
		}
		ug.SetWeightedEdge(weightedEdge{from: nodes[e.From], to: nodes[e.To], weight: float64(e.Weight)})
	}

	b, err := dot.Marshal(ug, "partitions", "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode graphviz: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
