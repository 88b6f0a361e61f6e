package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gilchrisn/graph-partition-service/pkg/graph"
)

// WriteMETIS writes the subgraph induced by members in METIS format.
// Vertices are renumbered 1..len(members) in member order and each vertex
// line is preceded by a "%: <node id>" comment naming the original node.
// Self-loops are omitted.
func WriteMETIS(w io.Writer, g *graph.Graph, members []int64) error {
	sub := g.Subgraph(members)
	nodes := sub.Nodes()

	type arc struct {
		to     int
		weight int64
	}
	adjacency := make([][]arc, len(nodes))
	numEdges := 0
	for _, e := range sub.Edges() {
		if e.From == e.To {
			continue
		}
		u, _ := sub.Index(e.From)
		v, _ := sub.Index(e.To)
		adjacency[u] = append(adjacency[u], arc{to: v + 1, weight: e.Weight})
		adjacency[v] = append(adjacency[v], arc{to: u + 1, weight: e.Weight})
		numEdges++
	}

	bw := bufio.NewWriter(w)
	bw.WriteString("%% <# of vertices> <# of edges> <file format>\n")
	fmt.Fprintf(bw, "%d %d 001\n", len(nodes), numEdges)
	bw.WriteString("%% Lines starting with %: name the original node of the next vertex line.\n")
	for i, node := range nodes {
		fmt.Fprintf(bw, "%%: %d\n", node)
		for j, a := range adjacency[i] {
			if j > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%d %d", a.to, a.weight)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteMETISFiles writes one METIS file per partition, named
// <prefix>.<index>.metis, and returns the paths.
func WriteMETISFiles(dir, prefix string, g *graph.Graph, partitions [][]int64) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(partitions))
	for i, members := range partitions {
		path := filepath.Join(dir, fmt.Sprintf("%s.%d.metis", prefix, i))
		file, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := WriteMETIS(file, g, members); err != nil {
			file.Close()
			return nil, fmt.Errorf("partition %d: %w", i, err)
		}
		if err := file.Close(); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
