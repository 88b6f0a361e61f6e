// Package stats accumulates pairwise interaction counts and writes them as
// an edge list the graph builder can read back.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/gilchrisn/graph-partition-service/pkg/graph"
)

// Header is the single header line written before the edge rows.
var Header = []string{graph.FieldNodeA, graph.FieldNodeB, graph.FieldWeight}

type pair struct {
	lo, hi int64
}

func makePair(a, b int64) pair {
	if a <= b {
		return pair{lo: a, hi: b}
	}
	return pair{lo: b, hi: a}
}

// Recorder counts interactions per unordered node pair. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	counts map[pair]int64
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{counts: make(map[pair]int64)}
}

// Record counts one interaction between src and dst.
func (r *Recorder) Record(src, dst int64) {
	r.RecordWeight(src, dst, 1)
}

// RecordWeight adds weight interactions between src and dst. Non-positive
// weights are ignored.
func (r *Recorder) RecordWeight(src, dst, weight int64) {
	if weight <= 0 {
		return
	}
	r.mu.Lock()
	r.counts[makePair(src, dst)] += weight
	r.mu.Unlock()
}

// Count returns the recorded weight between a and b.
func (r *Recorder) Count(a, b int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[makePair(a, b)]
}

// Len returns the number of distinct pairs recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.counts)
}

// Edges returns the recorded pairs as edges with From <= To, sorted by
// (From, To).
func (r *Recorder) Edges() []graph.Edge {
	r.mu.Lock()
	edges := make([]graph.Edge, 0, len(r.counts))
	for p, w := range r.counts {
		edges = append(edges, graph.Edge{From: p.lo, To: p.hi, Weight: w})
	}
	r.mu.Unlock()

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Graph builds a graph from the recorded pairs in sorted order.
func (r *Recorder) Graph() (*graph.Graph, error) {
	g := graph.NewGraph()
	for _, e := range r.Edges() {
		if err := g.AddEdge(e.From, e.To, e.Weight); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// WriteCSV writes the header line followed by one row per pair.
func (r *Recorder) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range r.Edges() {
		row := []string{
			strconv.FormatInt(e.From, 10),
			strconv.FormatInt(e.To, 10),
			strconv.FormatInt(e.Weight, 10),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the CSV form to path.
func (r *Recorder) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create statistics file: %w", err)
	}

	if err := r.WriteCSV(file); err != nil {
		file.Close()
		return fmt.Errorf("failed to write statistics file: %w", err)
	}
	return file.Close()
}
