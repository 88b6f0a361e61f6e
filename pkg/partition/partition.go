// Package partition distributes clusters of nodes across a fixed number of
// bins so that the bins carry similar loads.
package partition

import (
	"fmt"

	"github.com/gilchrisn/graph-partition-service/pkg/dendrogram"
)

// InvalidPartitionCountError reports a non-positive number of bins.
type InvalidPartitionCountError struct {
	N int
}

func (e *InvalidPartitionCountError) Error() string {
	return fmt.Sprintf("invalid partition count %d: must be positive", e.N)
}

// Assignment is the result of a distribution. Bins[i] lists the nodes placed
// in bin i in placement order and Loads[i] is the summed size of the
// clusters placed there.
type Assignment struct {
	Bins  [][]int64 `json:"bins"`
	Loads []int     `json:"loads"`
}

func newAssignment(n int) *Assignment {
	a := &Assignment{
		Bins:  make([][]int64, n),
		Loads: make([]int, n),
	}
	for i := range a.Bins {
		a.Bins[i] = []int64{}
	}
	return a
}

func (a *Assignment) place(bin int, c dendrogram.Cluster) {
	a.Bins[bin] = append(a.Bins[bin], c.Nodes...)
	a.Loads[bin] += c.Size()
}

// Len returns the number of bins.
func (a *Assignment) Len() int { return len(a.Bins) }

// Partitions returns a copy of the bins.
func (a *Assignment) Partitions() [][]int64 {
	out := make([][]int64, len(a.Bins))
	for i, bin := range a.Bins {
		out[i] = append([]int64{}, bin...)
	}
	return out
}

// Total returns the sum of all loads.
func (a *Assignment) Total() int {
	total := 0
	for _, load := range a.Loads {
		total += load
	}
	return total
}

// BinOf maps every placed node to its bin.
func (a *Assignment) BinOf() map[int64]int {
	owner := make(map[int64]int)
	for i, bin := range a.Bins {
		for _, node := range bin {
			owner[node] = i
		}
	}
	return owner
}

// BalancedPartition packs clusters into n bins with the greedy least-loaded
// rule. Clusters are taken in the order given, which callers keep ascending
// by size. Each cluster goes whole to the bin with the smallest load; among
// equal loads the lowest bin index wins. The result is not optimal in
// general: for sizes [1, 1, 5] and n = 2 it yields loads [6, 1].
//
// Bins beyond the number of clusters stay empty.
func BalancedPartition(clusters []dendrogram.Cluster, n int) (*Assignment, error) {
	if n <= 0 {
		return nil, &InvalidPartitionCountError{N: n}
	}

	a := newAssignment(n)
	for _, c := range clusters {
		bin := 0
		for i := 1; i < n; i++ {
			if a.Loads[i] < a.Loads[bin] {
				bin = i
			}
		}
		a.place(bin, c)
	}

	return a, nil
}

// Distributor is a distribution strategy with the BalancedPartition contract.
type Distributor func(clusters []dendrogram.Cluster, n int) (*Assignment, error)

// Distributor names accepted by NewDistributor.
const (
	DistributorScan = "scan"
	DistributorHeap = "heap"
)

// NewDistributor returns the distributor registered under name. Both
// distributors produce identical assignments.
func NewDistributor(name string) (Distributor, error) {
	switch name {
	case DistributorScan, "":
		return BalancedPartition, nil
	case DistributorHeap:
		return BalancedPartitionHeap, nil
	default:
		return nil, fmt.Errorf("unknown distributor %q", name)
	}
}
