package partition

import (
	"container/heap"

	"github.com/gilchrisn/graph-partition-service/pkg/dendrogram"
)

// binHeap orders bin indices by (load, index) so the root is the bin the
// linear scan in BalancedPartition would choose.
type binHeap struct {
	bins  []int
	loads []int
}

func (h *binHeap) Len() int { return len(h.bins) }

func (h *binHeap) Less(i, j int) bool {
	a, b := h.bins[i], h.bins[j]
	if h.loads[a] != h.loads[b] {
		return h.loads[a] < h.loads[b]
	}
	return a < b
}

func (h *binHeap) Swap(i, j int) { h.bins[i], h.bins[j] = h.bins[j], h.bins[i] }

func (h *binHeap) Push(x any) { h.bins = append(h.bins, x.(int)) }

func (h *binHeap) Pop() any {
	last := h.bins[len(h.bins)-1]
	h.bins = h.bins[:len(h.bins)-1]
	return last
}

// BalancedPartitionHeap is BalancedPartition with the minimum bin kept in a
// priority queue, O(clusters log n) instead of O(clusters n).
func BalancedPartitionHeap(clusters []dendrogram.Cluster, n int) (*Assignment, error) {
	if n <= 0 {
		return nil, &InvalidPartitionCountError{N: n}
	}

	a := newAssignment(n)
	h := &binHeap{bins: make([]int, n), loads: a.Loads}
	for i := range h.bins {
		h.bins[i] = i
	}
	heap.Init(h)

	for _, c := range clusters {
		bin := h.bins[0]
		a.place(bin, c)
		heap.Fix(h, 0)
	}

	return a, nil
}
