package partition

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/graph-partition-service/pkg/dendrogram"
)

func cluster(id int, nodes ...int64) dendrogram.Cluster {
	return dendrogram.Cluster{ID: id, Nodes: nodes}
}

func TestBalancedPartitionSingletons(t *testing.T) {
	clusters := []dendrogram.Cluster{cluster(0, 10), cluster(1, 11), cluster(2, 12)}

	a, err := BalancedPartition(clusters, 3)
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{10}, {11}, {12}}, a.Bins)
	assert.Equal(t, []int{1, 1, 1}, a.Loads)
}

func TestBalancedPartitionGreedyIsNotOptimal(t *testing.T) {
	// x has 5 nodes, y and z one each; sorted ascending: y, z, x.
	x := cluster(0, 1, 2, 3, 4, 5)
	y := cluster(1, 6)
	z := cluster(2, 7)

	a, err := BalancedPartition([]dendrogram.Cluster{y, z, x}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{6, 1, 2, 3, 4, 5}, {7}}, a.Bins)
	assert.Equal(t, []int{6, 1}, a.Loads)
}

func TestBalancedPartitionTieBreaksOnLowestIndex(t *testing.T) {
	clusters := []dendrogram.Cluster{cluster(0, 1, 2), cluster(1, 3, 4), cluster(2, 5, 6)}

	a, err := BalancedPartition(clusters, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2, 0}, a.Loads)
	assert.Empty(t, a.Bins[3])
	assert.NotNil(t, a.Bins[3])
}

func TestBalancedPartitionInvalidCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		for name, distribute := range map[string]Distributor{
			"scan": BalancedPartition,
			"heap": BalancedPartitionHeap,
		} {
			_, err := distribute([]dendrogram.Cluster{cluster(0, 1)}, n)
			var countErr *InvalidPartitionCountError
			require.True(t, errors.As(err, &countErr), name)
			assert.Equal(t, n, countErr.N)
		}
	}
}

func TestBalancedPartitionNoClusters(t *testing.T) {
	a, err := BalancedPartition(nil, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 0, a.Total())
}

func TestHeapMatchesScan(t *testing.T) {
	clusters := []dendrogram.Cluster{
		cluster(0, 1), cluster(1, 2), cluster(2, 3, 4), cluster(3, 5, 6),
		cluster(4, 7, 8, 9), cluster(5, 10, 11, 12, 13), cluster(6, 14, 15, 16, 17, 18),
	}
	for n := 1; n <= 9; n++ {
		scan, err := BalancedPartition(clusters, n)
		require.NoError(t, err)
		heaped, err := BalancedPartitionHeap(clusters, n)
		require.NoError(t, err)
		assert.Equal(t, scan, heaped, "n=%d", n)
	}
}

func TestNewDistributor(t *testing.T) {
	for _, name := range []string{"", DistributorScan, DistributorHeap} {
		d, err := NewDistributor(name)
		require.NoError(t, err)
		a, err := d([]dendrogram.Cluster{cluster(0, 1), cluster(1, 2, 3)}, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, a.Loads)
	}

	_, err := NewDistributor("random")
	assert.Error(t, err)
}

func TestWeightedPartition(t *testing.T) {
	clusters := []dendrogram.Cluster{
		cluster(0, 1), cluster(1, 2), cluster(2, 3), cluster(3, 4),
		cluster(4, 5), cluster(5, 6), cluster(6, 7), cluster(7, 8),
	}

	a, err := WeightedPartition(clusters, 2, []float64{0.75, 0.25})
	require.NoError(t, err)
	assert.Equal(t, []int{6, 2}, a.Loads)
	assert.Equal(t, []int64{1, 3, 4, 5, 7, 8}, a.Bins[0])
	assert.Equal(t, []int64{2, 6}, a.Bins[1])
}

func TestWeightedPartitionNilWeightsMatchesBalanced(t *testing.T) {
	clusters := []dendrogram.Cluster{cluster(0, 6), cluster(1, 7), cluster(2, 1, 2, 3, 4, 5)}

	weighted, err := WeightedPartition(clusters, 2, nil)
	require.NoError(t, err)
	balanced, err := BalancedPartition(clusters, 2)
	require.NoError(t, err)
	assert.Equal(t, balanced, weighted)

	equal, err := WeightedPartition(clusters, 2, []float64{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, balanced, equal)
}

func TestValidateWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		n       int
		want    error
	}{
		{name: "nil", weights: nil, n: 3},
		{name: "valid", weights: []float64{0.2, 0.3, 0.5}, n: 3},
		{name: "count", weights: []float64{0.5, 0.5}, n: 3, want: ErrWeightCount},
		{name: "sum", weights: []float64{0.5, 0.6}, n: 2, want: ErrWeightSum},
		{name: "zero", weights: []float64{1, 0}, n: 2, want: ErrWeightValue},
		{name: "negative", weights: []float64{1.5, -0.5}, n: 2, want: ErrWeightValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWeights(tt.weights, tt.n)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRoundRobin(t *testing.T) {
	nodes := []int64{1, 2, 3, 4, 5, 6, 7}

	a, err := RoundRobin(nodes, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 4, 7}, {2, 5}, {3, 6}}, a.Bins)
	assert.Equal(t, []int{3, 2, 2}, a.Loads)

	a, err = RoundRobin(nodes, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 2, 5, 6}, {3, 4, 7}}, a.Bins)

	zero, err := RoundRobin(nodes, 3, 0)
	require.NoError(t, err)
	one, err := RoundRobin(nodes, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, one, zero)

	_, err = RoundRobin(nodes, 0, 1)
	assert.Error(t, err)
}

func TestDealSkipsPlacedNodes(t *testing.T) {
	a, err := BalancedPartition([]dendrogram.Cluster{cluster(0, 1, 2), cluster(1, 3)}, 2)
	require.NoError(t, err)

	added := a.Deal([]int64{2, 9, 10, 9, 11})
	assert.Equal(t, 3, added)
	assert.Equal(t, [][]int64{{1, 2, 9, 11}, {3, 10}}, a.Bins)
	assert.Equal(t, []int{4, 2}, a.Loads)
}

func TestStats(t *testing.T) {
	a := &Assignment{Bins: make([][]int64, 4), Loads: []int{2, 4, 4, 6}}

	s := a.Stats()
	assert.Equal(t, 4, s.Bins)
	assert.Equal(t, 16, s.Total)
	assert.Equal(t, 2, s.Min)
	assert.Equal(t, 6, s.Max)
	assert.Equal(t, 4, s.Spread)
	assert.InDelta(t, 4.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.4142135623730951, s.StdDev, 1e-12)
	assert.InDelta(t, 1.5, s.Imbalance, 1e-12)
	assert.Equal(t, 0, s.EmptyBins)

	empty := (&Assignment{Bins: make([][]int64, 2), Loads: []int{0, 0}}).Stats()
	assert.Equal(t, 2, empty.EmptyBins)
	assert.Zero(t, empty.Imbalance)
}
