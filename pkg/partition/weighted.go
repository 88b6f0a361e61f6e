package partition

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/gilchrisn/graph-partition-service/pkg/dendrogram"
)

// WeightTolerance is how far target weights may sum away from 1.
const WeightTolerance = 1e-6

var (
	// ErrWeightCount is returned when the number of target weights differs
	// from the number of bins.
	ErrWeightCount = errors.New("number of weights must equal the number of partitions")
	// ErrWeightSum is returned when target weights do not sum to 1.
	ErrWeightSum = errors.New("partition weights must sum to 1.0")
	// ErrWeightValue is returned for a weight that is not strictly positive.
	ErrWeightValue = errors.New("partition weights must be positive")
)

// ValidateWeights checks target weights for n bins. Nil weights are valid
// and mean equal shares.
func ValidateWeights(weights []float64, n int) error {
	if n <= 0 {
		return &InvalidPartitionCountError{N: n}
	}
	if weights == nil {
		return nil
	}
	if len(weights) != n {
		return fmt.Errorf("%w: got %d weights for %d partitions", ErrWeightCount, len(weights), n)
	}
	for i, w := range weights {
		if !(w > 0) || math.IsInf(w, 1) {
			return fmt.Errorf("%w: weight %d is %v", ErrWeightValue, i, w)
		}
	}
	if sum := floats.Sum(weights); math.Abs(sum-1) > WeightTolerance {
		return fmt.Errorf("%w: got %v", ErrWeightSum, sum)
	}
	return nil
}

// WeightedPartition distributes clusters so that bin i receives roughly
// weights[i] of the total load. Each cluster goes to the bin with the
// smallest load/weight ratio, lowest index first among equals. With nil
// weights it is BalancedPartition.
func WeightedPartition(clusters []dendrogram.Cluster, n int, weights []float64) (*Assignment, error) {
	if err := ValidateWeights(weights, n); err != nil {
		return nil, err
	}
	if weights == nil {
		return BalancedPartition(clusters, n)
	}

	a := newAssignment(n)
	for _, c := range clusters {
		bin := 0
		best := 0.0
		for i := 0; i < n; i++ {
			ratio := float64(a.Loads[i]) / weights[i]
			if i == 0 || ratio < best {
				bin, best = i, ratio
			}
		}
		a.place(bin, c)
	}

	return a, nil
}
