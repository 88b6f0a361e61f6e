package partition

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises how evenly an assignment spreads its load.
type Stats struct {
	Bins      int     `json:"bins" yaml:"bins"`
	Total     int     `json:"total" yaml:"total"`
	Min       int     `json:"min" yaml:"min"`
	Max       int     `json:"max" yaml:"max"`
	Spread    int     `json:"spread" yaml:"spread"`
	Mean      float64 `json:"mean" yaml:"mean"`
	StdDev    float64 `json:"std_dev" yaml:"std_dev"`
	Imbalance float64 `json:"imbalance" yaml:"imbalance"` // max/mean, 1 is perfect
	EmptyBins int     `json:"empty_bins" yaml:"empty_bins"`
}

// Stats computes load statistics. StdDev is the population deviation.
func (a *Assignment) Stats() Stats {
	s := Stats{Bins: len(a.Loads)}
	if len(a.Loads) == 0 {
		return s
	}

	loads := make([]float64, len(a.Loads))
	for i, load := range a.Loads {
		loads[i] = float64(load)
		if load == 0 {
			s.EmptyBins++
		}
	}

	s.Total = int(floats.Sum(loads))
	s.Min = int(floats.Min(loads))
	s.Max = int(floats.Max(loads))
	s.Spread = s.Max - s.Min
	s.Mean = stat.Mean(loads, nil)
	s.StdDev = math.Sqrt(stat.PopVariance(loads, nil))
	if s.Mean > 0 {
		s.Imbalance = float64(s.Max) / s.Mean
	}

	return s
}
