package coverage

import (
	"sort"

	"github.com/panbanda/couette/pkg/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the distribution of per-file combined percentages.
type Stats struct {
	Files  int     `json:"files"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Distribution computes Stats over every file in the snapshot. Values are
// percentages rounded to one decimal. An empty snapshot yields zero Stats.
func Distribution(s *models.Snapshot) Stats {
	n := s.Len()
	if n == 0 {
		return Stats{}
	}

	xs := make([]float64, n)
	for i, f := range s.Files {
		xs[i] = CombinedPercent(f.Coverage) * 100
	}
	sort.Float64s(xs)

	out := Stats{
		Files:  n,
		Mean:   RoundValue(stat.Mean(xs, nil)),
		Median: RoundValue(stat.Quantile(0.5, stat.Empirical, xs, nil)),
		Min:    RoundValue(floats.Min(xs)),
		Max:    RoundValue(floats.Max(xs)),
	}
	// Sample standard deviation is undefined for a single value.
	if n > 1 {
		out.StdDev = RoundValue(stat.StdDev(xs, nil))
	}
	return out
}
