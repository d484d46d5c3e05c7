package cluster

import (
	"gonum.org/v1/gonum/stat"

	"github.com/jmylchreest/labquant/internal/raster"
)

// Silhouette returns the mean silhouette coefficient of a labelling.
//
// For each point, a is its mean distance to the other members of its cluster
// and b its mean distance to the members of the nearest other cluster; the
// point scores (b-a)/max(a,b). Points alone in their cluster score 0.
// The cost is quadratic in len(points), so callers pass a sample.
func Silhouette(points []raster.Vec, labels []int, k int) float64 {
	if len(points) < 2 || len(labels) != len(points) || k < 2 {
		return 0
	}

	counts := make([]float64, k)
	for _, l := range labels {
		counts[l]++
	}

	scores := make([]float64, len(points))
	sums := make([]float64, k)
	for i, p := range points {
		own := labels[i]
		if counts[own] <= 1 {
			continue
		}

		for c := range sums {
			sums[c] = 0
		}
		for j, q := range points {
			sums[labels[j]] += p.Dist(q)
		}

		a := sums[own] / (counts[own] - 1)
		b := -1.0
		for c := range sums {
			if c == own || counts[c] == 0 {
				continue
			}
			if m := sums[c] / counts[c]; b < 0 || m < b {
				b = m
			}
		}
		if b < 0 {
			continue
		}

		if denom := max(a, b); denom > 0 {
			scores[i] = (b - a) / denom
		}
	}

	return stat.Mean(scores, nil)
}
