package cluster

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jmylchreest/labquant/internal/raster"
)

// Defaults for bandwidth estimation.
const (
	DefaultQuantile         = 0.1
	DefaultBandwidthSamples = 500
)

// EstimateBandwidth derives a mean-shift radius from the data's own scale.
//
// Up to samples points are drawn with the given seed. For every sampled point
// the distance to its ⌊n·quantile⌋-th nearest sampled neighbour is taken
// (at least the first, the point itself excluded), and the mean of those
// distances is returned. A list with fewer than two points yields 0.
func EstimateBandwidth(points []raster.Vec, quantile float64, samples int, seed int64) float64 {
	if quantile <= 0 || quantile > 1 {
		quantile = DefaultQuantile
	}
	if samples <= 0 {
		samples = DefaultBandwidthSamples
	}

	sample := Sample(points, samples, seed)
	n := len(sample)
	if n < 2 {
		return 0
	}

	k := int(float64(n) * quantile)
	k = max(1, min(k, n-1))

	kth := make([]float64, n)
	dists := make([]float64, 0, n-1)
	for i, p := range sample {
		dists = dists[:0]
		for j, q := range sample {
			if i != j {
				dists = append(dists, p.Dist(q))
			}
		}
		sort.Float64s(dists)
		kth[i] = dists[k-1]
	}

	return stat.Mean(kth, nil)
}
