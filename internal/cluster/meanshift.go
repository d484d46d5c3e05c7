package cluster

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/labquant/internal/raster"
)

// MeanShift finds clusters as the density modes of the points. The number
// of clusters is a property of the data; no K is given.
type MeanShift struct {
	// Bandwidth is the neighbourhood radius. Zero estimates it from the data.
	Bandwidth float64
	// Quantile and Samples drive the estimate when Bandwidth is zero.
	Quantile float64
	Samples  int
	// MinBandwidth floors the radius so constant images still have one.
	// Zero means 1.0.
	MinBandwidth float64
	// BinSeeding starts the search from occupied grid bins of size Bandwidth
	// instead of from every distinct point.
	BinSeeding bool
	// MinBinFreq is the minimum number of points a bin needs to become a seed.
	MinBinFreq    int
	MaxIterations int
	Logger        hclog.Logger
}

// NewMeanShift creates a MeanShift with default settings.
func NewMeanShift() *MeanShift {
	return &MeanShift{
		Quantile:      DefaultQuantile,
		Samples:       DefaultBandwidthSamples,
		MinBandwidth:  1.0,
		BinSeeding:    true,
		MinBinFreq:    1,
		MaxIterations: 300,
	}
}

// mode is a converged seed and the weight within its final window.
type mode struct {
	centre     raster.Vec
	population float64
}

// Fit locates the density modes of points and assigns every point to its
// nearest surviving mode. At least one cluster is always returned.
func (ms *MeanShift) Fit(points []raster.Vec, seed int64) (*Result, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points to cluster", ErrInvalidInput)
	}
	logger := orNull(ms.Logger)

	bandwidth := ms.Bandwidth
	if bandwidth <= 0 {
		bandwidth = EstimateBandwidth(points, ms.Quantile, ms.Samples, seed)
	}
	floor := ms.MinBandwidth
	if floor <= 0 {
		floor = 1.0
	}
	if bandwidth < floor {
		bandwidth = floor
	}

	ds := compact(points)
	index := newGrid(ds, bandwidth)
	seeds := ms.seeds(ds, bandwidth)
	logger.Debug("mean shift starting", "bandwidth", bandwidth, "distinct", len(ds.points), "seeds", len(seeds))

	maxIter := ms.MaxIterations
	if maxIter <= 0 {
		maxIter = 300
	}
	stop := 1e-3 * bandwidth

	converged := true
	iterations := 0
	var modes []mode
	for _, s := range seeds {
		centre := s
		var population float64
		done := false
		for iter := 1; iter <= maxIter; iter++ {
			iterations = max(iterations, iter)
			next, weight := index.windowMean(centre)
			if weight == 0 {
				break
			}
			population = weight
			moved := next.Dist(centre)
			centre = next
			if moved < stop {
				done = true
				break
			}
		}
		if population == 0 {
			continue
		}
		if !done {
			converged = false
		}
		modes = append(modes, mode{centre: centre, population: population})
	}

	centroids := suppress(modes, bandwidth)
	if len(centroids) == 0 {
		// Every window was empty: fall back to the single global mean.
		centroids = []raster.Vec{weightedMean(ds)}
	}

	labels := make([]int, len(ds.points))
	inertia := 0.0
	for i, p := range ds.points {
		l, d := nearest(p, centroids)
		labels[i] = l
		inertia += ds.weights[i] * d
	}

	res := &Result{
		Centroids:  centroids,
		Inertia:    inertia,
		Iterations: iterations,
		Converged:  converged,
	}
	res.Labels, res.Sizes = ds.expand(labels, len(centroids))

	if !converged {
		logger.Debug("mean shift reached iteration cap on some seeds", "max_iterations", maxIter)
	}
	logger.Debug("mean shift finished", "clusters", len(centroids))
	return res, nil
}

// seeds returns the starting points of the search in a deterministic order.
func (ms *MeanShift) seeds(ds *dataset, bandwidth float64) []raster.Vec {
	if !ms.BinSeeding {
		return ds.points
	}

	minFreq := float64(max(ms.MinBinFreq, 1))
	counts := make(map[cell]float64)
	var order []cell
	for i, p := range ds.points {
		c := binOf(p, bandwidth, math.Round)
		if _, ok := counts[c]; !ok {
			order = append(order, c)
		}
		counts[c] += ds.weights[i]
	}

	seeds := make([]raster.Vec, 0, len(order))
	for _, c := range order {
		if counts[c] >= minFreq {
			seeds = append(seeds, raster.Vec{
				float64(c[0]) * bandwidth,
				float64(c[1]) * bandwidth,
				float64(c[2]) * bandwidth,
			})
		}
	}
	if len(seeds) == 0 || len(seeds) == len(ds.points) {
		// Binning bought nothing; seed from the points themselves.
		return ds.points
	}
	return seeds
}

// suppress keeps modes in order of decreasing population, dropping any that
// lies within bandwidth of a mode already kept.
func suppress(modes []mode, bandwidth float64) []raster.Vec {
	sort.SliceStable(modes, func(a, b int) bool {
		return modes[a].population > modes[b].population
	})

	limit := bandwidth * bandwidth
	var kept []raster.Vec
	for _, m := range modes {
		duplicate := false
		for _, k := range kept {
			if m.centre.Dist2(k) < limit {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, m.centre)
		}
	}
	return kept
}

func weightedMean(ds *dataset) raster.Vec {
	var sum raster.Vec
	total := 0.0
	for i, p := range ds.points {
		w := ds.weights[i]
		sum[0] += w * p[0]
		sum[1] += w * p[1]
		sum[2] += w * p[2]
		total += w
	}
	return raster.Vec{sum[0] / total, sum[1] / total, sum[2] / total}
}
