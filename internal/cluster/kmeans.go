package cluster

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/labquant/internal/raster"
)

// KMeans partitions points into a fixed number of clusters by iterative
// centroid relocation with seeded k-means++ initialisation.
type KMeans struct {
	// MaxIterations caps the number of assign/update rounds per run.
	// Reaching the cap is not an error; the last centroids are kept.
	MaxIterations int
	// Runs is the number of independently seeded restarts; the run with the
	// lowest inertia wins. Run i uses seed+i.
	Runs   int
	Logger hclog.Logger
}

// NewKMeans creates a KMeans with default settings.
func NewKMeans() *KMeans {
	return &KMeans{
		MaxIterations: 300,
		Runs:          1,
	}
}

// Fit clusters points into k groups. The same points, k and seed always
// produce the same labels and centroids.
func (km *KMeans) Fit(points []raster.Vec, k int, seed int64) (*Result, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no points to cluster", ErrInvalidInput)
	}
	if k < 1 {
		return nil, fmt.Errorf("%w: cluster count must be at least 1, got %d", ErrInvalidInput, k)
	}

	ds := compact(points)
	if k > len(ds.points) {
		return nil, fmt.Errorf("%w: cluster count %d exceeds %d distinct points", ErrInvalidInput, k, len(ds.points))
	}

	runs := max(km.Runs, 1)
	var best *Result
	var bestLabels []int
	for run := 0; run < runs; run++ {
		labels, res := km.fit(ds, k, seed+int64(run))
		if best == nil || res.Inertia < best.Inertia {
			best, bestLabels = res, labels
		}
	}

	best.Labels, best.Sizes = ds.expand(bestLabels, k)
	if !best.Converged {
		orNull(km.Logger).Debug("k-means reached iteration cap", "k", k, "iterations", best.Iterations)
	}
	return best, nil
}

// fit runs one seeded k-means over the distinct points.
// It returns labels over ds.points and a Result without Labels or Sizes.
func (km *KMeans) fit(ds *dataset, k int, seed int64) ([]int, *Result) {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- reproducible clustering, not security
	centroids := initPlusPlus(ds, k, rng)

	labels := make([]int, len(ds.points))
	for i := range labels {
		labels[i] = -1
	}
	dists := make([]float64, len(ds.points))

	maxIter := km.MaxIterations
	if maxIter <= 0 {
		maxIter = 300
	}

	res := &Result{}
	for iter := 1; iter <= maxIter; iter++ {
		res.Iterations = iter

		changed := 0
		for i, p := range ds.points {
			nearestIdx, d := nearest(p, centroids)
			dists[i] = d
			if labels[i] != nearestIdx {
				labels[i] = nearestIdx
				changed++
			}
		}
		changed += km.reseedEmpty(ds, labels, dists, k)

		if changed == 0 {
			res.Converged = true
			break
		}
		centroids = recalculateCentroids(ds, labels, k)
	}

	for i, p := range ds.points {
		res.Inertia += ds.weights[i] * p.Dist2(centroids[labels[i]])
	}
	res.Centroids = centroids
	return labels, res
}

// initPlusPlus picks k starting centroids, each new one drawn with probability
// proportional to weight times squared distance from the nearest chosen centroid.
func initPlusPlus(ds *dataset, k int, rng *rand.Rand) []raster.Vec {
	n := len(ds.points)
	centroids := make([]raster.Vec, 0, k)
	chosen := make([]bool, n)

	total := 0.0
	for _, w := range ds.weights {
		total += w
	}
	first := pickWeighted(ds.weights, total, rng.Float64())
	centroids = append(centroids, ds.points[first])
	chosen[first] = true

	minDist := make([]float64, n)
	for i, p := range ds.points {
		minDist[i] = p.Dist2(centroids[0])
	}

	scores := make([]float64, n)
	for len(centroids) < k {
		total = 0
		for i := range scores {
			scores[i] = ds.weights[i] * minDist[i]
			total += scores[i]
		}

		var next int
		if total > 0 {
			next = pickWeighted(scores, total, rng.Float64())
		} else {
			// Only reachable through float underflow; take the first unused point.
			for i := range chosen {
				if !chosen[i] {
					next = i
					break
				}
			}
		}

		c := ds.points[next]
		centroids = append(centroids, c)
		chosen[next] = true
		for i, p := range ds.points {
			if d := p.Dist2(c); d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	return centroids
}

// pickWeighted returns the index whose cumulative weight first reaches u*total.
func pickWeighted(weights []float64, total, u float64) int {
	target := u * total
	cumulative := 0.0
	last := 0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cumulative += w
		last = i
		if cumulative >= target {
			return i
		}
	}
	return last
}

// reseedEmpty moves the point farthest from its centroid into every empty
// cluster. Donor clusters are never emptied. Returns the number of moves.
func (km *KMeans) reseedEmpty(ds *dataset, labels []int, dists []float64, k int) int {
	members := make([]int, k)
	for _, l := range labels {
		members[l]++
	}

	var empty []int
	for j, m := range members {
		if m == 0 {
			empty = append(empty, j)
		}
	}
	if len(empty) == 0 {
		return 0
	}

	order := make([]int, len(ds.points))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return dists[order[a]] > dists[order[b]]
	})

	moved := 0
	next := 0
	for _, j := range empty {
		for ; next < len(order); next++ {
			i := order[next]
			if members[labels[i]] > 1 {
				orNull(km.Logger).Trace("reseeding empty cluster", "cluster", j, "distance", math.Sqrt(dists[i]))
				members[labels[i]]--
				labels[i] = j
				members[j]++
				dists[i] = 0
				moved++
				next++
				break
			}
		}
	}
	return moved
}

// recalculateCentroids returns the weighted mean of the points in each cluster.
func recalculateCentroids(ds *dataset, labels []int, k int) []raster.Vec {
	sums := make([]raster.Vec, k)
	counts := make([]float64, k)

	for i, p := range ds.points {
		w := ds.weights[i]
		l := labels[i]
		sums[l][0] += w * p[0]
		sums[l][1] += w * p[1]
		sums[l][2] += w * p[2]
		counts[l] += w
	}

	centroids := make([]raster.Vec, k)
	for j := range centroids {
		if counts[j] > 0 {
			centroids[j] = raster.Vec{
				sums[j][0] / counts[j],
				sums[j][1] / counts[j],
				sums[j][2] / counts[j],
			}
		}
	}
	return centroids
}
