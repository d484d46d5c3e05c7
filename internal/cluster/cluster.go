// Package cluster implements the clustering strategies used to quantize an image:
// seeded k-means with silhouette-driven selection of K, and mean-shift mode seeking.
//
// All strategies operate on flat lists of colour vectors and take their seed
// explicitly, so repeated runs over the same input are bit-identical.
package cluster

import (
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/labquant/internal/raster"
)

// ErrInvalidInput is returned when the points cannot satisfy a clustering request,
// for example an empty list or fewer distinct points than clusters.
var ErrInvalidInput = raster.ErrInvalidInput

// Result is the outcome of one clustering run.
// Labels[i] indexes Centroids for the i-th input point.
type Result struct {
	Labels    []int
	Centroids []raster.Vec
	// Sizes holds the number of input points assigned to each centroid.
	Sizes      []int
	Inertia    float64
	Iterations int
	Converged  bool
}

// K returns the number of clusters.
func (r *Result) K() int {
	return len(r.Centroids)
}

// dataset is a point list compacted to its distinct vectors.
// Clustering over weighted distinct colours gives the same partition as
// clustering every pixel, at a fraction of the cost on real images.
type dataset struct {
	points  []raster.Vec
	weights []float64
	index   []int // input position -> distinct point
}

func compact(points []raster.Vec) *dataset {
	ds := &dataset{index: make([]int, len(points))}
	seen := make(map[raster.Vec]int)
	for i, p := range points {
		j, ok := seen[p]
		if !ok {
			j = len(ds.points)
			seen[p] = j
			ds.points = append(ds.points, p)
			ds.weights = append(ds.weights, 0)
		}
		ds.weights[j]++
		ds.index[i] = j
	}
	return ds
}

// expand maps labels over distinct points back onto every input point.
func (ds *dataset) expand(labels []int, k int) ([]int, []int) {
	out := make([]int, len(ds.index))
	sizes := make([]int, k)
	for i, j := range ds.index {
		out[i] = labels[j]
		sizes[labels[j]]++
	}
	return out, sizes
}

// distinct counts the distinct vectors in points.
func distinct(points []raster.Vec) int {
	seen := make(map[raster.Vec]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// nearest returns the index of the closest centroid and the squared distance to it.
func nearest(p raster.Vec, centroids []raster.Vec) (int, float64) {
	best := 0
	bestDist := p.Dist2(centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := p.Dist2(centroids[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

func orNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
