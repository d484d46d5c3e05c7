package cluster

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/labquant/internal/raster"
)

// Default bounds of the cluster count search.
const (
	DefaultKMin       = 2
	DefaultKMax       = 10
	DefaultSampleSize = 2000
)

// SelectK runs k-means for every K in [kMin, kMax] and returns the K with the
// highest silhouette score, preferring the smallest K on ties.
//
// The silhouette is undefined unless every candidate K is below the number
// of distinct points, so fewer than kMax+1 distinct points is ErrInvalidInput.
func SelectK(points []raster.Vec, kMin, kMax int, km *KMeans, seed int64) (int, error) {
	if kMin < 2 {
		return 0, fmt.Errorf("%w: minimum cluster count must be at least 2, got %d", ErrInvalidInput, kMin)
	}
	if kMax < kMin {
		return 0, fmt.Errorf("%w: empty cluster count range [%d, %d]", ErrInvalidInput, kMin, kMax)
	}
	if d := distinct(points); d < kMax+1 {
		return 0, fmt.Errorf("%w: %d distinct points cannot be scored for K up to %d", ErrInvalidInput, d, kMax)
	}
	if km == nil {
		km = NewKMeans()
	}
	logger := orNull(km.Logger)

	bestK := kMin
	bestScore := math.Inf(-1)
	for k := kMin; k <= kMax; k++ {
		res, err := km.Fit(points, k, seed)
		if err != nil {
			return 0, fmt.Errorf("k-means with k=%d failed: %w", k, err)
		}

		score := Silhouette(points, res.Labels, k)
		logger.Debug("scored cluster count", "k", k, "silhouette", score, "iterations", res.Iterations)
		if score > bestScore {
			bestK, bestScore = k, score
		}
	}

	logger.Debug("selected cluster count", "k", bestK, "silhouette", bestScore)
	return bestK, nil
}

// Selector chooses the number of clusters for a point list.
type Selector interface {
	Select(points []raster.Vec, seed int64) (int, error)
}

// FullSearch scores every candidate K over the complete point list.
// The range is shrunk so that it stays below the number of distinct points.
type FullSearch struct {
	KMin   int
	KMax   int
	KMeans *KMeans
}

// Select implements Selector.
func (s FullSearch) Select(points []raster.Vec, seed int64) (int, error) {
	kMin, kMax := s.bounds()
	d := distinct(points)
	if d < kMin {
		return 0, fmt.Errorf("%w: %d distinct colours, need at least %d", ErrInvalidInput, d, kMin)
	}

	kMax = min(kMax, d-1)
	if kMax < kMin {
		// Exactly kMin distinct points: each gets its own cluster.
		return kMin, nil
	}
	return SelectK(points, kMin, kMax, s.KMeans, seed)
}

func (s FullSearch) bounds() (int, int) {
	kMin, kMax := s.KMin, s.KMax
	if kMin == 0 {
		kMin = DefaultKMin
	}
	if kMax == 0 {
		kMax = DefaultKMax
	}
	return kMin, kMax
}

// SampledSearch runs a FullSearch over a seeded random subsample, bounding the
// cost of the search independently of image size.
type SampledSearch struct {
	Search     FullSearch
	SampleSize int
	Logger     hclog.Logger
}

// Select implements Selector.
func (s SampledSearch) Select(points []raster.Vec, seed int64) (int, error) {
	kMin, _ := s.Search.bounds()
	if d := distinct(points); d < kMin {
		return 0, fmt.Errorf("%w: %d distinct colours, need at least %d", ErrInvalidInput, d, kMin)
	}

	size := s.SampleSize
	if size <= 0 {
		size = DefaultSampleSize
	}
	sample := Sample(points, size, seed)
	orNull(s.Logger).Debug("sampled points for cluster count search", "points", len(points), "sample", len(sample))

	if distinct(sample) < kMin {
		// The sample missed the rarer colours; the full list still supports kMin.
		return kMin, nil
	}
	return s.Search.Select(sample, seed)
}

// FixedK skips the search and always proposes K, clamped to the number of
// distinct points.
type FixedK struct {
	K int
}

// Select implements Selector.
func (s FixedK) Select(points []raster.Vec, _ int64) (int, error) {
	if s.K < 1 {
		return 0, fmt.Errorf("%w: cluster count must be at least 1, got %d", ErrInvalidInput, s.K)
	}
	d := distinct(points)
	if d == 0 {
		return 0, fmt.Errorf("%w: no points to cluster", ErrInvalidInput)
	}
	return min(s.K, d), nil
}
