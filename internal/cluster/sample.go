package cluster

import (
	"math/rand"

	"github.com/jmylchreest/labquant/internal/raster"
)

// Sample draws up to n points without replacement using a seeded generator.
// When n covers the whole list the input is returned unchanged.
func Sample(points []raster.Vec, n int, seed int64) []raster.Vec {
	if n <= 0 || n >= len(points) {
		return points
	}

	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- reproducible sampling, not security
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}

	// Partial Fisher-Yates: only the first n slots are needed.
	out := make([]raster.Vec, n)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = points[idx[i]]
	}
	return out
}
