package cluster

import (
	"math/rand"

	"github.com/jmylchreest/labquant/internal/raster"
)

var (
	labRed  = raster.Vec{53.24, 80.09, 67.20}
	labBlue = raster.Vec{32.30, 79.19, -107.86}
)

// blobs returns perPoint jittered points around each centre, interleaved so
// that neighbouring indices belong to different blobs.
func blobs(centres []raster.Vec, perBlob int, spread float64, seed int64) ([]raster.Vec, []int) {
	rng := rand.New(rand.NewSource(seed))
	points := make([]raster.Vec, 0, len(centres)*perBlob)
	truth := make([]int, 0, len(centres)*perBlob)
	for i := 0; i < perBlob; i++ {
		for c, centre := range centres {
			points = append(points, raster.Vec{
				centre[0] + (rng.Float64()*2-1)*spread,
				centre[1] + (rng.Float64()*2-1)*spread,
				centre[2] + (rng.Float64()*2-1)*spread,
			})
			truth = append(truth, c)
		}
	}
	return points, truth
}

var threeCentres = []raster.Vec{
	{20, 0, 0},
	{60, 40, 40},
	{80, -40, -40},
}

// samePartition reports whether two labellings group points identically,
// regardless of the cluster numbering.
func samePartition(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	ab := make(map[int]int)
	ba := make(map[int]int)
	for i := range a {
		if v, ok := ab[a[i]]; ok && v != b[i] {
			return false
		}
		if v, ok := ba[b[i]]; ok && v != a[i] {
			return false
		}
		ab[a[i]] = b[i]
		ba[b[i]] = a[i]
	}
	return true
}
