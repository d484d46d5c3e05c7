package cluster

import (
	"math"

	"github.com/jmylchreest/labquant/internal/raster"
)

// cell addresses a cube of side radius in the clustering space.
type cell [3]int64

func binOf(p raster.Vec, size float64, round func(float64) float64) cell {
	return cell{
		int64(round(p[0] / size)),
		int64(round(p[1] / size)),
		int64(round(p[2] / size)),
	}
}

// grid is a uniform spatial hash over weighted points answering fixed-radius
// queries by scanning the 27 cells around the query.
type grid struct {
	ds     *dataset
	radius float64
	cells  map[cell][]int
}

func newGrid(ds *dataset, radius float64) *grid {
	g := &grid{
		ds:     ds,
		radius: radius,
		cells:  make(map[cell][]int),
	}
	for i, p := range ds.points {
		c := binOf(p, radius, math.Floor)
		g.cells[c] = append(g.cells[c], i)
	}
	return g
}

// windowMean returns the weighted mean of the points within radius of centre
// and their total weight. A zero weight means the window was empty.
func (g *grid) windowMean(centre raster.Vec) (raster.Vec, float64) {
	home := binOf(centre, g.radius, math.Floor)
	limit := g.radius * g.radius

	var sum raster.Vec
	total := 0.0
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, i := range g.cells[cell{home[0] + dx, home[1] + dy, home[2] + dz}] {
					p := g.ds.points[i]
					if p.Dist2(centre) > limit {
						continue
					}
					w := g.ds.weights[i]
					sum[0] += w * p[0]
					sum[1] += w * p[1]
					sum[2] += w * p[2]
					total += w
				}
			}
		}
	}

	if total == 0 {
		return centre, 0
	}
	return raster.Vec{sum[0] / total, sum[1] / total, sum[2] / total}, total
}
