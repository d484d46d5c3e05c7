package quantize

import (
	"fmt"

	"github.com/jmylchreest/labquant/internal/cluster"
	"github.com/jmylchreest/labquant/internal/colour"
	"github.com/jmylchreest/labquant/internal/raster"
)

// Result is everything reconstruction needs from a clustering run.
type Result struct {
	Labels    []int
	Centroids []raster.Vec
	Width     int
	Height    int

	Mode  Mode
	Seed  int64
	Sizes []int
}

func newResult(res *cluster.Result, width, height int, mode Mode, seed int64) *Result {
	return &Result{
		Labels:    res.Labels,
		Centroids: res.Centroids,
		Width:     width,
		Height:    height,
		Mode:      mode,
		Seed:      seed,
		Sizes:     res.Sizes,
	}
}

// K returns the number of clusters.
func (r *Result) K() int {
	return len(r.Centroids)
}

// Validate checks that the labels cover the image and index real centroids.
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: result is nil", raster.ErrInvalidInput)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: zero-length dimension (%dx%d)", raster.ErrInvalidInput, r.Width, r.Height)
	}
	if len(r.Labels) != r.Width*r.Height {
		return fmt.Errorf("%w: %d labels for %dx%d pixels", raster.ErrInvalidInput, len(r.Labels), r.Width, r.Height)
	}
	if len(r.Centroids) == 0 {
		return fmt.Errorf("%w: no centroids", raster.ErrInvalidInput)
	}
	for i, l := range r.Labels {
		if l < 0 || l >= len(r.Centroids) {
			return fmt.Errorf("%w: label %d at pixel %d outside [0, %d)", raster.ErrInvalidInput, l, i, len(r.Centroids))
		}
	}
	return nil
}

// Palette returns the centroid colours in sRGB weighted by cluster size.
func (r *Result) Palette() *colour.Palette {
	colours := make([]colour.RGB, len(r.Centroids))
	for i, c := range r.Centroids {
		colours[i] = colour.RGBFromLab(c)
	}

	counts := make([]float64, len(r.Centroids))
	if len(r.Sizes) == len(r.Centroids) {
		for i, s := range r.Sizes {
			counts[i] = float64(s)
		}
	} else {
		for _, l := range r.Labels {
			counts[l]++
		}
	}
	return colour.NewPalette(colours, counts)
}
