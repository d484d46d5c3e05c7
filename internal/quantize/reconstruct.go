package quantize

import (
	"fmt"

	"github.com/jmylchreest/labquant/internal/raster"
)

// Reconstruct replaces every pixel with its cluster's centroid and reshapes
// the flat assignment back into the original image geometry.
func Reconstruct(result *Result) (*raster.Field, error) {
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("cannot reconstruct image: %w", err)
	}

	flat := make([]raster.Vec, len(result.Labels))
	for i, l := range result.Labels {
		flat[i] = result.Centroids[l]
	}
	return raster.Reshape(flat, result.Width, result.Height)
}
