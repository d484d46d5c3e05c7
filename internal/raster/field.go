package raster

import (
	"fmt"
	"math"
)

// Vec is a 3-component feature vector in the clustering colour space.
type Vec [3]float64

// Dist2 returns the squared Euclidean distance between two vectors.
func (v Vec) Dist2(o Vec) float64 {
	d0 := v[0] - o[0]
	d1 := v[1] - o[1]
	d2 := v[2] - o[2]
	return d0*d0 + d1*d1 + d2*d2
}

// Dist returns the Euclidean distance between two vectors.
func (v Vec) Dist(o Vec) float64 {
	return math.Sqrt(v.Dist2(o))
}

// Field is an image whose pixels are float vectors in the clustering space.
// Vecs is row-major, one entry per pixel.
type Field struct {
	Width  int
	Height int
	Vecs   []Vec
}

// NewField allocates a zeroed field of the given dimensions.
func NewField(width, height int) *Field {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Field{
		Width:  width,
		Height: height,
		Vecs:   make([]Vec, width*height),
	}
}

// Flatten returns a copy of the field's pixels as a flat, row-major list.
func (f *Field) Flatten() []Vec {
	out := make([]Vec, len(f.Vecs))
	copy(out, f.Vecs)
	return out
}

// Reshape builds a field from a flat row-major list. It is the inverse of Flatten.
func Reshape(vecs []Vec, width, height int) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: zero-length dimension (%dx%d)", ErrInvalidInput, width, height)
	}
	if len(vecs) != width*height {
		return nil, fmt.Errorf("%w: %d vectors for %dx%d pixels", ErrInvalidInput, len(vecs), width, height)
	}
	f := &Field{Width: width, Height: height, Vecs: make([]Vec, len(vecs))}
	copy(f.Vecs, vecs)
	return f, nil
}

// Validate reports whether the field is non-empty and consistently shaped.
func (f *Field) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: field is nil", ErrInvalidInput)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: zero-length dimension (%dx%d)", ErrInvalidInput, f.Width, f.Height)
	}
	if len(f.Vecs) != f.Width*f.Height {
		return fmt.Errorf("%w: %d vectors for %dx%d pixels", ErrInvalidInput, len(f.Vecs), f.Width, f.Height)
	}
	return nil
}
