// Package raster holds the pixel containers passed between the quantization stages.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Channels is the number of colour channels stored per pixel.
const Channels = 3

// ErrInvalidInput is returned for empty or malformed pixel data. Callers match it with errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Buffer is an 8-bit RGB image stored row-major, three bytes per pixel.
// Transforms allocate a new Buffer rather than modifying the receiver.
type Buffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewBuffer allocates a zeroed buffer of the given dimensions.
func NewBuffer(width, height int) *Buffer {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// FromImage copies a decoded image into a Buffer, dropping alpha.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	buf := NewBuffer(bounds.Dx(), bounds.Dy())

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			buf.Pix[i] = uint8(r >> 8)
			buf.Pix[i+1] = uint8(g >> 8)
			buf.Pix[i+2] = uint8(b >> 8)
			i += Channels
		}
	}
	return buf
}

// Image returns the buffer as an opaque *image.NRGBA suitable for encoding.
func (b *Buffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, j := 0, 0; i < len(b.Pix); i, j = i+Channels, j+4 {
		img.Pix[j] = b.Pix[i]
		img.Pix[j+1] = b.Pix[i+1]
		img.Pix[j+2] = b.Pix[i+2]
		img.Pix[j+3] = 0xff
	}
	return img
}

// Len returns the number of pixels in the buffer.
func (b *Buffer) Len() int {
	return b.Width * b.Height
}

// At returns the colour of the pixel at (x, y).
func (b *Buffer) At(x, y int) color.RGBA {
	i := (y*b.Width + x) * Channels
	return color.RGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: 0xff}
}

// Set stores the colour of the pixel at (x, y).
func (b *Buffer) Set(x, y int, r, g, bl uint8) {
	i := (y*b.Width + x) * Channels
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
}

// Validate reports whether the buffer is non-empty and consistently shaped.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: buffer is nil", ErrInvalidInput)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: zero-length dimension (%dx%d)", ErrInvalidInput, b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height*Channels {
		return fmt.Errorf("%w: %d bytes for %dx%d pixels", ErrInvalidInput, len(b.Pix), b.Width, b.Height)
	}
	return nil
}

// DistinctColours counts the number of distinct RGB triples in the buffer.
func (b *Buffer) DistinctColours() int {
	seen := make(map[[3]uint8]struct{})
	for i := 0; i+2 < len(b.Pix); i += Channels {
		seen[[3]uint8{b.Pix[i], b.Pix[i+1], b.Pix[i+2]}] = struct{}{}
	}
	return len(seen)
}
