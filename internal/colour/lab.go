// Package colour converts pixels between sRGB and the CIE Lab clustering space
// and describes the resulting palettes.
package colour

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/jmylchreest/labquant/internal/raster"
)

// labScale converts go-colorful's unit Lab (L in [0,1]) to conventional units.
const labScale = 100.0

// LabFromRGB converts an 8-bit sRGB colour to Lab with L in [0,100].
func LabFromRGB(r, g, b uint8) raster.Vec {
	c := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
	l, a, bb := c.Lab()
	return raster.Vec{l * labScale, a * labScale, bb * labScale}
}

// RGBFromLab converts a Lab vector back to 8-bit sRGB.
// Out-of-gamut values are clamped, so every channel lands in [0,255].
func RGBFromLab(v raster.Vec) RGB {
	c := colorful.Lab(v[0]/labScale, v[1]/labScale, v[2]/labScale).Clamped()
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}
}

// ToClusterSpace converts an sRGB buffer into a Lab field.
func ToClusterSpace(buf *raster.Buffer) (*raster.Field, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("cannot convert to cluster space: %w", err)
	}

	// Images repeat colours heavily; memoise per distinct RGB triple.
	cache := make(map[[3]uint8]raster.Vec)
	field := raster.NewField(buf.Width, buf.Height)
	for i := range field.Vecs {
		p := buf.Pix[i*raster.Channels : i*raster.Channels+raster.Channels]
		key := [3]uint8{p[0], p[1], p[2]}
		v, ok := cache[key]
		if !ok {
			v = LabFromRGB(p[0], p[1], p[2])
			cache[key] = v
		}
		field.Vecs[i] = v
	}
	return field, nil
}

// ToDisplaySpace converts a Lab field back into an sRGB buffer.
func ToDisplaySpace(field *raster.Field) (*raster.Buffer, error) {
	if err := field.Validate(); err != nil {
		return nil, fmt.Errorf("cannot convert to display space: %w", err)
	}

	cache := make(map[raster.Vec]RGB)
	buf := raster.NewBuffer(field.Width, field.Height)
	for i, v := range field.Vecs {
		rgb, ok := cache[v]
		if !ok {
			rgb = RGBFromLab(v)
			cache[v] = rgb
		}
		j := i * raster.Channels
		buf.Pix[j] = rgb.R
		buf.Pix[j+1] = rgb.G
		buf.Pix[j+2] = rgb.B
	}
	return buf, nil
}
