package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// RGB represents a color in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB color as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB color as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// Color returns the colour as an opaque color.RGBA.
func (rgb RGB) Color() color.RGBA {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}
}

// Palette is the set of representative colours produced by a quantization run.
// Weights are the fraction of pixels assigned to each colour and sum to 1.
type Palette struct {
	Colours []RGB
	Weights []float64
}

// NewPalette creates a palette from colours and raw pixel counts.
// Counts are normalised into weights; a nil counts slice gives equal weights.
func NewPalette(colours []RGB, counts []float64) *Palette {
	weights := make([]float64, len(colours))
	if len(counts) == len(colours) {
		copy(weights, counts)
	} else {
		for i := range weights {
			weights[i] = 1
		}
	}

	if total := floats.Sum(weights); total > 0 {
		floats.Scale(1/total, weights)
	}

	return &Palette{
		Colours: colours,
		Weights: weights,
	}
}

// Len returns the number of colours in the palette.
func (p *Palette) Len() int {
	return len(p.Colours)
}

// SortByWeight returns a copy of the palette ordered from most to least used colour.
func (p *Palette) SortByWeight() *Palette {
	idx := make([]int, len(p.Colours))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return p.Weights[idx[a]] > p.Weights[idx[b]]
	})

	sorted := &Palette{
		Colours: make([]RGB, len(idx)),
		Weights: make([]float64, len(idx)),
	}
	for i, j := range idx {
		sorted.Colours[i] = p.Colours[j]
		sorted.Weights[i] = p.Weights[j]
	}
	return sorted
}

// ToHex converts the palette colours to hex strings.
func (p *Palette) ToHex() []string {
	hex := make([]string, len(p.Colours))
	for i, c := range p.Colours {
		hex[i] = c.Hex()
	}
	return hex
}

// ColourJSON represents a colour in JSON output format.
type ColourJSON struct {
	Hex    string  `json:"hex"`
	RGB    RGB     `json:"rgb"`
	Weight float64 `json:"weight"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Count   int          `json:"count"`
	Colours []ColourJSON `json:"colours"`
}

// ToJSON converts the palette to JSON format.
func (p *Palette) ToJSON() ([]byte, error) {
	colours := make([]ColourJSON, len(p.Colours))
	for i, c := range p.Colours {
		colours[i] = ColourJSON{
			Hex:    c.Hex(),
			RGB:    c,
			Weight: p.Weights[i],
		}
	}

	return json.MarshalIndent(PaletteJSON{
		Count:   len(p.Colours),
		Colours: colours,
	}, "", "  ")
}

// String returns a human-readable string representation of the palette.
func (p *Palette) String() string {
	if len(p.Colours) == 0 {
		return "Empty palette"
	}

	result := fmt.Sprintf("Palette with %d colours:\n", len(p.Colours))
	for i, c := range p.Colours {
		result += fmt.Sprintf("  %2d: %s (%s) %5.1f%%\n", i+1, c.Hex(), c.String(), p.Weights[i]*100)
	}
	return result
}
