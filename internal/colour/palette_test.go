package colour

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func TestNewPaletteNormalisesWeights(t *testing.T) {
	tests := []struct {
		name   string
		counts []float64
		want   []float64
	}{
		{name: "counts", counts: []float64{3, 1}, want: []float64{0.75, 0.25}},
		{name: "no counts", counts: nil, want: []float64{0.5, 0.5}},
		{name: "mismatched counts", counts: []float64{1}, want: []float64{0.5, 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPalette([]RGB{{255, 0, 0}, {0, 0, 255}}, tt.counts)
			for i, w := range tt.want {
				if math.Abs(p.Weights[i]-w) > 1e-9 {
					t.Errorf("Weights[%d] = %v, want %v", i, p.Weights[i], w)
				}
			}
		})
	}
}

func TestSortByWeight(t *testing.T) {
	p := NewPalette([]RGB{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}}, []float64{1, 5, 2})
	sorted := p.SortByWeight()

	want := []RGB{{2, 2, 2}, {3, 3, 3}, {1, 1, 1}}
	for i, c := range want {
		if sorted.Colours[i] != c {
			t.Errorf("Colours[%d] = %v, want %v", i, sorted.Colours[i], c)
		}
	}
	if p.Colours[0] != (RGB{1, 1, 1}) {
		t.Error("SortByWeight should not modify the receiver")
	}
}

func TestRGBHex(t *testing.T) {
	tests := []struct {
		rgb  RGB
		want string
	}{
		{RGB{255, 0, 0}, "#ff0000"},
		{RGB{0, 0, 0}, "#000000"},
		{RGB{26, 43, 60}, "#1a2b3c"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.rgb.Hex(); got != tt.want {
				t.Errorf("Hex() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPaletteToJSON(t *testing.T) {
	p := NewPalette([]RGB{{255, 0, 0}}, []float64{10})
	data, err := p.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded PaletteJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Count != 1 || decoded.Colours[0].Hex != "#ff0000" || decoded.Colours[0].Weight != 1 {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestPaletteString(t *testing.T) {
	if got := NewPalette(nil, nil).String(); got != "Empty palette" {
		t.Errorf("String() = %q", got)
	}
	got := NewPalette([]RGB{{0, 255, 0}}, nil).String()
	if !strings.Contains(got, "#00ff00") || !strings.Contains(got, "100.0%") {
		t.Errorf("String() = %q", got)
	}
}

func TestColourPreview(t *testing.T) {
	got := ColourPreview(RGB{1, 2, 3}, 0)
	if !strings.HasPrefix(got, "\033[48;2;1;2;3m") || !strings.HasSuffix(got, ansiReset) {
		t.Errorf("ColourPreview() = %q", got)
	}
	if strings.Count(got, " ") != defaultWidth {
		t.Errorf("ColourPreview() width = %d, want %d", strings.Count(got, " "), defaultWidth)
	}
}
