package cluster

import (
	"errors"
	"math"
	"testing"

	"github.com/jmylchreest/labquant/internal/raster"
)

func TestSilhouetteKnownValue(t *testing.T) {
	points := []raster.Vec{{0, 0, 0}, {1, 0, 0}, {10, 0, 0}, {11, 0, 0}}
	labels := []int{0, 0, 1, 1}

	// Per point: 9.5/10.5, 8.5/9.5, 8.5/9.5, 9.5/10.5.
	want := (2*9.5/10.5 + 2*8.5/9.5) / 4
	if got := Silhouette(points, labels, 2); math.Abs(got-want) > 1e-9 {
		t.Errorf("Silhouette() = %v, want %v", got, want)
	}
}

func TestSilhouetteSingletonsScoreZero(t *testing.T) {
	points := []raster.Vec{{0, 0, 0}, {5, 0, 0}}
	if got := Silhouette(points, []int{0, 1}, 2); got != 0 {
		t.Errorf("Silhouette() = %v, want 0", got)
	}
	if got := Silhouette(points, []int{0, 0}, 2); got != 0 {
		t.Errorf("Silhouette() with one populated cluster = %v, want 0", got)
	}
}

func TestSelectKFindsThreeBlobs(t *testing.T) {
	points, _ := blobs(threeCentres, 20, 1, 21)

	km := NewKMeans()
	km.Runs = 3
	k, err := SelectK(points, DefaultKMin, DefaultKMax, km, 42)
	if err != nil {
		t.Fatalf("SelectK() error = %v", err)
	}
	if k != 3 {
		t.Errorf("SelectK() = %d, want 3", k)
	}
}

func TestSelectKRange(t *testing.T) {
	points, _ := blobs(threeCentres, 20, 30, 4)

	for _, bounds := range [][2]int{{2, 2}, {2, 5}, {4, 9}} {
		k, err := SelectK(points, bounds[0], bounds[1], nil, 1)
		if err != nil {
			t.Fatalf("SelectK(%v) error = %v", bounds, err)
		}
		if k < bounds[0] || k > bounds[1] {
			t.Errorf("SelectK(%v) = %d, outside range", bounds, k)
		}
	}
}

func TestSelectKInvalidInput(t *testing.T) {
	few := []raster.Vec{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}, {0, 0, 0}}
	many, _ := blobs(threeCentres, 10, 5, 2)

	tests := []struct {
		name       string
		points     []raster.Vec
		kMin, kMax int
	}{
		{name: "too few distinct points", points: few, kMin: 2, kMax: 10},
		{name: "exactly kMax distinct", points: few, kMin: 2, kMax: 3},
		{name: "kMin below two", points: many, kMin: 1, kMax: 4},
		{name: "inverted range", points: many, kMin: 5, kMax: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SelectK(tt.points, tt.kMin, tt.kMax, nil, 1)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("SelectK() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestFullSearchShrinksRange(t *testing.T) {
	tests := []struct {
		name    string
		points  []raster.Vec
		want    int
		wantErr bool
	}{
		{name: "one colour", points: []raster.Vec{labRed, labRed}, wantErr: true},
		{name: "two colours", points: []raster.Vec{labRed, labBlue, labRed}, want: 2},
		{name: "three colours", points: []raster.Vec{labRed, labBlue, {50, 0, 0}}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FullSearch{}.Select(tt.points, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Select() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("Select() error = %v, want ErrInvalidInput", err)
			}
			if got != tt.want {
				t.Errorf("Select() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSampledSearch(t *testing.T) {
	points, _ := blobs(threeCentres, 200, 1, 8)

	km := NewKMeans()
	km.Runs = 3
	s := SampledSearch{
		Search:     FullSearch{KMin: 2, KMax: 6, KMeans: km},
		SampleSize: 90,
	}
	k, err := s.Select(points, 42)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if k != 3 {
		t.Errorf("Select() = %d, want 3", k)
	}

	if _, err := s.Select([]raster.Vec{labRed}, 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Select() single colour error = %v, want ErrInvalidInput", err)
	}
}

func TestFixedK(t *testing.T) {
	points := []raster.Vec{labRed, labBlue, labRed}

	if k, err := (FixedK{K: 8}).Select(points, 0); err != nil || k != 2 {
		t.Errorf("FixedK{8}.Select() = %d, %v; want 2, nil", k, err)
	}
	if k, err := (FixedK{K: 1}).Select(points, 0); err != nil || k != 1 {
		t.Errorf("FixedK{1}.Select() = %d, %v; want 1, nil", k, err)
	}
	if _, err := (FixedK{K: 0}).Select(points, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("FixedK{0}.Select() error = %v, want ErrInvalidInput", err)
	}
}

func TestSample(t *testing.T) {
	points := make([]raster.Vec, 100)
	for i := range points {
		points[i] = raster.Vec{float64(i), 0, 0}
	}

	a := Sample(points, 10, 3)
	b := Sample(points, 10, 3)
	if len(a) != 10 {
		t.Fatalf("Sample() returned %d points, want 10", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("Sample() is not deterministic for a fixed seed")
		}
	}
	if distinct(a) != 10 {
		t.Error("Sample() drew a point twice")
	}
	if got := Sample(points, 500, 3); len(got) != len(points) {
		t.Errorf("Sample() larger than input returned %d points", len(got))
	}
}
