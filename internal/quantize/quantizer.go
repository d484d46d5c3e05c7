package quantize

import (
	"fmt"
	"slices"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/labquant/internal/cluster"
	"github.com/jmylchreest/labquant/internal/colour"
	"github.com/jmylchreest/labquant/internal/raster"
)

// Selection names the strategy used to choose K in k-means mode.
type Selection string

const (
	// SelectionSampled searches K over a random subsample of the pixels.
	SelectionSampled Selection = "sampled"
	// SelectionFull searches K over every pixel. Quadratic in image size.
	SelectionFull Selection = "full"
	// SelectionFixed skips the search and uses Options.FixedK.
	SelectionFixed Selection = "fixed"
)

// ValidSelections returns the supported K selection strategies.
func ValidSelections() []Selection {
	return []Selection{SelectionSampled, SelectionFull, SelectionFixed}
}

// Options configures both clustering strategies.
type Options struct {
	// K search (k-means mode).
	KMin       int
	KMax       int
	Selection  Selection
	SampleSize int
	FixedK     int

	// k-means.
	MaxIterations int
	Runs          int

	// Mean shift.
	Bandwidth        float64
	Quantile         float64
	BandwidthSamples int
	MinBandwidth     float64
	BinSeeding       bool
	MinBinFreq       int
}

// DefaultOptions returns the default pipeline options.
func DefaultOptions() Options {
	return Options{
		KMin:             cluster.DefaultKMin,
		KMax:             cluster.DefaultKMax,
		Selection:        SelectionSampled,
		SampleSize:       cluster.DefaultSampleSize,
		FixedK:           8,
		MaxIterations:    300,
		Runs:             1,
		Quantile:         cluster.DefaultQuantile,
		BandwidthSamples: cluster.DefaultBandwidthSamples,
		MinBandwidth:     1.0,
		BinSeeding:       true,
		MinBinFreq:       1,
	}
}

// Validate validates the options.
func (o Options) Validate() error {
	if o.KMin < 2 {
		return fmt.Errorf("minimum cluster count must be at least 2, got %d", o.KMin)
	}
	if o.KMax < o.KMin {
		return fmt.Errorf("maximum cluster count %d is below minimum %d", o.KMax, o.KMin)
	}
	if o.KMax > 256 {
		return fmt.Errorf("maximum cluster count too large: %d (maximum: 256)", o.KMax)
	}
	if !slices.Contains(ValidSelections(), o.Selection) {
		return fmt.Errorf("invalid selection strategy: %s (valid: sampled, full, fixed)", o.Selection)
	}
	if o.Selection == SelectionFixed && (o.FixedK < 1 || o.FixedK > 256) {
		return fmt.Errorf("fixed cluster count must be in [1, 256], got %d", o.FixedK)
	}
	if o.SampleSize < 0 {
		return fmt.Errorf("sample size cannot be negative, got %d", o.SampleSize)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", o.MaxIterations)
	}
	if o.Runs < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", o.Runs)
	}
	if o.Bandwidth < 0 {
		return fmt.Errorf("bandwidth cannot be negative, got %g", o.Bandwidth)
	}
	if o.Quantile <= 0 || o.Quantile > 1 {
		return fmt.Errorf("quantile must be in (0, 1], got %g", o.Quantile)
	}
	if o.BandwidthSamples < 2 {
		return fmt.Errorf("bandwidth samples must be at least 2, got %d", o.BandwidthSamples)
	}
	return nil
}

// Quantizer runs the pipeline. It holds no per-image state, so one value can
// serve concurrent calls as long as callers do not share buffers.
type Quantizer struct {
	opts   Options
	logger hclog.Logger
}

// New creates a Quantizer. A nil logger discards output.
func New(opts Options, logger hclog.Logger) (*Quantizer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Quantizer{opts: opts, logger: logger}, nil
}

// Options returns the quantizer's options.
func (q *Quantizer) Options() Options {
	return q.opts
}

// Quantize clusters the colours of buf and returns the reconstructed image
// together with the clustering result. The output has buf's dimensions and
// at most Result.K() distinct colours.
func (q *Quantizer) Quantize(buf *raster.Buffer, mode Mode, seed int64) (*raster.Buffer, *Result, error) {
	start := time.Now()
	if err := buf.Validate(); err != nil {
		return nil, nil, err
	}

	need := mode.MinClusters(q.opts.KMin)
	if q.opts.Selection == SelectionFixed {
		need = 1
	}
	if d := buf.DistinctColours(); d < need {
		return nil, nil, fmt.Errorf("%w: image has %d distinct colours, %s needs at least %d", raster.ErrInvalidInput, d, mode, need)
	}

	field, err := colour.ToClusterSpace(buf)
	if err != nil {
		return nil, nil, err
	}
	points := field.Flatten()

	res, err := q.cluster(points, mode, seed)
	if err != nil {
		return nil, nil, err
	}
	result := newResult(res, buf.Width, buf.Height, mode, seed)

	quantized, err := Reconstruct(result)
	if err != nil {
		return nil, nil, err
	}
	out, err := colour.ToDisplaySpace(quantized)
	if err != nil {
		return nil, nil, err
	}

	q.logger.Info("quantized image",
		"mode", mode,
		"width", buf.Width,
		"height", buf.Height,
		"clusters", result.K(),
		"seed", seed,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return out, result, nil
}

// cluster is the single point where the two strategies diverge.
func (q *Quantizer) cluster(points []raster.Vec, mode Mode, seed int64) (*cluster.Result, error) {
	switch mode {
	case ModeKMeans:
		k, err := q.selector().Select(points, seed)
		if err != nil {
			return nil, fmt.Errorf("failed to select cluster count: %w", err)
		}
		q.logger.Debug("running k-means", "k", k, "selection", q.opts.Selection)

		res, err := q.kmeans().Fit(points, k, seed)
		if err != nil {
			return nil, fmt.Errorf("k-means failed: %w", err)
		}
		if !res.Converged {
			q.logger.Debug("k-means stopped at iteration cap", "iterations", res.Iterations)
		}
		return res, nil

	case ModeMeanShift:
		res, err := q.meanShift().Fit(points, seed)
		if err != nil {
			return nil, fmt.Errorf("mean shift failed: %w", err)
		}
		return res, nil

	default:
		return nil, fmt.Errorf("unknown clustering mode: %s", mode)
	}
}

func (q *Quantizer) kmeans() *cluster.KMeans {
	return &cluster.KMeans{
		MaxIterations: q.opts.MaxIterations,
		Runs:          q.opts.Runs,
		Logger:        q.logger.Named("kmeans"),
	}
}

func (q *Quantizer) selector() cluster.Selector {
	search := cluster.FullSearch{
		KMin:   q.opts.KMin,
		KMax:   q.opts.KMax,
		KMeans: q.kmeans(),
	}

	switch q.opts.Selection {
	case SelectionFull:
		return search
	case SelectionFixed:
		return cluster.FixedK{K: q.opts.FixedK}
	default:
		return cluster.SampledSearch{
			Search:     search,
			SampleSize: q.opts.SampleSize,
			Logger:     q.logger.Named("selector"),
		}
	}
}

func (q *Quantizer) meanShift() *cluster.MeanShift {
	return &cluster.MeanShift{
		Bandwidth:     q.opts.Bandwidth,
		Quantile:      q.opts.Quantile,
		Samples:       q.opts.BandwidthSamples,
		MinBandwidth:  q.opts.MinBandwidth,
		BinSeeding:    q.opts.BinSeeding,
		MinBinFreq:    q.opts.MinBinFreq,
		MaxIterations: q.opts.MaxIterations,
		Logger:        q.logger.Named("meanshift"),
	}
}
