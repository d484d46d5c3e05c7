package cli

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/labquant/internal/config"
	imageutil "github.com/jmylchreest/labquant/internal/image"
	"github.com/jmylchreest/labquant/internal/quantize"
	"github.com/jmylchreest/labquant/internal/raster"
	"github.com/jmylchreest/labquant/internal/security"
	"github.com/jmylchreest/labquant/internal/seed"
	httputil "github.com/jmylchreest/labquant/internal/util/http"
)

// quantizeOptions holds the quantize command flags. Only flags the user
// actually set override the configuration file.
type quantizeOptions struct {
	output string

	mode       string
	k          int
	kMin       int
	kMax       int
	selection  string
	sampleSize int

	seedMode string
	seed     int64

	bandwidth    float64
	quantile     float64
	noBinSeeding bool

	palette string
	preview bool
	maxSize int
	quality int

	cache   bool
	timeout time.Duration
}

func newQuantizeCmd(g *globalOptions) *cobra.Command {
	o := &quantizeOptions{}

	cmd := &cobra.Command{
		Use:   "quantize <image>",
		Short: "Quantize the colours of an image",
		Long: `Quantize the colours of an image by clustering its pixels in Lab space.

The input may be a local file, an HTTP(S) URL, or an xz, gzip or bzip2
compressed image. The output format follows the output file extension
(.jpg, .jpeg or .png); "-o -" writes PNG to stdout.

Supported input formats: JPEG, PNG, GIF, WebP, BMP, TIFF

Examples:
  # k-means with K picked by silhouette score
  labquant quantize photo.jpg -o photo_q.png

  # Mean shift, letting the data pick the number of clusters
  labquant quantize -m meanshift photo.jpg -o photo_q.jpg

  # Exactly 6 colours, palette printed as a table
  labquant quantize --k 6 --palette table photo.jpg

  # Search K over every pixel instead of a sample (slow on large images)
  labquant quantize --selection full --k-max 6 icon.png

  # Fetch from a URL and stream PNG to another program
  labquant quantize https://example.com/photo.jpg -o - | display`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, g, args[0])
		},
	}

	o.addFlags(cmd.Flags())

	return cmd
}

func (o *quantizeOptions) addFlags(f *pflag.FlagSet) {
	def := config.DefaultConfig()

	f.StringVarP(&o.output, "output", "o", "", `output file, or "-" for PNG on stdout (default: <input>_quantized.png)`)
	f.StringVarP(&o.mode, "mode", "m", def.Quantize.Mode, "clustering mode (kmeans, meanshift)")
	f.IntVar(&o.k, "k", 0, "use exactly this many clusters in kmeans mode (skips the K search)")
	f.IntVar(&o.kMin, "k-min", def.Quantize.KMin, "smallest K tried by the search")
	f.IntVar(&o.kMax, "k-max", def.Quantize.KMax, "largest K tried by the search")
	f.StringVar(&o.selection, "selection", def.Quantize.Selection, "K selection strategy (sampled, full, fixed)")
	f.IntVar(&o.sampleSize, "sample-size", def.Quantize.SampleSize, "pixels scored by the sampled K search")
	f.StringVar(&o.seedMode, "seed-mode", def.Seed.Mode, "seed mode (content, filepath, manual, random)")
	f.Int64Var(&o.seed, "seed", def.Seed.Value, "seed value for manual seed mode")
	f.Float64Var(&o.bandwidth, "bandwidth", def.MeanShift.Bandwidth, "mean shift bandwidth in Lab units (0 estimates it)")
	f.Float64Var(&o.quantile, "quantile", def.MeanShift.Quantile, "neighbour quantile for bandwidth estimation")
	f.BoolVar(&o.noBinSeeding, "no-bin-seeding", false, "seed mean shift from every distinct colour instead of grid bins")
	f.StringVar(&o.palette, "palette", def.Output.Palette, "print the palette (hex, rgb, json, table)")
	f.BoolVar(&o.preview, "preview", def.Output.Preview, "show colour previews when printing to a terminal")
	f.IntVar(&o.maxSize, "max-size", def.Output.MaxSize, "downscale inputs whose longest side exceeds this (0 disables)")
	f.IntVar(&o.quality, "quality", def.Output.Quality, "JPEG output quality (1-100)")
	f.BoolVar(&o.cache, "cache", false, "cache images downloaded from URLs")
	f.DurationVar(&o.timeout, "timeout", httputil.DefaultTimeout, "timeout for downloading images from URLs")
}

// apply copies the flags the user set onto cfg and validates the result.
func (o *quantizeOptions) apply(flags *pflag.FlagSet, cfg *config.Config) error {
	if flags.Changed("mode") {
		cfg.Quantize.Mode = o.mode
	}
	if flags.Changed("k-min") {
		cfg.Quantize.KMin = o.kMin
	}
	if flags.Changed("k-max") {
		cfg.Quantize.KMax = o.kMax
	}
	if flags.Changed("selection") {
		cfg.Quantize.Selection = o.selection
	}
	if flags.Changed("k") {
		cfg.Quantize.Selection = string(quantize.SelectionFixed)
		cfg.Quantize.FixedK = o.k
	}
	if flags.Changed("sample-size") {
		cfg.Quantize.SampleSize = o.sampleSize
	}
	if flags.Changed("seed-mode") {
		cfg.Seed.Mode = o.seedMode
	}
	if flags.Changed("seed") {
		cfg.Seed.Value = o.seed
		if !flags.Changed("seed-mode") {
			cfg.Seed.Mode = string(seed.ModeManual)
		}
	}
	if flags.Changed("bandwidth") {
		cfg.MeanShift.Bandwidth = o.bandwidth
	}
	if flags.Changed("quantile") {
		cfg.MeanShift.Quantile = o.quantile
	}
	if flags.Changed("no-bin-seeding") {
		cfg.MeanShift.BinSeeding = !o.noBinSeeding
	}
	if flags.Changed("palette") {
		cfg.Output.Palette = o.palette
	}
	if flags.Changed("preview") {
		cfg.Output.Preview = o.preview
	}
	if flags.Changed("max-size") {
		cfg.Output.MaxSize = o.maxSize
	}
	if flags.Changed("quality") {
		cfg.Output.Quality = o.quality
	}
	return cfg.Validate()
}

func (o *quantizeOptions) run(cmd *cobra.Command, g *globalOptions, input string) error {
	cfg := *g.cfg
	if err := o.apply(cmd.Flags(), &cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := g.logger

	mode, err := cfg.Mode()
	if err != nil {
		return err
	}
	q, err := quantize.New(cfg.QuantizeOptions(), logger.Named("quantize"))
	if err != nil {
		return err
	}

	outPath := o.output
	if outPath == "" {
		outPath = defaultOutputPath(input)
	}
	format := imageutil.FormatPNG
	if outPath == "-" {
		if isTerminal(cmd.OutOrStdout()) {
			return fmt.Errorf("refusing to write image data to a terminal (use -o <file> or redirect stdout)")
		}
	} else if format, err = imageutil.FormatFromPath(outPath); err != nil {
		return err
	}

	loader := imageutil.NewSmartLoader()
	loader.Cache = o.cache
	loader.Fetch.Timeout = o.timeout

	logger.Debug("loading image", "path", input)
	img, err := loader.Load(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("failed to load image: %w", err)
	}
	bounds := img.Bounds()
	img = imageutil.Downscale(img, cfg.Output.MaxSize)
	if img.Bounds() != bounds {
		logger.Debug("image downscaled", "from", bounds.Size(), "to", img.Bounds().Size())
	}
	buf := raster.FromImage(img)

	sc, err := cfg.SeedConfig()
	if err != nil {
		return err
	}
	sd, err := seed.Calculate(buf, input, sc)
	if err != nil {
		return fmt.Errorf("failed to derive seed: %w", err)
	}
	logger.Debug("seed", "mode", sc.Mode, "value", sd)

	out, res, err := q.Quantize(buf, mode, sd)
	if err != nil {
		return fmt.Errorf("failed to quantize image: %w", err)
	}

	paletteOut := cmd.OutOrStdout()
	if outPath == "-" {
		if err := imageutil.Encode(cmd.OutOrStdout(), out.Image(), format, cfg.Output.Quality); err != nil {
			return err
		}
		paletteOut = cmd.ErrOrStderr()
	} else {
		if err := imageutil.Save(outPath, out.Image(), cfg.Output.Quality); err != nil {
			return err
		}
		logger.Info("wrote quantized image", "path", outPath, "clusters", res.K())
	}

	if cfg.Output.Palette == "" {
		return nil
	}
	preview := cfg.Output.Preview && isTerminal(paletteOut)
	text, err := formatPalette(res.Palette().SortByWeight(), buf.Len(), cfg.Output.Palette, preview)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(paletteOut, text)
	return err
}

// defaultOutputPath names the output after the input: photo.jpg.xz becomes
// photo_quantized.png next to it. URL inputs land in the working directory.
func defaultOutputPath(input string) string {
	dir, name := filepath.Dir(input), filepath.Base(input)
	if security.IsURL(input) {
		dir, name = ".", "image"
		if u, err := url.Parse(input); err == nil && u.Path != "" {
			name = path.Base(u.Path)
		}
	}

	for _, ext := range []string{".xz", ".gz", ".bz2"} {
		name = strings.TrimSuffix(name, ext)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" || stem == "." || stem == "/" {
		stem = "image"
	}
	return filepath.Join(dir, stem+"_quantized.png")
}
