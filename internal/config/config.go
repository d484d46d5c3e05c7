// Package config loads and saves the labquant YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/labquant/internal/quantize"
	"github.com/jmylchreest/labquant/internal/seed"
)

// FileName is the default configuration file name.
const FileName = "config.yaml"

// Config represents the application configuration loaded from YAML.
type Config struct {
	Quantize  QuantizeConfig  `yaml:"quantize"`
	MeanShift MeanShiftConfig `yaml:"meanshift"`
	Seed      SeedConfig      `yaml:"seed"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
}

// QuantizeConfig holds the clustering mode and k-means parameters.
type QuantizeConfig struct {
	// Mode is the clustering strategy: kmeans or meanshift.
	Mode string `yaml:"mode"`

	// KMin and KMax bound the silhouette search.
	KMin int `yaml:"kMin"`
	KMax int `yaml:"kMax"`

	// Selection is the K selection strategy: sampled, full or fixed.
	Selection  string `yaml:"selection"`
	SampleSize int    `yaml:"sampleSize"`
	FixedK     int    `yaml:"fixedK"`

	MaxIterations int `yaml:"maxIterations"`
	Runs          int `yaml:"runs"`
}

// MeanShiftConfig holds the mean shift parameters.
type MeanShiftConfig struct {
	// Bandwidth is the kernel radius in Lab units. Zero means estimate it.
	Bandwidth    float64 `yaml:"bandwidth"`
	Quantile     float64 `yaml:"quantile"`
	Samples      int     `yaml:"samples"`
	MinBandwidth float64 `yaml:"minBandwidth"`
	BinSeeding   bool    `yaml:"binSeeding"`
	MinBinFreq   int     `yaml:"minBinFreq"`
}

// SeedConfig controls how the random seed is derived.
type SeedConfig struct {
	Mode  string `yaml:"mode"`
	Value int64  `yaml:"value"`
}

// OutputConfig controls image and palette output.
type OutputConfig struct {
	// Quality is the JPEG quality (1-100).
	Quality int `yaml:"quality"`

	// MaxSize downscales inputs whose longest side exceeds it. Zero disables.
	MaxSize int `yaml:"maxSize"`

	// Palette is the palette format: hex, rgb, json or table. Empty disables.
	Palette string `yaml:"palette"`
	Preview bool   `yaml:"preview"`
}

// ServerConfig configures the HTTP upload server.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	MaxUploadBytes int64         `yaml:"maxUploadBytes"`
	Timeout        time.Duration `yaml:"timeout"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	opts := quantize.DefaultOptions()

	return &Config{
		Quantize: QuantizeConfig{
			Mode:          string(quantize.ModeKMeans),
			KMin:          opts.KMin,
			KMax:          opts.KMax,
			Selection:     string(opts.Selection),
			SampleSize:    opts.SampleSize,
			FixedK:        opts.FixedK,
			MaxIterations: opts.MaxIterations,
			Runs:          opts.Runs,
		},
		MeanShift: MeanShiftConfig{
			Bandwidth:    opts.Bandwidth,
			Quantile:     opts.Quantile,
			Samples:      opts.BandwidthSamples,
			MinBandwidth: opts.MinBandwidth,
			BinSeeding:   opts.BinSeeding,
			MinBinFreq:   opts.MinBinFreq,
		},
		Seed: SeedConfig{
			Mode:  string(seed.ModeManual),
			Value: seed.DefaultValue,
		},
		Output: OutputConfig{
			Quality: 85,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 32 << 20,
			Timeout:        2 * time.Minute,
		},
	}
}

// DefaultPath returns the per-user configuration file path.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, "labquant", FileName), nil
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
// Keys missing from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath) // #nosec G304 - User-specified config path, intended to be read
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the given
// path. An existing file is left untouched unless force is set.
func CreateDefaultConfigFile(configPath string, force bool) error {
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s", configPath)
		}
	}
	return SaveConfig(DefaultConfig(), configPath)
}

// Validate checks the configuration for values the pipeline would reject.
func (c *Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return err
	}
	if err := c.QuantizeOptions().Validate(); err != nil {
		return err
	}
	if _, err := c.SeedConfig(); err != nil {
		return err
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output quality must be in [1, 100], got %d", c.Output.Quality)
	}
	if c.Output.MaxSize < 0 {
		return fmt.Errorf("output max size cannot be negative, got %d", c.Output.MaxSize)
	}
	if c.Output.Palette != "" && !slices.Contains(PaletteFormats(), c.Output.Palette) {
		return fmt.Errorf("invalid palette format: %s (valid: hex, rgb, json, table)", c.Output.Palette)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max upload bytes must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server timeout cannot be negative, got %s", c.Server.Timeout)
	}
	return nil
}

// PaletteFormats returns the supported palette output formats.
func PaletteFormats() []string {
	return []string{"hex", "rgb", "json", "table"}
}

// Mode returns the configured clustering mode.
func (c *Config) Mode() (quantize.Mode, error) {
	return quantize.ParseMode(c.Quantize.Mode)
}

// QuantizeOptions maps the configuration onto pipeline options.
func (c *Config) QuantizeOptions() quantize.Options {
	return quantize.Options{
		KMin:             c.Quantize.KMin,
		KMax:             c.Quantize.KMax,
		Selection:        quantize.Selection(c.Quantize.Selection),
		SampleSize:       c.Quantize.SampleSize,
		FixedK:           c.Quantize.FixedK,
		MaxIterations:    c.Quantize.MaxIterations,
		Runs:             c.Quantize.Runs,
		Bandwidth:        c.MeanShift.Bandwidth,
		Quantile:         c.MeanShift.Quantile,
		BandwidthSamples: c.MeanShift.Samples,
		MinBandwidth:     c.MeanShift.MinBandwidth,
		BinSeeding:       c.MeanShift.BinSeeding,
		MinBinFreq:       c.MeanShift.MinBinFreq,
	}
}

// SeedConfig returns the seed derivation settings.
func (c *Config) SeedConfig() (seed.Config, error) {
	mode, err := seed.ParseMode(c.Seed.Mode)
	if err != nil {
		return seed.Config{}, err
	}
	value := c.Seed.Value
	return seed.Config{Mode: mode, Value: &value}, nil
}
