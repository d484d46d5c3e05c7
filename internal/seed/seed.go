// Package seed derives the random seed threaded through a quantization run.
// Every clustering stage takes the seed explicitly; nothing reads global random state.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmylchreest/labquant/internal/raster"
)

// DefaultValue is the seed used in manual mode when none is given.
const DefaultValue int64 = 42

// Mode determines how the seed is generated.
type Mode string

const (
	// ModeContent hashes the pixel data (default, deterministic by content).
	ModeContent Mode = "content"
	// ModeFilepath hashes the absolute input path (deterministic by path).
	ModeFilepath Mode = "filepath"
	// ModeManual uses a user-provided seed value.
	ModeManual Mode = "manual"
	// ModeRandom uses a non-deterministic seed (varies each run).
	ModeRandom Mode = "random"
)

// Config holds configuration for seed generation.
type Config struct {
	Mode  Mode
	Value *int64 // only used when Mode is ModeManual
}

// Calculate determines the seed value based on the seed mode.
// buf is required for ModeContent and imagePath for ModeFilepath.
func Calculate(buf *raster.Buffer, imagePath string, config Config) (int64, error) {
	switch config.Mode {
	case ModeContent, "":
		if buf == nil {
			return 0, fmt.Errorf("pixel buffer is required for content-based seed mode")
		}
		return ContentSeed(buf), nil
	case ModeFilepath:
		if imagePath == "" {
			return 0, fmt.Errorf("image path is required for filepath-based seed mode")
		}
		return FilepathSeed(imagePath), nil
	case ModeManual:
		if config.Value == nil {
			return DefaultValue, nil
		}
		return *config.Value, nil
	case ModeRandom:
		return RandomSeed(), nil
	default:
		return 0, fmt.Errorf("unknown seed mode: %s", config.Mode)
	}
}

// ContentSeed hashes the buffer dimensions and a grid of its pixels, so the same
// image content gives the same seed regardless of where it came from.
func ContentSeed(buf *raster.Buffer) int64 {
	hasher := sha256.New()

	dim := make([]byte, 8)
	binary.LittleEndian.PutUint32(dim[0:4], uint32(buf.Width))  // #nosec G115 -- image dimensions are small
	binary.LittleEndian.PutUint32(dim[4:8], uint32(buf.Height)) // #nosec G115 -- image dimensions are small
	hasher.Write(dim)

	step := max(buf.Width/100, buf.Height/100, 1)
	for y := 0; y < buf.Height; y += step {
		for x := 0; x < buf.Width; x += step {
			i := (y*buf.Width + x) * raster.Channels
			hasher.Write(buf.Pix[i : i+raster.Channels])
		}
	}

	return int64(binary.LittleEndian.Uint64(hasher.Sum(nil)[:8])) // #nosec G115 -- hash conversion is safe
}

// FilepathSeed hashes the absolute form of imagePath. URLs are hashed as-is.
func FilepathSeed(imagePath string) int64 {
	path := imagePath
	if !isURL(imagePath) {
		if abs, err := filepath.Abs(imagePath); err == nil {
			path = abs
		}
	}

	hash := sha256.Sum256([]byte(path))
	return int64(binary.LittleEndian.Uint64(hash[:8])) // #nosec G115 -- hash conversion is safe
}

// RandomSeed returns a non-deterministic seed.
func RandomSeed() int64 {
	return rand.Int64() // #nosec G404 -- seed is intentionally non-deterministic
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// ValidModes returns a list of valid seed modes.
func ValidModes() []Mode {
	return []Mode{ModeContent, ModeFilepath, ModeManual, ModeRandom}
}

// ParseMode converts a string to a Mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	if slices.Contains(ValidModes(), mode) {
		return mode, nil
	}
	return "", fmt.Errorf("invalid seed mode: %s (valid: content, filepath, manual, random)", s)
}
