// Package image provides utilities for loading, resizing and saving images.
package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP format
	_ "golang.org/x/image/tiff" // Register TIFF format
	_ "golang.org/x/image/webp" // Register WebP format

	"github.com/jmylchreest/labquant/internal/compression"
	"github.com/jmylchreest/labquant/internal/security"
	"github.com/jmylchreest/labquant/internal/util/imagecache"
	httputil "github.com/jmylchreest/labquant/internal/util/http"
)

// ErrDecode is returned when bytes cannot be decoded as a supported image.
var ErrDecode = errors.New("cannot decode image")

// Loader handles loading images from various sources.
type Loader interface {
	// Load loads an image from the given path.
	Load(ctx context.Context, path string) (image.Image, error)
}

// SupportedFormats returns the names of the registered decoders.
func SupportedFormats() []string {
	return []string{"jpeg", "png", "gif", "webp", "bmp", "tiff"}
}

// Decode decodes an image, transparently unwrapping xz, gzip or bzip2
// compression. maxBytes caps the decompressed size (zero uses the default).
func Decode(data []byte, maxBytes int64) (image.Image, string, error) {
	raw, compressed, err := compression.Decompress(data, maxBytes)
	if err != nil {
		return nil, "", err
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}

	if compressed != compression.None {
		format += "+" + string(compressed)
	}
	return img, format, nil
}

// FileLoader loads images from the local filesystem.
type FileLoader struct {
	// MaxBytes caps the decompressed size of compressed inputs.
	MaxBytes int64
}

// NewFileLoader creates a new FileLoader instance.
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load loads an image from a file path.
func (l *FileLoader) Load(_ context.Context, path string) (image.Image, error) {
	if path == "" {
		return nil, fmt.Errorf("image path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	img, _, err := Decode(data, l.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// SmartLoader loads images from both local files and HTTP(S) URLs.
type SmartLoader struct {
	// MaxBytes caps the decompressed size of compressed inputs.
	MaxBytes int64

	// Cache stores downloaded images on disk and reuses them on later loads.
	Cache bool

	// CacheDir overrides the default cache directory.
	CacheDir string

	// Fetch configures remote downloads.
	Fetch httputil.FetchOptions
}

// NewSmartLoader creates a new SmartLoader instance.
func NewSmartLoader() *SmartLoader {
	return &SmartLoader{}
}

// Load loads an image from either a local file path or HTTP(S) URL.
func (l *SmartLoader) Load(ctx context.Context, path string) (image.Image, error) {
	files := &FileLoader{MaxBytes: l.MaxBytes}
	if !security.IsURL(path) {
		return files.Load(ctx, path)
	}

	if l.Cache {
		cached, err := imagecache.DownloadAndCache(ctx, path, imagecache.CacheOptions{
			CacheDir: l.CacheDir,
			Fetch:    l.Fetch,
		})
		if err != nil {
			return nil, err
		}
		return files.Load(ctx, cached)
	}

	return l.loadFromURL(ctx, path)
}

// loadFromURL fetches and decodes an image from an HTTP(S) URL.
func (l *SmartLoader) loadFromURL(ctx context.Context, url string) (image.Image, error) {
	data, err := httputil.Fetch(ctx, url, l.Fetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from URL: %w", err)
	}

	img, _, err := Decode(data, l.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return img, nil
}
