// Package compression transparently unwraps compressed image payloads.
package compression

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/labquant/internal/security"
)

// DefaultMaxBytes bounds the decompressed size of a payload.
const DefaultMaxBytes = 256 << 20

// Format identifies a compression container.
type Format string

const (
	None  Format = "none"
	Xz    Format = "xz"
	Gzip  Format = "gzip"
	Bzip2 Format = "bzip2"
)

var (
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
)

// Detect identifies the compression container from the payload's magic bytes.
func Detect(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, xzMagic):
		return Xz
	case bytes.HasPrefix(data, gzipMagic):
		return Gzip
	case bytes.HasPrefix(data, bzip2Magic):
		return Bzip2
	default:
		return None
	}
}

// Decompress unwraps data if it is xz, gzip or bzip2 compressed and returns
// it unchanged otherwise. The decompressed size is capped at maxBytes
// (DefaultMaxBytes when zero or negative).
func Decompress(data []byte, maxBytes int64) ([]byte, Format, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	format := Detect(data)

	var r io.Reader
	switch format {
	case Xz:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, format, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	case Gzip:
		gzr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, format, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzr.Close()
		r = gzr
	case Bzip2:
		r = bzip2.NewReader(bytes.NewReader(data))
	default:
		return data, None, nil
	}

	out, err := io.ReadAll(security.NewLimitedReader(r, maxBytes))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decompress %s payload: %w", format, err)
	}
	return out, format, nil
}
