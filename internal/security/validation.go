// Package security provides input validation utilities for labquant.
package security

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// ErrSizeLimitExceeded is returned once a LimitedReader runs past its budget.
var ErrSizeLimitExceeded = errors.New("size limit exceeded")

// ValidateImageURL validates an HTTP(S) URL an image will be fetched from.
func ValidateImageURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("invalid URL protocol (only http:// and https:// allowed): %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a hostname")
	}
	return nil
}

// IsURL reports whether path looks like an HTTP(S) URL rather than a file path.
func IsURL(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// Unlike io.LimitReader it fails loudly instead of truncating, which stops
// decompression bombs from decoding as a silently cut image.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		// A source that ends exactly at the limit is fine.
		var probe [1]byte
		n, err := l.R.Read(probe[:])
		if n == 0 && err != nil {
			return 0, err
		}
		return 0, ErrSizeLimitExceeded
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
