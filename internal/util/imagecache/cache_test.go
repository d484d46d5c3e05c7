package imagecache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		url     string
		wantExt string
	}{
		{url: "https://example.com/a.PNG", wantExt: ".png"},
		{url: "https://example.com/a.jpg?w=100", wantExt: ".jpg"},
		{url: "https://example.com/image", wantExt: ".img"},
		{url: "https://example.com/a.longextension", wantExt: ".img"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := Filename(tt.url)
			if !strings.HasSuffix(got, tt.wantExt) {
				t.Errorf("Filename() = %q, want suffix %q", got, tt.wantExt)
			}
			if got != Filename(tt.url) {
				t.Error("Filename() is not deterministic")
			}
		})
	}

	if Filename("https://example.com/a.png") == Filename("https://example.com/b.png") {
		t.Error("different URLs should map to different names")
	}
}

func TestDownloadAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	url := srv.URL + "/photo.png"
	ctx := context.Background()

	path, err := DownloadAndCache(ctx, url, CacheOptions{CacheDir: dir})
	if err != nil {
		t.Fatalf("DownloadAndCache() error = %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("cached path %q not under %q", path, dir)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "image-bytes" {
		t.Fatalf("cached file = %q, %v", data, err)
	}

	if _, err := DownloadAndCache(ctx, url, CacheOptions{CacheDir: dir}); err != nil {
		t.Fatalf("DownloadAndCache() error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (second call should use the cache)", hits.Load())
	}

	if _, err := DownloadAndCache(ctx, url, CacheOptions{CacheDir: dir, AllowOverwrite: true}); err != nil {
		t.Fatalf("DownloadAndCache() error = %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2 after forced refresh", hits.Load())
	}
}
