package server

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmylchreest/labquant/internal/quantize"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	q, err := quantize.New(quantize.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("quantize.New() error = %v", err)
	}
	return New(q, opts, nil)
}

func pngUpload(t *testing.T, w, h int, uniform bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 200, G: 30, B: 30, A: 255}
			if !uniform && x >= w/2 {
				c = color.NRGBA{R: 20, G: 40, B: 220, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// uploadRequest builds a multipart POST. A nil file omits the image field.
func uploadRequest(t *testing.T, file []byte, mode string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile(FormFieldImage, "upload.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatal(err)
		}
	}
	if mode != "" {
		if err := mw.WriteField(FormFieldMode, mode); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, DefaultOptions())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`name="image"`, `name="clustering_type"`, `value="kmeans" selected`, `value="meanshift"`, `action="/upload"`} {
		if !strings.Contains(body, want) {
			t.Errorf("form missing %q", want)
		}
	}
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, DefaultOptions())

	for _, mode := range []string{"", "kmeans", "meanshift"} {
		t.Run("mode="+mode, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, uploadRequest(t, pngUpload(t, 12, 8, false), mode))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
				t.Errorf("Content-Type = %q, want image/jpeg", ct)
			}
			if rec.Header().Get("X-Clusters") != "2" {
				t.Errorf("X-Clusters = %q, want 2", rec.Header().Get("X-Clusters"))
			}

			img, err := jpeg.Decode(rec.Body)
			if err != nil {
				t.Fatalf("response is not a JPEG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 8 {
				t.Errorf("response is %dx%d, want 12x8", b.Dx(), b.Dy())
			}
		})
	}
}

func TestUploadErrors(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxUploadBytes = 64 << 10
	s := newTestServer(t, opts)

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{name: "missing file", req: uploadRequest(t, nil, "kmeans"), wantStatus: http.StatusBadRequest},
		{name: "not an image", req: uploadRequest(t, []byte("hello"), "kmeans"), wantStatus: http.StatusBadRequest},
		{name: "unknown mode", req: uploadRequest(t, pngUpload(t, 4, 4, false), "median"), wantStatus: http.StatusBadRequest},
		{name: "single colour k-means", req: uploadRequest(t, pngUpload(t, 4, 4, true), "kmeans"), wantStatus: http.StatusBadRequest},
		{name: "wrong method", req: httptest.NewRequest(http.MethodGet, "/upload", nil), wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown path", req: httptest.NewRequest(http.MethodGet, "/nope", nil), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, tt.req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxUploadBytes = 1 << 10
	s := newTestServer(t, opts)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, bytes.Repeat([]byte{0xAB}, 8<<10), "kmeans"))

	if rec.Code < 400 || rec.Code >= 500 {
		t.Errorf("status = %d, want a client error", rec.Code)
	}
}

func TestSingleColourMeanShiftUpload(t *testing.T) {
	s := newTestServer(t, DefaultOptions())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, pngUpload(t, 2, 2, true), "meanshift"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Clusters") != "1" {
		t.Errorf("X-Clusters = %q, want 1", rec.Header().Get("X-Clusters"))
	}
}
