// Package server exposes the quantizer over HTTP: an upload form and an
// endpoint that returns the quantized image as JPEG.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	imageutil "github.com/jmylchreest/labquant/internal/image"
	"github.com/jmylchreest/labquant/internal/quantize"
	"github.com/jmylchreest/labquant/internal/raster"
	"github.com/jmylchreest/labquant/internal/seed"
)

const (
	// DefaultMaxUploadBytes bounds the request body of an upload.
	DefaultMaxUploadBytes = 32 << 20

	// FormFieldImage is the multipart field carrying the image.
	FormFieldImage = "image"
	// FormFieldMode is the form field selecting the clustering strategy.
	FormFieldMode = "clustering_type"

	shutdownTimeout = 10 * time.Second
)

// Options configures the server.
type Options struct {
	MaxUploadBytes int64
	// Timeout bounds each request. Zero disables the limit.
	Timeout time.Duration
	Quality int
	MaxSize int
	Mode    quantize.Mode
	Seed    seed.Config
}

// DefaultOptions returns the default server options.
func DefaultOptions() Options {
	return Options{
		MaxUploadBytes: DefaultMaxUploadBytes,
		Timeout:        2 * time.Minute,
		Quality:        imageutil.DefaultQuality,
		Mode:           quantize.ModeKMeans,
		Seed:           seed.Config{Mode: seed.ModeManual},
	}
}

// Server serves the upload form and the quantization endpoint.
type Server struct {
	quantizer *quantize.Quantizer
	opts      Options
	logger    hclog.Logger
	handler   http.Handler
}

// New creates a Server. A nil logger discards output.
func New(q *quantize.Quantizer, opts Options, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Mode == "" {
		opts.Mode = quantize.ModeKMeans
	}

	s := &Server{
		quantizer: q,
		opts:      opts,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /upload", s.handleUpload)

	var h http.Handler = mux
	if opts.Timeout > 0 {
		h = http.TimeoutHandler(h, opts.Timeout, "quantization timed out\n")
	}
	s.handler = s.logRequests(h)
	return s
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>labquant</title></head>
<body>
<h1>Colour quantization</h1>
<form action="/upload" method="post" enctype="multipart/form-data">
  <input type="file" name="{{.ImageField}}" accept="image/*" required>
  <select name="{{.ModeField}}">
  {{- range .Modes}}
    <option value="{{.}}"{{if eq . $.Default}} selected{{end}}>{{.}}</option>
  {{- end}}
  </select>
  <button type="submit">Quantize</button>
</form>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := struct {
		ImageField string
		ModeField  string
		Modes      []quantize.Mode
		Default    quantize.Mode
	}{
		ImageField: FormFieldImage,
		ModeField:  FormFieldMode,
		Modes:      quantize.ValidModes(),
		Default:    s.opts.Mode,
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to render form", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile(FormFieldImage)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.fail(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), err)
			return
		}
		s.fail(w, http.StatusBadRequest, "no image uploaded", err)
		return
	}
	defer file.Close()

	mode := s.opts.Mode
	if v := r.FormValue(FormFieldMode); v != "" {
		if mode, err = quantize.ParseMode(v); err != nil {
			s.fail(w, http.StatusBadRequest, err.Error(), err)
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "failed to read upload", err)
		return
	}

	img, format, err := imageutil.Decode(data, 0)
	if err != nil {
		s.fail(w, http.StatusBadRequest, "unsupported or corrupt image", err)
		return
	}
	buf := raster.FromImage(imageutil.Downscale(img, s.opts.MaxSize))

	sd, err := seed.Calculate(buf, header.Filename, s.opts.Seed)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to derive seed", err)
		return
	}

	out, res, err := s.quantizer.Quantize(buf, mode, sd)
	if err != nil {
		if errors.Is(err, raster.ErrInvalidInput) {
			s.fail(w, http.StatusBadRequest, err.Error(), err)
			return
		}
		s.fail(w, http.StatusInternalServerError, "quantization failed", err)
		return
	}

	var body bytes.Buffer
	if err := imageutil.Encode(&body, out.Image(), imageutil.FormatJPEG, s.opts.Quality); err != nil {
		s.fail(w, http.StatusInternalServerError, "failed to encode result", err)
		return
	}

	s.logger.Debug("upload quantized",
		"file", header.Filename,
		"format", format,
		"mode", mode,
		"clusters", res.K())

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.Header().Set("X-Clusters", strconv.Itoa(res.K()))
	w.Header().Set("X-Seed", strconv.FormatInt(sd, 10))
	_, _ = w.Write(body.Bytes())
}

func (s *Server) fail(w http.ResponseWriter, status int, msg string, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error(msg, "error", err)
	} else {
		s.logger.Debug(msg, "error", err)
	}
	http.Error(w, msg, status)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start).Round(time.Millisecond))
	})
}
