package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/labquant/internal/config"
	"github.com/jmylchreest/labquant/internal/quantize"
	"github.com/jmylchreest/labquant/internal/server"
)

type serveOptions struct {
	addr           string
	mode           string
	maxUploadBytes int64
	timeout        time.Duration
}

func newServeCmd(g *globalOptions) *cobra.Command {
	o := &serveOptions{}
	def := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an upload form that quantizes images",
		Long: `Start an HTTP server with an upload form.

GET /         HTML form with an image field and a clustering mode selector
POST /upload  multipart upload; responds with the quantized image as JPEG

Clustering parameters come from the configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd, g)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.addr, "addr", def.Server.Addr, "listen address")
	f.StringVarP(&o.mode, "mode", "m", def.Quantize.Mode, "clustering mode used when the form does not choose one")
	f.Int64Var(&o.maxUploadBytes, "max-upload-bytes", def.Server.MaxUploadBytes, "largest accepted upload in bytes")
	f.DurationVar(&o.timeout, "timeout", def.Server.Timeout, "per-request time limit (0 disables)")

	return cmd
}

func (o *serveOptions) run(cmd *cobra.Command, g *globalOptions) error {
	cfg := *g.cfg
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = o.addr
	}
	if flags.Changed("mode") {
		cfg.Quantize.Mode = o.mode
	}
	if flags.Changed("max-upload-bytes") {
		cfg.Server.MaxUploadBytes = o.maxUploadBytes
	}
	if flags.Changed("timeout") {
		cfg.Server.Timeout = o.timeout
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	mode, err := cfg.Mode()
	if err != nil {
		return err
	}
	sc, err := cfg.SeedConfig()
	if err != nil {
		return err
	}
	q, err := quantize.New(cfg.QuantizeOptions(), g.logger.Named("quantize"))
	if err != nil {
		return err
	}

	srv := server.New(q, server.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Timeout:        cfg.Server.Timeout,
		Quality:        cfg.Output.Quality,
		MaxSize:        cfg.Output.MaxSize,
		Mode:           mode,
		Seed:           sc,
	}, g.logger.Named("server"))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
