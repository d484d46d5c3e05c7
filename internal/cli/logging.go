package cli

import (
	"io"

	"github.com/hashicorp/go-hclog"
)

// newLogger builds the root logger. Verbose wins over quiet.
func newLogger(w io.Writer, verbose, quiet bool) hclog.Logger {
	level := hclog.Info
	switch {
	case verbose:
		level = hclog.Debug
	case quiet:
		level = hclog.Warn
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "labquant",
		Output: w,
		Level:  level,
		Color:  hclog.AutoColor,
	})
}
