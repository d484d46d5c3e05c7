// Package cli provides the command-line interface for labquant.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/labquant/internal/config"
	"github.com/jmylchreest/labquant/internal/version"
)

// globalOptions holds the persistent flags and what they resolve to.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool

	cfg    *config.Config
	logger hclog.Logger
}

// NewRootCmd builds the labquant command tree.
func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "labquant",
		Short: "Colour quantization in CIE Lab space",
		Long: `labquant reduces the number of distinct colours in an image by clustering
its pixels in the perceptually uniform CIE L*a*b* colour space and replacing
every pixel with its cluster's representative colour.

Two clustering strategies are available:
  kmeans     k-means with K chosen by silhouette score
  meanshift  mean shift, the data decides the number of clusters`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: <user config dir>/labquant/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&g.quiet, "quiet", "q", false, "suppress non-error output")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newQuantizeCmd(g))
	rootCmd.AddCommand(newServeCmd(g))
	rootCmd.AddCommand(newConfigCmd(g))

	return rootCmd
}

// setupLogger creates the logger from the verbosity flags.
func (g *globalOptions) setupLogger(cmd *cobra.Command) {
	g.logger = newLogger(cmd.ErrOrStderr(), g.verbose, g.quiet)
}

// load sets up logging and reads the configuration file. A missing file
// yields the defaults.
func (g *globalOptions) load(cmd *cobra.Command) error {
	g.setupLogger(cmd)

	path, err := g.resolveConfigPath()
	if err != nil {
		g.logger.Debug("no config directory, using defaults", "error", err)
		g.cfg = config.DefaultConfig()
		return nil
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	g.cfg = cfg
	g.logger.Debug("configuration loaded", "path", path)
	return nil
}

func (g *globalOptions) resolveConfigPath() (string, error) {
	if g.configPath != "" {
		return g.configPath, nil
	}
	return config.DefaultPath()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int
}
