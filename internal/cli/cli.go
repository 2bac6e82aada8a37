// Package cli implements the dotatlas command-line interface.
//
// Commands cover the three pipeline stages (apportion, assign, dots),
// a combined run command, publishing results to MongoDB, serving them
// over HTTP, and managing the stage cache. All commands support
// --verbose (-v) for debug-level logging; loggers are carried on the
// CLI struct and shared across commands.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dotatlas/dotatlas/pkg/buildinfo"
	"github.com/dotatlas/dotatlas/pkg/cache"
	"github.com/dotatlas/dotatlas/pkg/config"
	"github.com/dotatlas/dotatlas/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "dotatlas"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "dotatlas",
		Short:        "Dotatlas builds dot-density election maps from census geography",
		Long:         `Dotatlas apportions block-group demographics onto voting precincts, resolves precinct-to-district assignments, and synthesizes dot-density point clouds for map rendering.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to a TOML config file")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.apportionCommand())
	root.AddCommand(c.assignCommand())
	root.AddCommand(c.dotsCommand())
	root.AddCommand(c.uploadCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the TOML config once and memoizes it. Without --config
// the defaults apply, optionally overridden by dotatlas.toml in the
// working directory.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	path := c.configPath
	if path == "" {
		path = "dotatlas.toml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	st, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(st, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/dotatlas/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
