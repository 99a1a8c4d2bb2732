// Package cli implements the stateviz command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stateviz/pkg/buildinfo"
	"github.com/matzehuels/stateviz/pkg/cache"
	"github.com/matzehuels/stateviz/pkg/errors"
	"github.com/matzehuels/stateviz/pkg/observability"
	"github.com/matzehuels/stateviz/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "stateviz"

// stdio is the file argument that reads from stdin or writes to stdout.
const stdio = "-"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config *Config

	configPath string
	verbose    bool
	quiet      bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: &Config{},
	}
}

// applyVerbosity overrides the constructor's level when -v or -q is given.
func (c *CLI) applyVerbosity() error {
	switch {
	case c.verbose && c.quiet:
		return errors.New(errors.ErrCodeInvalidInput, "--verbose and --quiet are mutually exclusive")
	case c.verbose:
		c.Logger.SetLevel(LogDebug)
	case c.quiet:
		c.Logger.SetLevel(LogWarn)
	}
	return nil
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "stateviz draws statechart scripts as routed transition graphs",
		Long:          `stateviz evaluates statechart scripts in a sandbox, captures every machine they define and renders each one as a laid-out SVG with routed edges.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.applyVerbosity(); err != nil {
				return err
			}
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			if err := setLogFormat(c.Logger, cfg.Log.Format); err != nil {
				return err
			}
			if c.Logger.GetLevel() <= log.DebugLevel {
				observability.Install(observability.NewLogHooks(c.Logger))
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging with per-stage timings")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "only log warnings and errors")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/stateviz/config.toml)")

	// Register all subcommands
	root.AddCommand(c.extractCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(noCache || c.Config.Cache.Disabled)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func (c *CLI) newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/stateviz/).
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

// =============================================================================
// Input Helpers
// =============================================================================

// readScript reads script text from path, or from stdin when path is "-".
func readScript(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == stdio {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

// splitList parses a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
