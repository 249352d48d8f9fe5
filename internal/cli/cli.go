// Package cli implements the castleblock command-line interface.
//
// The commands render event block attributes to publish or preview markup,
// print the registration document, migrate stored snapshots to the current
// schema, edit a snapshot in the terminal, and run the render service. The
// CLI is built on cobra and logs with charmbracelet/log.
//
// # Commands
//
//   - render: render attribute JSON to published markup
//   - preview: render attribute JSON as the editing preview
//   - schema: print the block registration document
//   - migrate: upgrade an attribute snapshot to the current schema
//   - edit: edit an attribute snapshot field by field
//   - serve: run the HTTP render service
//   - cache: manage the local render cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/buildinfo"
	"github.com/hanscompark/castleblock/pkg/cache"
	"github.com/hanscompark/castleblock/pkg/clock"
	"github.com/hanscompark/castleblock/pkg/eventdate"
	"github.com/hanscompark/castleblock/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "castleblock"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "castleblock renders the Castle Event content block",
		Long: `castleblock renders the Castle Event content block: an event card with an
image, title, blurb and call to action whose blurb is hidden once the event
has ended. It renders the published markup and the editing preview from the
same attributes, and hosts both as an HTTP service.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.schemaCommand())
	root.AddCommand(c.migrateCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOpts are the flags shared by commands that render.
type runnerOpts struct {
	noCache  bool
	timezone string
	today    string
}

func (o *runnerOpts) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the local render cache")
	cmd.Flags().StringVar(&o.timezone, "timezone", "Local", "IANA time zone of the end date rule")
	cmd.Flags().StringVar(&o.today, "today", "", "evaluate the end date as of this day (YYYY-MM-DD)")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(o runnerOpts) (*pipeline.Runner, error) {
	loc, err := loadLocation(o.timezone)
	if err != nil {
		return nil, err
	}
	cache, err := newCache(o.noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cache, nil, c.Logger)
	runner.SetLocation(loc)
	if o.today != "" {
		day, err := eventdate.Parse(o.today, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid --today %q: %w", o.today, err)
		}
		runner.SetClock(clock.NewFixed(day.Add(12 * time.Hour)))
	}
	return runner, nil
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

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" || name == "local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/castleblock/).
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
// Input / Output
// =============================================================================

// readInput reads a file, or stdin when path is "-" or empty.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// writeOutput writes data to a file, or stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// parseVersion validates a --version flag value.
func parseVersion(n int) (block.Version, error) {
	v := block.Version(n)
	if !v.Valid() {
		return 0, fmt.Errorf("unknown schema version %d (must be 1 or 2)", n)
	}
	return v, nil
}
