package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/pipeline"
	"github.com/hanscompark/castleblock/pkg/render"
)

// renderFlags holds the flags of the render and preview commands.
type renderFlags struct {
	runnerOpts
	output  string
	mode    string
	refresh bool
	quiet   bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "render [attributes.json]",
		Short: "Render block attributes to published markup",
		Long: `Render block attributes to published markup.

The input is a persisted attribute snapshot of any schema version, read from
a file or from stdin ("-" or no argument). Older snapshots are migrated in
memory before rendering. The blurb is omitted when the end date has passed.

Rendered markup is cached locally per snapshot and day.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := render.ParseMode(f.mode)
			if err != nil {
				return err
			}
			return c.runRender(cmd, argOr(args, "-"), mode, f)
		},
	}

	f.bind(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&f.mode, "mode", "m", string(render.ModePublish), "render mode: publish, preview")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached markup")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "suppress status output")

	return cmd
}

// previewCommand creates the preview command, a shortcut for render --mode preview.
func (c *CLI) previewCommand() *cobra.Command {
	var f renderFlags

	cmd := &cobra.Command{
		Use:   "preview [attributes.json]",
		Short: "Render block attributes as the editing preview",
		Long: `Render block attributes as the editing preview.

The preview shares its layout with the published markup. When the event has
ended the blurb is replaced by a "Hidden (past event)" notice.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, argOr(args, "-"), render.ModePreview, f)
		},
	}

	f.bind(cmd)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached markup")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "suppress status output")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, mode render.Mode, f renderFlags) error {
	data, err := readInput(cmd, input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(f.runnerOpts)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := c.renderData(cmd.Context(), runner, data, pipeline.Options{Mode: mode, Refresh: f.refresh})
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, f.output, res.HTML); err != nil {
		return err
	}

	if f.quiet {
		return nil
	}
	printSuccess("Rendered %s markup (schema v%d, %s)", res.Mode, res.SourceVersion, res.Day)
	printSections(res.Sections, res.CacheHit)
	if f.output != "" {
		printFile(f.output)
	}
	return nil
}

func (c *CLI) renderData(ctx context.Context, runner *pipeline.Runner, data []byte, opts pipeline.Options) (*pipeline.Result, error) {
	opts.Logger = c.Logger
	res, err := runner.RenderJSON(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if res.SourceVersion != block.Current {
		c.Logger.Debug("migrated snapshot", "from", res.SourceVersion, "to", block.Current)
	}
	c.Logger.Debug("render stats",
		"decode", res.Stats.DecodeTime,
		"render", res.Stats.RenderTime,
		"snapshot", res.SnapshotHash)
	return res, nil
}

// argOr returns the first argument or def.
func argOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}
