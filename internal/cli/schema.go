package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanscompark/castleblock/pkg/block"
)

// schemaCommand creates the schema command.
func (c *CLI) schemaCommand() *cobra.Command {
	var (
		version int
		output  string
		noCache bool
		fields  bool
	)

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the block registration document",
		Long: `Print the block registration document.

The document carries the block name, editor metadata, host supports and the
attribute map (type, default, enum) of the requested schema version. Hosts
register the block from it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseVersion(version)
			if err != nil {
				return err
			}
			if fields {
				printFields(v)
				return nil
			}

			runner, err := c.newRunner(runnerOpts{noCache: noCache})
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			data, err := runner.Registration(cmd.Context(), v)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, output, append(data, '\n')); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Wrote %s schema v%d", block.Name, v)
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&version, "version", int(block.Current), "schema version: 1, 2")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the local render cache")
	cmd.Flags().BoolVar(&fields, "fields", false, "print a field summary instead of the document")

	return cmd
}

// printFields prints one line per attribute of version v.
func printFields(v block.Version) {
	fmt.Fprintln(statusOut, StyleTitle.Render(fmt.Sprintf("%s (schema v%d)", block.Name, v)))
	for _, f := range block.Fields(v) {
		value := fmt.Sprintf("%s = %v", f.Kind, block.Default(f.Name, v))
		if len(f.Enum) > 0 {
			value += StyleDim.Render("  [") + joinDim(quoteAll(f.Enum)) + StyleDim.Render("]")
		}
		printKeyValue(f.Name, value)
	}
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%q", v)
	}
	return out
}
