package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanscompark/castleblock/pkg/block"
)

// migrateCommand creates the migrate command.
func (c *CLI) migrateCommand() *cobra.Command {
	var (
		output  string
		inPlace bool
	)

	cmd := &cobra.Command{
		Use:   "migrate [attributes.json]",
		Short: "Upgrade an attribute snapshot to the current schema",
		Long: `Upgrade an attribute snapshot to the current schema.

Migration is additive: every stored value is kept, a v1 snapshot that relied
on the implicit 4:3 aspect ratio gets it written explicitly, and fields new
in v2 get their defaults. The output names every field.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := argOr(args, "-")
			if inPlace {
				if input == "-" {
					return fmt.Errorf("--write needs a file argument")
				}
				output = input
			}

			data, err := readInput(cmd, input)
			if err != nil {
				return err
			}
			prog := newProgress(c.Logger)
			out, from, err := block.Upgrade(data)
			if err != nil {
				return fmt.Errorf("migrate %s: %w", input, err)
			}
			if err := writeOutput(cmd, output, append(out, '\n')); err != nil {
				return err
			}
			if output == "" {
				return nil
			}
			if from == block.Current {
				prog.done(fmt.Sprintf("Snapshot already at v%d, rewrote with explicit fields", from))
			} else {
				prog.done(fmt.Sprintf("Migrated snapshot v%d → v%d", from, block.Current))
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVarP(&inPlace, "write", "w", false, "rewrite the input file")

	return cmd
}
