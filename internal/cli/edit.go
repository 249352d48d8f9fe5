package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hanscompark/castleblock/pkg/block"
)

// editCommand creates the edit command.
func (c *CLI) editCommand() *cobra.Command {
	var (
		output   string
		timezone string
	)

	cmd := &cobra.Command{
		Use:   "edit [attributes.json]",
		Short: "Edit an attribute snapshot field by field",
		Long: `Edit an attribute snapshot field by field.

Opens an interactive editor over the snapshot with a live summary of the
rendered block. Saving writes the complete snapshot in the current schema.
A missing file starts from the defaults of a freshly inserted block.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := loadLocation(timezone)
			if err != nil {
				return err
			}
			if output == "" {
				output = args[0]
			}
			return c.runEdit(args[0], output, loc)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result here instead of the input file")
	cmd.Flags().StringVar(&timezone, "timezone", "Local", "IANA time zone of the end date rule")

	return cmd
}

func (c *CLI) runEdit(input, output string, loc *time.Location) error {
	attrs, err := loadSnapshot(input)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(NewEditorModel(attrs, time.Now(), loc)).Run()
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	m, ok := final.(EditorModel)
	if !ok || !m.Saved {
		printInfo("Discarded changes")
		return nil
	}

	if err := saveSnapshot(output, m.Attrs); err != nil {
		return err
	}
	changed := m.Changed()
	printSuccess("Saved %d changed field(s)", len(changed))
	if len(changed) > 0 {
		printDetail("%s", strings.Join(changed, ", "))
	}
	printFile(output)
	printNextStep("Preview it", "castleblock preview "+output)
	return nil
}

// loadSnapshot reads a snapshot of any version, or the defaults when the
// file does not exist.
func loadSnapshot(path string) (block.Attributes, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return block.Defaults(block.Current), nil
	}
	if err != nil {
		return block.Attributes{}, fmt.Errorf("read %s: %w", path, err)
	}
	attrs, _, err := block.Decode(data)
	if err != nil {
		return block.Attributes{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return attrs, nil
}

// saveSnapshot writes attrs as an indented current-version document.
func saveSnapshot(path string, attrs block.Attributes) error {
	data, err := block.Encode(attrs)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
