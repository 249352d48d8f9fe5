package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hanscompark/castleblock/pkg/aspect"
	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/render"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listLabelStyle    = lipgloss.NewStyle().Width(20)
	listErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
	previewBoxStyle   = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// maxValueWidth truncates long values in the field list.
const maxValueWidth = 48

// =============================================================================
// EditorModel - Field-by-field attribute editing
// =============================================================================

// EditorModel is the bubbletea model of the edit command. Every committed
// change replaces one field through block.Attributes.With, so the model
// always holds a complete, normalized snapshot.
type EditorModel struct {
	Attrs    block.Attributes
	Original block.Attributes
	Fields   []block.Field
	Cursor   int

	// Editing is true while a text or number value is being typed.
	Editing bool
	Input   []rune

	Err   string
	Saved bool

	// Now and Location drive the preview summary.
	Now      time.Time
	Location *time.Location
}

// NewEditorModel creates an editor over attrs.
func NewEditorModel(attrs block.Attributes, now time.Time, loc *time.Location) EditorModel {
	attrs = attrs.Normalize()
	return EditorModel{
		Attrs:    attrs,
		Original: attrs,
		Fields:   block.Fields(block.Current),
		Now:      now,
		Location: loc,
	}
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.Editing {
		return m.updateInput(key)
	}

	m.Err = ""
	f := m.Fields[m.Cursor]
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "ctrl+s":
		m.Saved = true
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Fields)-1 {
			m.Cursor++
		}
	case "left", "h":
		m = m.step(f, -1)
	case "right", "l":
		m = m.step(f, 1)
	case "x":
		m.Attrs = m.Attrs.WithoutImage()
	case "enter", " ":
		switch {
		case f.Kind == block.KindBoolean:
			v, _ := m.Attrs.Get(f.Name)
			m = m.set(f.Name, !v.(bool))
		case len(f.Enum) > 0:
			m = m.step(f, 1)
		default:
			m.Editing = true
			m.Input = []rune(m.valueString(f))
		}
	}
	return m, nil
}

// updateInput handles keys while a value is being typed.
func (m EditorModel) updateInput(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.Editing = false
		m.Input = nil
	case tea.KeyEnter:
		m = m.commit()
	case tea.KeyBackspace:
		if len(m.Input) > 0 {
			m.Input = m.Input[:len(m.Input)-1]
		}
	case tea.KeySpace:
		m.Input = append(m.Input, ' ')
	case tea.KeyRunes:
		m.Input = append(m.Input, key.Runes...)
	}
	return m, nil
}

// commit applies the typed input to the selected field.
func (m EditorModel) commit() EditorModel {
	f := m.Fields[m.Cursor]
	text := string(m.Input)
	var value any = text
	if f.Kind == block.KindNumber {
		n, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			m.Err = fmt.Sprintf("%s expects a whole number", f.Label)
			return m
		}
		value = n
	}
	m = m.set(f.Name, value)
	if m.Err == "" {
		m.Editing = false
		m.Input = nil
	}
	return m
}

// step cycles an enumerated field or nudges a number by five.
func (m EditorModel) step(f block.Field, dir int) EditorModel {
	cur, _ := m.Attrs.Get(f.Name)
	switch {
	case len(f.Enum) > 0:
		i := slices.Index(f.Enum, cur.(string))
		next := (i + dir + len(f.Enum)) % len(f.Enum)
		return m.set(f.Name, f.Enum[next])
	case f.Kind == block.KindNumber && f.Max > 0:
		return m.set(f.Name, cur.(int)+5*dir)
	}
	return m
}

func (m EditorModel) set(name string, value any) EditorModel {
	next, err := m.Attrs.With(name, value)
	if err != nil {
		m.Err = err.Error()
		return m
	}
	m.Attrs = next
	return m
}

// Changed lists the fields that differ from the loaded snapshot.
func (m EditorModel) Changed() []string {
	return block.Diff(m.Original, m.Attrs)
}

func (m EditorModel) valueString(f block.Field) string {
	v, _ := m.Attrs.Get(f.Name)
	return fmt.Sprint(v)
}

func (m EditorModel) View() string {
	var b strings.Builder

	title := "Edit Castle Event"
	if n := len(m.Changed()); n > 0 {
		title += fmt.Sprintf(" (%d changed)", n)
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	if m.Editing {
		b.WriteString(listDimStyle.Render("type a value  ⏎ apply  esc cancel"))
	} else {
		b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ edit/toggle  ←/→ cycle  x remove image  ctrl+s save  q quit"))
	}
	b.WriteString("\n\n")

	for i, f := range m.Fields {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		value := m.displayValue(f)
		if m.Editing && i == m.Cursor {
			value = string(m.Input) + "█"
		}
		line := cursor + listLabelStyle.Render(f.Label) + value

		switch {
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case f.Managed:
			b.WriteString(listDimStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if f := m.Fields[m.Cursor]; f.Help != "" {
		b.WriteString("\n")
		b.WriteString(listDimStyle.Render("  " + f.Help))
		b.WriteString("\n")
	}
	if m.Err != "" {
		b.WriteString("\n")
		b.WriteString(listErrorStyle.Render("  " + m.Err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(previewBoxStyle.Render(m.previewSummary()))
	b.WriteString("\n")
	return b.String()
}

func (m EditorModel) displayValue(f block.Field) string {
	v, _ := m.Attrs.Get(f.Name)
	var s string
	switch x := v.(type) {
	case string:
		if x == "" {
			return listDimStyle.Render("(empty)")
		}
		s = strconv.Quote(x)
	case bool:
		if x {
			s = "yes"
		} else {
			s = "no"
		}
	default:
		s = fmt.Sprint(x)
	}
	if r := []rune(s); len(r) > maxValueWidth {
		s = string(r[:maxValueWidth-1]) + "…"
	}
	return s
}

// previewSummary describes what the published markup would contain.
func (m EditorModel) previewSummary() string {
	card := render.Build(m.Attrs, render.Options{Now: m.Now, Location: m.Location})
	lines := []string{
		StyleHighlight.Render("Preview") + "  " + strings.Join(sectionNames(card.Sections()), " · "),
	}
	media := "natural proportions"
	if card.Media.Fixed {
		media = "padding " + aspect.Format(card.Media.Padding) + "%"
	}
	lines = append(lines, listDimStyle.Render("media: "+media+", columns "+card.GridColumns))
	if card.Past {
		lines = append(lines, StyleWarning.Render(render.PastNoticeText))
	}
	return strings.Join(lines, "\n")
}
