package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/hanscompark/castleblock/pkg/aspect"
	"github.com/hanscompark/castleblock/pkg/block"
)

// Mode selects the render path.
type Mode string

const (
	// ModePublish produces the markup embedded in published pages.
	ModePublish Mode = "publish"
	// ModePreview produces the editing-surface markup. It carries the past
	// notice and the editor container class.
	ModePreview Mode = "preview"
)

// ParseMode returns the Mode named by s. The empty string means publish.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePublish, "":
		return ModePublish, nil
	case ModePreview:
		return ModePreview, nil
	}
	return "", fmt.Errorf("unknown render mode %q (use publish or preview)", s)
}

func (m Mode) String() string { return string(m) }

//go:embed templates/*.tmpl
var templateFS embed.FS

var cardTemplate = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// view is the template data: the card plus everything that differs by mode.
type view struct {
	Card            Card
	Preview         bool
	ContainerClass  string
	ContainerStyle  template.CSS
	MediaClass      string
	MediaStyle      template.CSS
	PlaceholderText string
	PastNotice      string
}

func newView(c Card, mode Mode) view {
	v := view{
		Card:            c,
		Preview:         mode == ModePreview,
		ContainerStyle:  template.CSS(fmt.Sprintf("%s: %s;", GridVariable, c.GridColumns)),
		MediaClass:      mediaClass(c.Media),
		PlaceholderText: PlaceholderText,
		PastNotice:      PastNoticeText,
	}
	if c.Media.Fixed {
		v.MediaStyle = template.CSS(fmt.Sprintf("padding-bottom: %s%%;", aspect.Format(c.Media.Padding)))
	}

	classes := []string{ClassPublished}
	if v.Preview {
		classes[0] = ClassEditor
	}
	classes = append(classes, c.LayoutClasses...)
	if !v.Preview && c.Past {
		classes = append(classes, ClassPastEvent)
	}
	v.ContainerClass = strings.Join(classes, " ")
	return v
}

func mediaClass(m Media) string {
	switch {
	case !m.HasImage:
		return ClassImageWrapper + " " + ClassPlaceholder
	case !m.Fixed:
		return ClassImageWrapper + " " + ClassImageOriginal
	}
	return ClassImageWrapper
}

// Render writes the card's markup for mode to w.
func (c Card) Render(w io.Writer, mode Mode) error {
	return cardTemplate.ExecuteTemplate(w, "card", newView(c, mode))
}

// Publish writes the published markup for c.
func Publish(w io.Writer, c Card) error { return c.Render(w, ModePublish) }

// Preview writes the editing-surface markup for c.
func Preview(w io.Writer, c Card) error { return c.Render(w, ModePreview) }

// RenderHTML builds the card for a and returns its markup in mode.
func RenderHTML(a block.Attributes, opts Options, mode Mode) ([]byte, error) {
	var buf bytes.Buffer
	if err := Build(a, opts).Render(&buf, mode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
