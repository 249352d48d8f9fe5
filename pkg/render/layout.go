package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/hanscompark/castleblock/pkg/aspect"
	"github.com/hanscompark/castleblock/pkg/block"
	"github.com/hanscompark/castleblock/pkg/eventdate"
)

// Class names shared by both render paths. The accompanying stylesheet
// targets these, so they are part of the markup contract.
const (
	ClassPublished     = "wp-block-castle-event-block"
	ClassEditor        = "castle-event-block-editor"
	ClassMediaRight    = "is-media-right"
	ClassNotStacked    = "is-not-stacked-on-mobile"
	ClassPastEvent     = "is-past-event"
	ClassImageWrapper  = "castle-event-block__image-wrapper"
	ClassImageOriginal = "castle-event-block__image-wrapper--original"
	ClassPlaceholder   = "castle-event-block__image-placeholder"

	// GridVariable is the CSS custom property carrying the column template.
	GridVariable = "--castle-grid-columns"

	PlaceholderText = "No image selected"
	PastNoticeText  = "Hidden (past event)"
)

// Options carries the render-time context. Now and Location drive the
// past-event rule; a zero Now means time.Now and a nil Location means
// time.Local.
type Options struct {
	Now      time.Time
	Location *time.Location
}

// Card is the complete, mode-independent view model of one event block.
// Both render paths execute the same template over the same Card, which is
// what keeps the publish output and the editing preview in step.
type Card struct {
	// Attributes is the normalized snapshot the card was built from.
	Attributes block.Attributes

	// Past is the outcome of the past-event rule.
	Past bool

	// Link is the sanitized destination URL, empty when absent or unsafe.
	Link template.URL

	// LayoutClasses are the container classes common to both modes.
	LayoutClasses []string

	// GridColumns is the column template, e.g. "50% 1fr".
	GridColumns string

	Media  Media
	Title  string
	Blurb  template.HTML
	Button Button
}

// Media describes the image column.
type Media struct {
	HasImage bool
	Src      template.URL
	Alt      string
	// Fixed is false when the image keeps its natural proportions.
	Fixed   bool
	Padding float64
}

// Button describes the call to action.
type Button struct {
	Show bool
	Text string
}

// Sections records which conditional parts of the layout are present.
// Equal Sections mean structurally equivalent output.
type Sections struct {
	ImageLinked bool
	Image       bool
	Placeholder bool
	Title       bool
	TitleLinked bool
	Blurb       bool
	Button      bool
	Past        bool
}

// Build computes the card for a. It never fails: every input degrades to a
// renderable value. a is not modified.
func Build(a block.Attributes, opts Options) Card {
	a = a.Normalize()

	current := opts.Now
	if current.IsZero() {
		current = time.Now()
	}
	past := eventdate.IsPast(a.EndDate, current, opts.Location)

	link := SafeURL(a.LinkURL)
	src := SafeURL(a.ImageURL)

	padding, fixed := aspect.Resolve(a.AspectRatio)
	media := Media{
		HasImage: src != "",
		Src:      template.URL(src),
		Alt:      PlainText(a.ImageAlt),
		Fixed:    fixed,
		Padding:  padding,
	}
	if !media.HasImage {
		media.Fixed = true
		media.Padding = aspect.Placeholder(a.AspectRatio)
	}

	var blurb template.HTML
	if !past {
		if clean := SanitizeBlurb(a.Blurb); strings.TrimSpace(clean) != "" {
			blurb = template.HTML(clean)
		}
	}

	buttonText := PlainText(a.ButtonText)
	return Card{
		Attributes:    a,
		Past:          past,
		Link:          template.URL(link),
		LayoutClasses: layoutClasses(a),
		GridColumns:   gridColumns(a),
		Media:         media,
		Title:         PlainText(a.Title),
		Blurb:         blurb,
		Button: Button{
			Show: a.ShowButton && link != "" && buttonText != "",
			Text: buttonText,
		},
	}
}

// Sections reports the conditional parts present in the card.
func (c Card) Sections() Sections {
	return Sections{
		ImageLinked: c.Link != "",
		Image:       c.Media.HasImage,
		Placeholder: !c.Media.HasImage,
		Title:       c.Title != "",
		TitleLinked: c.Title != "" && c.Link != "",
		Blurb:       c.Blurb != "",
		Button:      c.Button.Show,
		Past:        c.Past,
	}
}

func layoutClasses(a block.Attributes) []string {
	var classes []string
	switch a.Align {
	case block.AlignWide:
		classes = append(classes, "alignwide")
	case block.AlignFull:
		classes = append(classes, "alignfull")
	}
	if a.MediaPosition == block.PositionRight {
		classes = append(classes, ClassMediaRight)
	}
	if !a.StackOnMobile {
		classes = append(classes, ClassNotStacked)
	}
	return classes
}

func gridColumns(a block.Attributes) string {
	if a.MediaPosition == block.PositionRight {
		return fmt.Sprintf("1fr %d%%", a.MediaWidth)
	}
	return fmt.Sprintf("%d%% 1fr", a.MediaWidth)
}
