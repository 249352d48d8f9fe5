package block

import (
	"github.com/hanscompark/castleblock/pkg/aspect"
)

// Version identifies an attribute schema revision.
type Version int

// Schema versions.
const (
	// V1 is the original schema: image, text, link, end date, aspect ratio
	// (default 4:3) and host alignment.
	V1 Version = 1

	// V2 adds the media layout model (position, width, mobile stacking) and
	// defaults the aspect ratio to the image's natural proportions.
	V2 Version = 2

	// Current is the version every decoded snapshot is migrated to.
	Current = V2
)

// Valid reports whether v is a known schema version.
func (v Version) Valid() bool {
	return v == V1 || v == V2
}

// Kind is the persisted JSON type of an attribute.
type Kind string

// Attribute kinds as declared in the registration document.
const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
)

// Field names. These are the persisted wire names and must never change.
const (
	FieldImageID       = "imageId"
	FieldImageURL      = "imageUrl"
	FieldImageAlt      = "imageAlt"
	FieldTitle         = "title"
	FieldBlurb         = "blurb"
	FieldLinkURL       = "linkUrl"
	FieldButtonText    = "buttonText"
	FieldShowButton    = "showButton"
	FieldEndDate       = "endDate"
	FieldAspectRatio   = "aspectRatio"
	FieldMediaPosition = "mediaPosition"
	FieldMediaWidth    = "mediaWidth"
	FieldStackOnMobile = "stackOnMobile"
	FieldAlign         = "align"
)

// Enumerated values.
const (
	PositionLeft  = "left"
	PositionRight = "right"

	AlignNone = ""
	AlignWide = "wide"
	AlignFull = "full"

	DefaultButtonText = "Learn More"
	DefaultMediaWidth = 50
	MinMediaWidth     = 15
	MaxMediaWidth     = 85
)

// Field describes one attribute of the schema.
type Field struct {
	Name    string   // wire name
	Kind    Kind     // persisted JSON type
	Since   Version  // first version carrying the field
	Enum    []string // allowed values, nil when free-form
	Min     int      // lower bound for numbers (0 when unbounded)
	Max     int      // upper bound for numbers (0 when unbounded)
	Label   string   // human-readable label for editing controls
	Help    string   // optional help text for editing controls
	Rich    bool     // value is rich inline HTML
	Managed bool     // set by a collaborator (media library), not typed by hand
}

var fields = []Field{
	{Name: FieldImageID, Kind: KindNumber, Since: V1, Label: "Image ID", Managed: true},
	{Name: FieldImageURL, Kind: KindString, Since: V1, Label: "Image URL", Managed: true},
	{Name: FieldImageAlt, Kind: KindString, Since: V1, Label: "Image alt text", Managed: true},
	{Name: FieldTitle, Kind: KindString, Since: V1, Label: "Event Title", Rich: true},
	{Name: FieldBlurb, Kind: KindString, Since: V1, Label: "Event description", Rich: true},
	{Name: FieldLinkURL, Kind: KindString, Since: V1, Label: "Link URL"},
	{Name: FieldButtonText, Kind: KindString, Since: V1, Label: "Button Text"},
	{Name: FieldShowButton, Kind: KindBoolean, Since: V1, Label: "Show Button"},
	{Name: FieldEndDate, Kind: KindString, Since: V1, Label: "Event End Date",
		Help: "After this date, the blurb will be hidden."},
	{Name: FieldAspectRatio, Kind: KindString, Since: V1, Enum: aspect.Keys(), Label: "Aspect Ratio"},
	{Name: FieldMediaPosition, Kind: KindString, Since: V2, Enum: []string{PositionLeft, PositionRight}, Label: "Media position"},
	{Name: FieldMediaWidth, Kind: KindNumber, Since: V2, Min: MinMediaWidth, Max: MaxMediaWidth, Label: "Media width (%)"},
	{Name: FieldStackOnMobile, Kind: KindBoolean, Since: V2, Label: "Stack on mobile"},
	{Name: FieldAlign, Kind: KindString, Since: V1, Enum: []string{AlignNone, AlignWide, AlignFull}, Label: "Alignment"},
}

// Fields returns the attributes declared by version v, in display order.
func Fields(v Version) []Field {
	out := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Since <= v {
			out = append(out, f)
		}
	}
	return out
}

// Lookup returns the field named name, if it exists in the current schema.
func Lookup(name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// v2Only lists the wire names introduced by V2, used for version detection.
func v2Only() []string {
	var names []string
	for _, f := range fields {
		if f.Since == V2 {
			names = append(names, f.Name)
		}
	}
	return names
}

// Default returns the default value of field name under version v.
func Default(name string, v Version) any {
	d := Defaults(v)
	val, _ := d.Get(name)
	return val
}
