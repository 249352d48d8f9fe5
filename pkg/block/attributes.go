package block

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
)

// Attributes is the persisted attribute record of one event block.
//
// Attributes is a value type. Render paths receive a copy and never write
// to it; edits go through With, which returns a new snapshot.
type Attributes struct {
	ImageID       int    `json:"imageId" bson:"imageId"`
	ImageURL      string `json:"imageUrl" bson:"imageUrl"`
	ImageAlt      string `json:"imageAlt" bson:"imageAlt"`
	Title         string `json:"title" bson:"title"`
	Blurb         string `json:"blurb" bson:"blurb"`
	LinkURL       string `json:"linkUrl" bson:"linkUrl"`
	ButtonText    string `json:"buttonText" bson:"buttonText"`
	ShowButton    bool   `json:"showButton" bson:"showButton"`
	EndDate       string `json:"endDate" bson:"endDate"`
	AspectRatio   string `json:"aspectRatio" bson:"aspectRatio"`
	MediaPosition string `json:"mediaPosition" bson:"mediaPosition"`
	MediaWidth    int    `json:"mediaWidth" bson:"mediaWidth"`
	StackOnMobile bool   `json:"stackOnMobile" bson:"stackOnMobile"`
	Align         string `json:"align" bson:"align"`
}

// Document is the persisted form of a snapshot: the flat attribute object
// plus the schema version it was written with.
type Document struct {
	Version Version `json:"version"`
	Attributes
}

// Defaults returns the attribute set of a freshly inserted block under
// schema version v. Fields that v does not declare carry the V2 defaults so
// the value always renders.
func Defaults(v Version) Attributes {
	a := Attributes{
		ButtonText:    DefaultButtonText,
		ShowButton:    true,
		AspectRatio:   "original",
		MediaPosition: PositionLeft,
		MediaWidth:    DefaultMediaWidth,
		StackOnMobile: true,
		Align:         AlignNone,
	}
	if v == V1 {
		a.AspectRatio = "4:3"
	}
	return a
}

// Normalize returns a copy with bounded and enumerated fields brought into
// range. Unknown aspect ratios are left alone; the resolver maps them to
// the default at render time without losing the stored value.
func (a Attributes) Normalize() Attributes {
	a.MediaWidth = clampWidth(a.MediaWidth)
	if a.MediaPosition != PositionLeft && a.MediaPosition != PositionRight {
		a.MediaPosition = PositionLeft
	}
	if a.Align != AlignWide && a.Align != AlignFull {
		a.Align = AlignNone
	}
	return a
}

func clampWidth(w int) int {
	switch {
	case w < MinMediaWidth:
		return MinMediaWidth
	case w > MaxMediaWidth:
		return MaxMediaWidth
	default:
		return w
	}
}

// Get returns the value of the field with wire name name.
func (a Attributes) Get(name string) (any, bool) {
	switch name {
	case FieldImageID:
		return a.ImageID, true
	case FieldImageURL:
		return a.ImageURL, true
	case FieldImageAlt:
		return a.ImageAlt, true
	case FieldTitle:
		return a.Title, true
	case FieldBlurb:
		return a.Blurb, true
	case FieldLinkURL:
		return a.LinkURL, true
	case FieldButtonText:
		return a.ButtonText, true
	case FieldShowButton:
		return a.ShowButton, true
	case FieldEndDate:
		return a.EndDate, true
	case FieldAspectRatio:
		return a.AspectRatio, true
	case FieldMediaPosition:
		return a.MediaPosition, true
	case FieldMediaWidth:
		return a.MediaWidth, true
	case FieldStackOnMobile:
		return a.StackOnMobile, true
	case FieldAlign:
		return a.Align, true
	}
	return nil, false
}

// With returns a new snapshot with field name replaced by value. The value
// must match the field's kind: string for strings, bool for booleans and
// any Go number (or json.Number) for numbers. The result is normalized.
func (a Attributes) With(name string, value any) (Attributes, error) {
	f, ok := Lookup(name)
	if !ok {
		return a, fmt.Errorf("unknown attribute %q", name)
	}

	switch f.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return a, fmt.Errorf("attribute %q expects a string, got %T", name, value)
		}
		a.setString(name, s)
	case KindBoolean:
		b, ok := value.(bool)
		if !ok {
			return a, fmt.Errorf("attribute %q expects a boolean, got %T", name, value)
		}
		a.setBool(name, b)
	case KindNumber:
		n, ok := toInt(value)
		if !ok {
			return a, fmt.Errorf("attribute %q expects a number, got %T", name, value)
		}
		a.setInt(name, n)
	}
	return a.Normalize(), nil
}

// WithImage replaces the media fields together, as a media library
// selection does.
func (a Attributes) WithImage(id int, url, alt string) Attributes {
	a.ImageID = id
	a.ImageURL = url
	a.ImageAlt = alt
	return a
}

// WithoutImage clears the media fields.
func (a Attributes) WithoutImage() Attributes {
	return a.WithImage(0, "", "")
}

func (a *Attributes) setString(name, s string) {
	switch name {
	case FieldImageURL:
		a.ImageURL = s
	case FieldImageAlt:
		a.ImageAlt = s
	case FieldTitle:
		a.Title = s
	case FieldBlurb:
		a.Blurb = s
	case FieldLinkURL:
		a.LinkURL = s
	case FieldButtonText:
		a.ButtonText = s
	case FieldEndDate:
		a.EndDate = s
	case FieldAspectRatio:
		a.AspectRatio = s
	case FieldMediaPosition:
		a.MediaPosition = s
	case FieldAlign:
		a.Align = s
	}
}

func (a *Attributes) setBool(name string, b bool) {
	switch name {
	case FieldShowButton:
		a.ShowButton = b
	case FieldStackOnMobile:
		a.StackOnMobile = b
	}
}

func (a *Attributes) setInt(name string, n int) {
	switch name {
	case FieldImageID:
		a.ImageID = n
	case FieldMediaWidth:
		a.MediaWidth = n
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return roundInt(float64(n))
	case float64:
		return roundInt(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return roundInt(f)
	}
	return 0, false
}

func roundInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	f = math.Max(math.MinInt32, math.Min(math.MaxInt32, f))
	return int(math.Round(f)), true
}

// Diff returns the wire names of fields whose values differ between a and b.
func Diff(a, b Attributes) []string {
	var changed []string
	for _, f := range fields {
		av, _ := a.Get(f.Name)
		bv, _ := b.Get(f.Name)
		if av != bv {
			changed = append(changed, f.Name)
		}
	}
	return changed
}

// Equal reports whether two snapshots carry identical values.
func Equal(a, b Attributes) bool {
	return len(Diff(a, b)) == 0
}

// Names returns every wire name in the current schema.
func Names() []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

// IsField reports whether name is a wire name of the current schema.
func IsField(name string) bool {
	return slices.Contains(Names(), name)
}
