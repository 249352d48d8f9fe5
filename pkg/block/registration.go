package block

// Name is the block type name hosts register the block under.
const Name = "castle/event-block"

// Registration is the document a host uses to register the block type: its
// identity, editor metadata, host supports and the attribute schema.
type Registration struct {
	Name        string                   `json:"name"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Category    string                   `json:"category"`
	Icon        string                   `json:"icon"`
	Keywords    []string                 `json:"keywords"`
	Version     Version                  `json:"version"`
	Supports    Supports                 `json:"supports"`
	Attributes  map[string]AttributeSpec `json:"attributes"`
}

// Supports lists host features the block opts into.
type Supports struct {
	HTML  bool     `json:"html"`
	Align []string `json:"align"`
}

// AttributeSpec declares one attribute in the registration document.
type AttributeSpec struct {
	Type    Kind     `json:"type"`
	Default any      `json:"default"`
	Enum    []string `json:"enum,omitempty"`
	Minimum *int     `json:"minimum,omitempty"`
	Maximum *int     `json:"maximum,omitempty"`
}

// Register builds the registration document for schema version v.
func Register(v Version) Registration {
	if !v.Valid() {
		v = Current
	}
	attrs := make(map[string]AttributeSpec)
	for _, f := range Fields(v) {
		if f.Name == FieldAlign {
			// Alignment is a host support, not a declared attribute.
			continue
		}
		spec := AttributeSpec{
			Type:    f.Kind,
			Default: Default(f.Name, v),
			Enum:    f.Enum,
		}
		if f.Min != 0 || f.Max != 0 {
			minV, maxV := f.Min, f.Max
			spec.Minimum = &minV
			spec.Maximum = &maxV
		}
		attrs[f.Name] = spec
	}

	return Registration{
		Name:        Name,
		Title:       "Castle Event",
		Description: "Highlight a special event at the castle with image, title, description, and link.",
		Category:    "common",
		Icon:        "calendar-alt",
		Keywords:    []string{"event", "exhibit", "castle"},
		Version:     v,
		Supports: Supports{
			HTML:  false,
			Align: []string{AlignWide, AlignFull},
		},
		Attributes: attrs,
	}
}
