// Package block defines the attribute schema of the castle event block.
//
// # Attributes
//
// [Attributes] is the flat record persisted with page content and shared by
// the publish and preview render paths. Every field has a default, so an
// empty attribute set still renders a placeholder block.
//
// # Versions
//
// Two schema versions exist. [V1] carries the image, text, link, end date,
// aspect ratio (default "4:3") and host alignment. [V2] adds the media
// layout model (mediaPosition, mediaWidth, stackOnMobile) and defaults the
// aspect ratio to "original". Evolution is additive: [Decode] accepts
// documents of either version and [Migrate] upgrades V1 content by writing
// out the defaults it relied on.
//
//	a, from, err := block.Decode(data)   // always a V2 snapshot
//	out, err := block.Encode(a)          // {"version":2, ...every field}
//
// # Edits
//
// Attributes is a value type. Editing surfaces replace one field at a time
// with [Attributes.With], which returns a new normalized snapshot:
//
//	a, err = a.With(block.FieldMediaWidth, 40)
package block
