// Package render turns event block attributes into HTML.
//
// # Overview
//
// Rendering happens in two steps. [Build] evaluates the attributes once into
// a [Card]: the past-event decision, the sanitized link and image URLs, the
// media padding, the grid template and the call-to-action gating. A Card
// then renders in one of two modes from the same template:
//
//   - [ModePublish]: the markup embedded in published pages
//   - [ModePreview]: the editing-surface markup, which adds the past notice
//
// Because both modes share the Card and the template, their conditional
// sections always agree; [Card.Sections] exposes them for comparison.
//
//	card := render.Build(attrs, render.Options{Location: loc})
//	err := render.Publish(w, card)
//
// # Escaping
//
// Title, alt text and button text are plain text and escaped once by the
// template. The blurb is limited HTML filtered by [BlurbPolicy]. Link and
// image URLs pass through [SafeURL], which rejects scripting schemes.
package render
