// Package aspect resolves aspect-ratio labels to the vertical padding
// percentages used to reserve image space before the image loads.
//
// The image wrapper is given a zero height and a padding-bottom equal to
// height/width as a percentage of its width, so the box keeps its shape
// while the image is still loading:
//
//	padding, fixed := aspect.Resolve("16:9")  // 56.25, true
//	padding, fixed = aspect.Resolve("original") // 0, false
//
// Unknown keys resolve to the 4:3 default.
package aspect

import "strconv"

// Ratio keys understood by the block.
const (
	Original      = "original"
	Square        = "1:1"
	Standard      = "4:3"
	Portrait      = "3:4"
	Classic       = "3:2"
	ClassicTall   = "2:3"
	Wide          = "16:9"
	Tall          = "9:16"
	DefaultKey    = Standard
	DefaultRatio  = 75.0
	formatDecimal = 2
)

// Option is a selectable ratio for editing controls.
type Option struct {
	Key   string `json:"value"`
	Label string `json:"label"`
}

// paddings holds the padding percentage per key. A zero value means the
// image keeps its natural proportions.
var paddings = map[string]float64{
	Original:    0,
	Square:      100,
	Standard:    75,
	Portrait:    133.33,
	Classic:     66.67,
	ClassicTall: 150,
	Wide:        56.25,
	Tall:        177.78,
}

var options = []Option{
	{Key: Original, Label: "Original"},
	{Key: Square, Label: "Square - 1:1"},
	{Key: Standard, Label: "Standard - 4:3"},
	{Key: Portrait, Label: "Portrait - 3:4"},
	{Key: Classic, Label: "Classic - 3:2"},
	{Key: ClassicTall, Label: "Classic Portrait - 2:3"},
	{Key: Wide, Label: "Wide - 16:9"},
	{Key: Tall, Label: "Tall - 9:16"},
}

// Resolve returns the padding percentage for key. fixed is false when the
// key asks for the image's natural proportions. Unknown and empty keys
// resolve to the 4:3 default.
func Resolve(key string) (padding float64, fixed bool) {
	p, ok := paddings[key]
	if !ok {
		return DefaultRatio, true
	}
	if p == 0 {
		return 0, false
	}
	return p, true
}

// Placeholder returns the padding used when no image is selected. An empty
// box has no natural proportions, so "original" falls back to the default.
func Placeholder(key string) float64 {
	if p, fixed := Resolve(key); fixed {
		return p
	}
	return DefaultRatio
}

// Valid reports whether key is one of the known ratio keys.
func Valid(key string) bool {
	_, ok := paddings[key]
	return ok
}

// Options returns the ratio choices in display order.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Keys returns the ratio keys in display order.
func Keys() []string {
	keys := make([]string, len(options))
	for i, o := range options {
		keys[i] = o.Key
	}
	return keys
}

// Format renders a padding percentage for CSS without trailing zeros,
// e.g. 75 -> "75", 56.25 -> "56.25".
func Format(padding float64) string {
	s := strconv.FormatFloat(padding, 'f', formatDecimal, 64)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
