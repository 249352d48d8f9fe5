package aspect

import "testing"

func TestResolveKnownKeys(t *testing.T) {
	tests := []struct {
		key       string
		want      float64
		wantFixed bool
	}{
		{"original", 0, false},
		{"1:1", 100, true},
		{"4:3", 75, true},
		{"3:4", 133.33, true},
		{"3:2", 66.67, true},
		{"2:3", 150, true},
		{"16:9", 56.25, true},
		{"9:16", 177.78, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, fixed := Resolve(tt.key)
			if got != tt.want || fixed != tt.wantFixed {
				t.Errorf("Resolve(%q) = (%v, %v), want (%v, %v)", tt.key, got, fixed, tt.want, tt.wantFixed)
			}
		})
	}
}

func TestResolveUnknownFallsBackToStandard(t *testing.T) {
	for _, key := range []string{"", "5:4", "ORIGINAL", "16x9", " 4:3", "wide"} {
		got, fixed := Resolve(key)
		if got != 75 || !fixed {
			t.Errorf("Resolve(%q) = (%v, %v), want (75, true)", key, got, fixed)
		}
	}
}

func TestPlaceholder(t *testing.T) {
	tests := []struct {
		key  string
		want float64
	}{
		{"original", 75},
		{"16:9", 56.25},
		{"bogus", 75},
		{"9:16", 177.78},
	}
	for _, tt := range tests {
		if got := Placeholder(tt.key); got != tt.want {
			t.Errorf("Placeholder(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestOptionsMatchKeys(t *testing.T) {
	opts := Options()
	if len(opts) != 8 {
		t.Fatalf("Options() returned %d entries, want 8", len(opts))
	}
	for _, o := range opts {
		if !Valid(o.Key) {
			t.Errorf("option %q is not a valid key", o.Key)
		}
	}
	if opts[0].Key != Original {
		t.Errorf("first option = %q, want %q", opts[0].Key, Original)
	}

	// Mutating the copy must not leak into the package table.
	opts[0].Key = "mutated"
	if Options()[0].Key != Original {
		t.Error("Options() should return a copy")
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{75, "75"},
		{56.25, "56.25"},
		{133.33, "133.33"},
		{66.67, "66.67"},
		{100, "100"},
		{150, "150"},
		{177.78, "177.78"},
		{12.5, "12.5"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
