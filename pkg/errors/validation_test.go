package errors

import (
	"strings"
	"testing"
)

func TestValidatePageID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"slug", "summer-fair", false},
		{"numeric", "42", false},
		{"dotted", "events.2026", false},
		{"uuid", "3f2b8c4e-6a1d-4f7e-9c2a-1b5d8e0f7a63", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"traversal", "a..b", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"leading dot", ".hidden", true},
		{"null byte", "a\x00b", true},
		{"newline", "a\nb", true},
		{"space", "a b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePageID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePageID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("ValidatePageID(%q) code = %v", tt.input, GetCode(err))
			}
		})
	}
}

func TestValidateBlockID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"canonical", "3f2b8c4e-6a1d-4f7e-9c2a-1b5d8e0f7a63", false},
		{"upper case", "3F2B8C4E-6A1D-4F7E-9C2A-1B5D8E0F7A63", false},

		{"empty", "", true},
		{"not a uuid", "joust", true},
		{"braced", "{3f2b8c4e-6a1d-4f7e-9c2a-1b5d8e0f7a63}", true},
		{"urn", "urn:uuid:3f2b8c4e-6a1d-4f7e-9c2a-1b5d8e0f7a63", true},
		{"no dashes", "3f2b8c4e6a1d4f7e9c2a1b5d8e0f7a63", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBlockID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBlockID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
