package errors

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxPageIDLength bounds page identifiers.
const MaxPageIDLength = 128

// pageIDRegex matches page identifiers: slugs, numeric IDs and UUIDs.
var pageIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidatePageID validates a page identifier taken from a URL path. Page
// IDs name files in the file store, so the rules reject anything that
// could traverse directories:
//   - No empty IDs
//   - No control characters
//   - No path separators or ".." sequences
//   - Maximum length of 128 characters
func ValidatePageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "page id cannot be empty")
	}
	if len(id) > MaxPageIDLength {
		return New(ErrCodeInvalidID, "page id too long (max %d characters)", MaxPageIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "page id contains invalid control characters")
		}
	}
	if strings.Contains(id, "..") {
		return New(ErrCodeInvalidID, "page id cannot contain path traversal sequences (..)")
	}
	if !pageIDRegex.MatchString(id) {
		return New(ErrCodeInvalidID, "invalid page id: %q", id)
	}
	return nil
}

// ValidateBlockID validates a block identifier. Block IDs are UUIDs in
// canonical form.
func ValidateBlockID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "block id cannot be empty")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Wrap(ErrCodeInvalidID, err, "invalid block id: %q", id)
	}
	if parsed.String() != strings.ToLower(id) {
		return New(ErrCodeInvalidID, "block id must be a canonical UUID: %q", id)
	}
	return nil
}
