package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Provider descriptions are free text and end up rendered to users, so
// they pass through a strict HTML policy before anything else sees them.
var strictPolicy = bluemonday.StrictPolicy()

const maxDescriptionLength = 256

// SanitizeDescription strips any markup from a transaction description
// and bounds its length. The bound counts runes, not bytes, so a
// multi-byte description is never cut mid-rune.
func SanitizeDescription(raw string) string {
	clean := strings.TrimSpace(strictPolicy.Sanitize(raw))
	if utf8.RuneCountInString(clean) > maxDescriptionLength {
		clean = string([]rune(clean)[:maxDescriptionLength])
	}
	return clean
}

// SanitizeUsername applies the same strict policy to user-supplied
// identifiers.
func SanitizeUsername(raw string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(raw))
}
