package validation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDescription(t *testing.T) {
	assert.Equal(t, "NETFLIX.COM 4521", SanitizeDescription("  NETFLIX.COM 4521  "))
	assert.Equal(t, "SPOTIFY", SanitizeDescription("<script>alert(1)</script>SPOTIFY"))
	assert.Equal(t, "bold merchant", SanitizeDescription("<b>bold</b> merchant"))
	assert.Equal(t, "", SanitizeDescription(""))
}

func TestSanitizeDescriptionTruncation(t *testing.T) {
	long := strings.Repeat("A", 300)
	assert.Len(t, SanitizeDescription(long), maxDescriptionLength)

	// Multi-byte input must be cut on a rune boundary, never mid-rune.
	wide := strings.Repeat("Ä", 300) // two bytes per rune
	got := SanitizeDescription(wide)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxDescriptionLength, utf8.RuneCountInString(got))
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "alice", SanitizeUsername("  alice  "))
	assert.Equal(t, "alice", SanitizeUsername("<i>alice</i>"))
}
