// Package normalize trims and canonicalizes user-supplied values before they
// are stored or compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Username trims a username. Case is preserved for display.
func Username(s string) string {
	return strings.TrimSpace(s)
}

// UsernameKey is the case/diacritic-folded form used for uniqueness.
func UsernameKey(s string) string {
	return text.Fold(Username(s))
}

// Course trims a course label and collapses inner whitespace so that
// "Computer  Science" and "Computer Science" land in the same filter bucket.
func Course(s string) string {
	return Name(s)
}

// QueryParam trims a raw query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
