// Package normalize prepares free text for equality matching.
//
// The same functions run at write time and at query time, so a query for
// "Harare " matches a stored "harare".
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	lower = cases.Lower(language.Und)
	upper = cases.Upper(language.Und)
)

// Text trims surrounding whitespace, composes to NFC and lower-cases s.
// Used for identity and location fields.
func Text(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return lower.String(norm.NFC.String(s))
}

// Key upper-cases s and removes all whitespace. Used for case-sensitive unique
// numbers (passport, licence, national ID) so "fn 123456" and "FN123456" agree.
func Key(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return upper.String(norm.NFC.String(s))
}

// Display trims s but keeps its casing. Used for docLocation, which is shown
// to claimants as entered and compared through Text.
func Display(s string) string {
	return strings.TrimSpace(s)
}

// Equal compares two free-text values after Text normalization.
func Equal(a, b string) bool {
	return Text(a) == Text(b)
}
