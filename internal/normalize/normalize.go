// Package normalize provides text normalization used for matching and file naming.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any run of characters that are not lowercase ASCII letters, digits, dot or underscore.
	unsafeFileChars = regexp.MustCompile(`[^a-z0-9._]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Fold returns a case-folded, compatibility-normalized form of s for
// case-insensitive comparison. "Straße" and "STRASSE" fold to the same string.
func Fold(s string) string {
	// Casers keep state, so one is built per call.
	return cases.Fold().String(norm.NFKC.String(s))
}

// FileName converts a display name into a safe file name stem.
// "Alice" -> "alice", "José Saramago" -> "jose-saramago", "../etc" -> "etc".
// Returns an empty string when nothing usable remains.
func FileName(s string) string {
	// Decompose accented characters so the base letter survives.
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = unsafeFileChars.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")

	return strings.Trim(s, "-.")
}
