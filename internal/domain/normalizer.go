package domain

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	joinedWords   = regexp.MustCompile(`([a-z])([A-Z])`)
	nonASCII      = regexp.MustCompile(`[^\x00-\x7F]+`)
)

// NormalizeText cleans raw indexed text: runs of whitespace collapse to a
// single space, words joined across a removed line break are split apart, and
// characters outside 7-bit ASCII are stripped.
//
// The joined-word repair inserts a space at every lowercase-uppercase
// boundary. That also splits legitimate camel-case identifiers such as
// product names; acceptable for prose-heavy financial documents.
func NormalizeText(raw string) string {
	text := strings.TrimSpace(whitespaceRun.ReplaceAllString(raw, " "))
	text = joinedWords.ReplaceAllString(text, "$1 $2")
	text = nonASCII.ReplaceAllString(text, "")
	// Stripping can leave a double space where a non-ASCII run sat between
	// two spaces; collapse once more so the result is always single-spaced.
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
