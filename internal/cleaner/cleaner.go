// Package cleaner turns raw source text into dense text for embedding.
// License and integrity banners inside block comments are dropped, every
// other comment is kept because it usually describes what the code does.
package cleaner

import (
	"regexp"
	"strings"
)

// BoilerplateMarkers are matched case-insensitively against block comment text.
// Any comment containing one of them is treated as a license header.
var BoilerplateMarkers = []string{
	"COPYRIGHT",
	"ACADEMIC INTEGRITY",
	"RIGHTS RESERVED",
	"LICENSE",
	"DO NOT COPY",
}

var (
	// An unterminated comment runs to the end of the text.
	blockCommentRe   = regexp.MustCompile(`(?s)/\*.*?(?:\*/|\z)`)
	leadingCommentRe = regexp.MustCompile(`(?s)\A\s*/\*.*?(?:\*/|\z)`)
)

// IsBoilerplate reports whether text contains one of the boilerplate markers.
// Plain substring matching: a comment that merely talks about licenses counts too.
func IsBoilerplate(text string) bool {
	upper := strings.ToUpper(text)
	for _, marker := range BoilerplateMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// StripBoilerplate removes block comments that look like license headers and
// leaves the rest of the text untouched.
func StripBoilerplate(text string) string {
	return blockCommentRe.ReplaceAllStringFunc(text, func(comment string) string {
		if IsBoilerplate(comment) {
			return ""
		}
		return comment
	})
}

// Normalize strips boilerplate comments and collapses all whitespace runs to
// single spaces. The result is meant for embedding only, never for display.
func Normalize(text string) string {
	return strings.Join(strings.Fields(StripBoilerplate(text)), " ")
}

// LeadingHeaderEnd returns the offset just past a boilerplate block comment at
// the start of text (after optional whitespace), or 0 if there is none.
func LeadingHeaderEnd(text string) int {
	loc := leadingCommentRe.FindStringIndex(text)
	if loc == nil {
		return 0
	}
	if !IsBoilerplate(text[loc[0]:loc[1]]) {
		return 0
	}
	return loc[1]
}
