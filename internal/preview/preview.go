// Package preview extracts the opening lines of a source file for display.
package preview

import (
	"strings"

	"codesearch/internal/cleaner"
)

// DefaultMaxLines is used when Extract is called with a non-positive line count.
const DefaultMaxLines = 15

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Extract returns the first maxLines lines of raw, skipping a leading license
// header comment. Formatting inside the kept lines is preserved.
func Extract(raw string, maxLines int) string {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	body := strings.TrimSpace(raw[cleaner.LeadingHeaderEnd(raw):])
	if body == "" {
		return ""
	}
	lines := strings.Split(lineBreaks.Replace(body), "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n")
}
