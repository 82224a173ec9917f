// Package sanitize cleans user-provided free text before storage.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
)

// entityReplacer decodes the handful of entities web forms produce.
var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

// Text strips HTML tags and collapses runs of spaces. Intake fields like
// lead names and notes arrive from web forms and chat channels; stored
// values are plain text only.
func Text(s string) string {
	clean := tagPattern.ReplaceAllString(s, "")
	clean = entityReplacer.Replace(clean)
	// Entities can decode into new tags; strip once more.
	clean = tagPattern.ReplaceAllString(clean, "")
	clean = whitespacePattern.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// TextPtr applies Text through an optional pointer, preserving nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := Text(*s)
	return &clean
}
