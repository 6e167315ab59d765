// Package htmlsanitize strips markup from user-supplied free text before it
// is stored.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText removes every HTML element from s, drops the contents of
// script and style elements, and returns the remaining text unescaped and
// trimmed. The result is plain text, not HTML: render it escaped.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
