// Package normalize cleans user-entered strings before they are stored or
// compared.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Address trims an address line and collapses whitespace, so that
// "  12   Main St " and "12 Main St" geocode identically.
func Address(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
