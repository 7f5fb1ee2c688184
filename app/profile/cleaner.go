package profile

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// placeholders are field values the site renders when a user left a field
// blank. They carry no information and are treated as empty.
var placeholders = map[string]bool{
	"not set": true,
	"no city": true,
	"n/a":     true,
	"none":    true,
	"-":       true,
}

// CleanText normalizes a raw field value: unicode NFC normalization,
// non-breaking spaces to plain spaces, whitespace collapsed, placeholder
// values dropped.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")

	if placeholders[strings.ToLower(s)] {
		return ""
	}

	return s
}
