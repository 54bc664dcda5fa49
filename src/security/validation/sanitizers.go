package validation

import (
	"strings"
	"unicode"
)

// StripUnprintable removes non-printable characters from imported text
// fields, keeping common whitespace. Brokerage exports occasionally embed
// control characters in description cells.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
