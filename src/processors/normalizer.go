package processors

import (
	"strconv"
	"strings"
)

// ParseCurrencyOrZero parses a brokerage currency string into a float64.
// It strips the dollar sign and thousands separators and converts the
// parenthetical negative notation "(123.45)" into -123.45.
//
// Malformed input degrades to 0.0 instead of failing: one bad cell must not
// abort a whole import. Callers that care can pre-validate.
func ParseCurrencyOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0.0
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	if negative {
		return -val
	}
	return val
}

// ParseQuantityOrZero coerces an exported quantity cell to a number, with the
// same silent zero fallback as ParseCurrencyOrZero. Quantities are exported
// positive; the transaction code carries the direction.
func ParseQuantityOrZero(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return val
}
