package utils

import (
	"log"
	"time"
)

// Brokerage activity exports carry dates as MM/DD/YYYY, occasionally without
// zero padding.
var activityDateFormats = []string{
	"01/02/2006",
	"1/2/2006",
}

const DefaultDateFormat = "01/02/2006"

// ParseActivityDate parses an activity date string, accepting both padded and
// unpadded month/day forms. Returns zero time and false if no format matches.
func ParseActivityDate(dateStr string) (time.Time, bool) {
	for _, format := range activityDateFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses a date string using the default format.
// Logs an error and returns zero time if parsing fails.
func ParseDate(dateStr string) time.Time {
	t, ok := ParseActivityDate(dateStr)
	if !ok {
		log.Printf("Error parsing date '%s'. Returning zero time.", dateStr)
		return time.Time{}
	}
	return t
}

// HoldingDays returns the whole number of days between open and close.
func HoldingDays(openDate, closeDate time.Time) int {
	return int(closeDate.Sub(openDate).Hours() / 24)
}
