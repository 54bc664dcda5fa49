package processors

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/username/tradejournal/src/models"
)

// Option contract descriptions follow a fixed export form, e.g.
// "AAPL 01/19/2024 Call $150.00". Month and day may come unpadded, like the
// activity date column.
var optionDescriptionRe = regexp.MustCompile(`^([A-Z][A-Z0-9.]*)\s+(\d{1,2}/\d{1,2}/\d{4})\s+(Call|Put)\s+\$([0-9]+(?:\.[0-9]+)?)$`)

// ParseOptionDescription extracts the contract details from a description.
// A description that does not match the export form yields the zero value and
// false; it never fails the pipeline.
func ParseOptionDescription(description string) (models.OptionDetails, bool) {
	matches := optionDescriptionRe.FindStringSubmatch(strings.TrimSpace(description))
	if matches == nil {
		return models.OptionDetails{}, false
	}

	strike, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return models.OptionDetails{}, false
	}

	return models.OptionDetails{
		Ticker:     matches[1],
		Expiration: matches[2],
		OptionType: matches[3],
		Strike:     strike,
	}, true
}
