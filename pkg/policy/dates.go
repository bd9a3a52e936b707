package policy

import (
	"strings"
	"time"
)

// dateLayouts are tried in order when parsing unpublication dates; the
// first successful parse wins. Exports and the platform API disagree on
// formats, so ISO date, ISO datetime, US slash, and European dot forms are
// all accepted.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"01/02/2006 15:04:05",
	"02.01.2006",
	"02.01.2006 15:04:05",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// ParseDate parses a date string against the supported layouts. It returns
// the zero time and false for blank, "nan", or unparseable input.
func ParseDate(value string) (time.Time, bool) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || strings.EqualFold(cleaned, "nan") {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, cleaned); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DaysSince returns the number of whole days between the given date string
// and now, or nil when the date is missing or unparseable. A nil result
// makes the grace-period rule inapplicable.
func DaysSince(value string, now time.Time) *int {
	parsed, ok := ParseDate(value)
	if !ok {
		return nil
	}
	days := int(now.Sub(parsed).Hours() / 24)
	return &days
}
