// Package period derives calendar period keys from transaction dates.
// Periods are derived values, never stored: a period label together with a
// store id identifies one analysis scope.
package period

import (
	"fmt"
	"strings"
	"time"
)

// Granularity selects the calendar bucket records are grouped into.
type Granularity string

const (
	Daily   Granularity = "day"
	Weekly  Granularity = "week"
	Monthly Granularity = "month"
)

// ParseGranularity validates a granularity string from config or CLI flags.
// Both the noun and adjective spellings are accepted, since config files
// use "daily"/"weekly"/"monthly" while the internal keys are the nouns.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Daily, nil
	case "week", "weekly":
		return Weekly, nil
	case "month", "monthly":
		return Monthly, nil
	}
	return "", fmt.Errorf("invalid granularity %q (must be daily, weekly or monthly)", s)
}

// dateLayouts are tried in order when parsing transaction dates.
// The export uses day-first formats; the ISO layout covers re-exported files.
var dateLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
}

// ParseDate parses a transaction date cell under the day-first convention.
// An unparseable date excludes the record from analysis.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// Label formats the period key for a date at the given granularity.
// Labels are ISO-like and sort chronologically as plain strings:
// "2024-03-07" (day), "2024-W10" (ISO week), "2024-03" (month).
func Label(t time.Time, g Granularity) string {
	switch g {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	default:
		return t.Format("2006-01")
	}
}

// monthNames indexes English month names for prompt-facing labels.
var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// DisplayName converts a period label into a human-readable form for
// prompts: "2024-03" becomes "March/2024". Day and week labels are already
// readable and pass through unchanged.
func DisplayName(label string) string {
	parts := strings.SplitN(label, "-", 2)
	if len(parts) != 2 || len(parts[1]) != 2 {
		return label
	}
	var m int
	if _, err := fmt.Sscanf(parts[1], "%02d", &m); err != nil || m < 1 || m > 12 {
		return label
	}
	return fmt.Sprintf("%s/%s", monthNames[m-1], parts[0])
}

// MonthOf extracts the two-digit month ("01".."12") from a period label,
// used to key the seasonal calendar. Returns "" when the label carries no
// month component (weekly labels).
func MonthOf(label string) string {
	parts := strings.Split(label, "-")
	if len(parts) < 2 {
		return ""
	}
	m := parts[1]
	if len(m) != 2 || strings.HasPrefix(m, "W") {
		return ""
	}
	return m
}
