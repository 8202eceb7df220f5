package normalize

import (
	"strings"
	"time"
)

const (
	// NotSet is rendered for a missing date or time.
	NotSet = "Not set"

	isoDate     = "2006-01-02"
	wallClock   = "15:04"
	displayDate = "Jan 02, 2006"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	isoDate,
}

var clockLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
	"3:04PM",
	"03:04 PM",
}

// parseTimestamp accepts the timestamp strings seen from the backends, epoch
// milliseconds, and time.Time. Strings without an offset are read as UTC.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	}
	if ms, ok := asFloat(v); ok && ms > 0 {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

// placeholder reports values a previous normalization pass wrote in place of
// a missing date or time.
func placeholder(s string) bool {
	return s == "" || strings.EqualFold(s, NotSet) || strings.EqualFold(s, "N/A")
}

// canonicalDate keeps the calendar date of a parseable date string in its own
// offset. Unparseable non-empty strings are kept verbatim.
func canonicalDate(s string) string {
	if placeholder(s) {
		return ""
	}
	if ts, ok := parseTimestamp(s); ok {
		return ts.Format(isoDate)
	}
	return s
}

func canonicalTime(s string) string {
	if placeholder(s) {
		return ""
	}
	upper := strings.ToUpper(s)
	for _, layout := range clockLayouts {
		if ts, err := time.Parse(layout, upper); err == nil {
			return ts.Format(wallClock)
		}
	}
	if ts, ok := parseTimestamp(s); ok {
		return ts.Format(wallClock)
	}
	return s
}

// FormatDisplayDate renders a canonical date for screens.
func FormatDisplayDate(date string) string {
	if date == "" {
		return NotSet
	}
	if ts, err := time.Parse(isoDate, date); err == nil {
		return ts.Format(displayDate)
	}
	return date
}
