// Package normalize holds the pure text and date helpers shared by the
// reference cache, the response normalizer and the search orchestrator.
package normalize

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used by the upstream portal and by
// the public API.
const DateLayout = "2006-01-02"

// DefaultWindow is the look-back applied when a search omits its from date.
const DefaultWindow = 30 * 24 * time.Hour

// MinSearchValueLength is the shortest trimmed search value accepted.
const MinSearchValueLength = 2

// CleanText trims s and collapses every run of whitespace into a single space.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// DefaultDateRange returns the (today-30d, today) window for the calendar day
// of now in its own location.
func DefaultDateRange(now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, -30), today
}

// FormatDate renders t as YYYY-MM-DD. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// StateName is the lookup key for state names.
func StateName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CommissionName is the lookup key for commission names. Comparison against
// it is case-insensitive at the call site.
func CommissionName(s string) string {
	return strings.TrimSpace(s)
}

// ValidSearchValue reports whether s is long enough to send upstream.
func ValidSearchValue(s string) bool {
	return len([]rune(strings.TrimSpace(s))) >= MinSearchValueLength
}
