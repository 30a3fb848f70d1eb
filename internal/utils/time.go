package utils

import (
	"strings"
	"time"
)

const layoutDate = "2006-01-02"

// ParseDate parses YYYY-MM-DD in local timezone. Longer ISO strings are cut
// to their date part first.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "T"); i > 0 {
		s = s[:i]
	}
	return time.ParseInLocation(layoutDate, s, time.Local)
}

// FormatDate formats time to YYYY-MM-DD in local timezone.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(layoutDate)
}

// CompareDay compares the calendar day of date with the day of now:
// -1 past, 0 same day, 1 future.
func CompareDay(date, now time.Time) int {
	d := FormatDate(date)
	n := FormatDate(now)
	switch {
	case d < n:
		return -1
	case d > n:
		return 1
	default:
		return 0
	}
}
