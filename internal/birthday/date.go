package birthday

import (
	"strings"
	"time"
)

const (
	timestampLayout  = "2006-01-02 15:04:05"
	reportDateLayout = "02 January, 2006"
	dateLayout       = "2006-01-02"
)

// SameDay reports whether a and b fall on the same calendar day (day, month and year),
// evaluated in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Day() == b.Day() && a.Month() == b.Month() && a.Year() == b.Year()
}

// SameDayOfYear compares day-of-month and month only. Birthdays recur every year.
func SameDayOfYear(a, b time.Time) bool {
	return a.Day() == b.Day() && a.Month() == b.Month()
}

// ParseDate parses a stored date value. Date-only values are taken as a calendar day in loc;
// timestamps are converted to loc first so a midnight stored in UTC lands on the local day.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.ParseInLocation(dateLayout, value, loc); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.In(loc), true
	}
	if t, err := time.ParseInLocation(timestampLayout, value, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ParseTargetDate parses a YYYY-MM-DD override into the start of that day in loc.
func ParseTargetDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
}

// FormatTimestamp renders t the way run log lines print it.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// FormatReportDate renders the target date for report headings, e.g. "15 March, 2024".
func FormatReportDate(t time.Time) string {
	return t.Format(reportDateLayout)
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
