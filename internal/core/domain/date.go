package domain

import (
	"strings"
	"time"
)

// calendarHour is the UTC hour at which date-only values are stored. Midday
// keeps the calendar day stable when rendered in any timezone within ±11h.
const calendarHour = 12

const dayLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	dayLayout,
}

// ParseCalendarDate parses a date or timestamp string and returns the calendar
// day as written (the offset in the string is not applied) at the canonical
// storage instant.
func ParseCalendarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CalendarDate(t), nil
		}
	}
	return time.Time{}, Invalid("", "invalid date "+quote(s)+", expected YYYY-MM-DD")
}

// CalendarDate returns t's calendar day (in t's own location) at 12:00 UTC.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, calendarHour, 0, 0, 0, time.UTC)
}

// CalendarDay formats the UTC calendar day of t as YYYY-MM-DD.
func CalendarDay(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// StartOfDay returns 00:00:00.000 UTC of day's calendar day.
func StartOfDay(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59.999 UTC of day's calendar day, so range filters
// ending on a date include the whole day.
func EndOfDay(day time.Time) time.Time {
	return StartOfDay(day).Add(24*time.Hour - time.Millisecond)
}

func quote(s string) string {
	return `"` + s + `"`
}
