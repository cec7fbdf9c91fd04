// Package timezone computes calendar-day boundaries in a user's own timezone.
//
// Every day comparison in the review service goes through these helpers, so
// "today", "overdue" and "the day an item is due" always mean the learner's
// local calendar day, including across daylight-saving transitions.
package timezone

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar-date layout used for day keys
const DateLayout = "2006-01-02"

// ParseTimezone parses an IANA timezone identifier (e.g., "Europe/Berlin").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// StartOfDay returns local midnight of t's day in tz.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = time.UTC
	}
	lt := t.In(tz)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, tz)
}

// EndOfDay returns the last nanosecond of t's day in tz.
func EndOfDay(t time.Time, tz *time.Location) time.Time {
	return AddDays(StartOfDay(t, tz), 1).Add(-time.Nanosecond)
}

// AddDays moves a local midnight by n calendar days. Days that are 23 or 25
// hours long (DST changes) still land on midnight.
func AddDays(day time.Time, n int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+n, 0, 0, 0, 0, day.Location())
}

// AtHour returns hour:00 on the calendar day of day.
func AtHour(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, day.Location())
}

// DateKey formats the local calendar date of t in tz.
func DateKey(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = time.UTC
	}
	return t.In(tz).Format(DateLayout)
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time, tz *time.Location) bool {
	return DateKey(a, tz) == DateKey(b, tz)
}

// ParseDate parses a YYYY-MM-DD date as local midnight in tz.
func ParseDate(s string, tz *time.Location) (time.Time, error) {
	if tz == nil {
		tz = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
