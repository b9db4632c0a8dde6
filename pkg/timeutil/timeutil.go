// Package timeutil provides timezone and challenge-day utilities.
// The community operates in Beijing time (UTC+8, no DST); all calendar-date
// logic (check-in days, milestone offsets) is anchored to that zone.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// CommunityTZ is the community timezone (UTC+8, no DST).
var CommunityTZ = time.FixedZone("Asia/Shanghai", 8*60*60)

// Now returns the current time in the community timezone.
func Now() time.Time {
	return time.Now().In(CommunityTZ)
}

// ToCommunity converts a time to the community timezone.
func ToCommunity(t time.Time) time.Time {
	return t.In(CommunityTZ)
}

// DateOf truncates a time to its calendar date (midnight) in the community
// timezone. Check-in uniqueness is defined on this value.
func DateOf(t time.Time) time.Time {
	c := ToCommunity(t)
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, CommunityTZ)
}

// SameDay reports whether two times fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return DateOf(a).Equal(DateOf(b))
}

// DayNumber returns the 1-based challenge day for now given the period start:
// the start date itself is day 1.
func DayNumber(start, now time.Time) int {
	days := int(DateOf(now).Sub(DateOf(start)) / (24 * time.Hour))
	return days + 1
}

// InDailyWindow reports whether t falls inside the daily window beginning at
// hour:minute and lasting for the given number of minutes.
func InDailyWindow(t time.Time, hour, minute, windowMinutes int) bool {
	c := ToCommunity(t)
	open := time.Date(c.Year(), c.Month(), c.Day(), hour, minute, 0, 0, CommunityTZ)
	return !c.Before(open) && c.Before(open.Add(time.Duration(windowMinutes)*time.Minute))
}

// FormatDate formats a time as YYYY-MM-DD in the community timezone.
func FormatDate(t time.Time) string {
	return ToCommunity(t).Format("2006-01-02")
}

// FormatMonth formats a time as YYYY-MM in the community timezone.
// Period names are derived from this value.
func FormatMonth(t time.Time) string {
	return ToCommunity(t).Format("2006-01")
}
