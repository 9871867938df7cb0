package util

import "time"

// TruncateToDay normalizes a timestamp to midnight in its own location
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns whole days from a to b, zero when b is not after a
func DaysBetween(a, b time.Time) int {
	a = TruncateToDay(a)
	b = TruncateToDay(b)
	if !b.After(a) {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

// NextNonSunday advances the date forward until it no longer falls on a Sunday
func NextNonSunday(t time.Time) time.Time {
	for t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, 1)
	}
	return t
}
