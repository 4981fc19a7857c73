package util

import "time"

// UTCDay truncates t to midnight of its UTC calendar day.
func UTCDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// LookbackWindow returns the [from, to] range covering the last days calendar days up to now, in UTC.
func LookbackWindow(now time.Time, days int) (time.Time, time.Time) {
	to := now.UTC()
	return to.AddDate(0, 0, -days), to
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return UTCDay(a).Equal(UTCDay(b))
}
