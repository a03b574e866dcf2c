// Package weeks normalises timestamps to ISO week starts. Every week-keyed
// row uses the UTC Monday returned by MondayOf.
package weeks

import "time"

const Week = 7 * 24 * time.Hour

// MondayOf returns 00:00 UTC on the Monday of the ISO week containing t.
func MondayOf(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// Add moves week by n weeks.
func Add(week time.Time, n int) time.Time {
	return week.AddDate(0, 0, 7*n)
}

// Window returns the n consecutive week starts ending at end, oldest first.
func Window(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	end = MondayOf(end)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = Add(end, i-(n-1))
	}
	return out
}

// Consecutive reports whether b is exactly one week after a.
func Consecutive(a, b time.Time) bool {
	return b.Sub(a) == Week
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Days returns the n calendar days ending at end, oldest first.
func Days(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	end = Day(end)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = end.AddDate(0, 0, i-(n-1))
	}
	return out
}

func Format(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
