// Package calendar implements the working-day arithmetic behind the board's
// rows. A working day is Monday to Friday; weekends never appear on the grid.
package calendar

import (
	"fmt"
	"time"
)

// Truncate drops the clock part of t and returns the calendar day at midnight UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsWorkday reports whether t falls on Monday to Friday.
func IsWorkday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextWorkday returns t itself when it is a working day, otherwise the following Monday.
func NextWorkday(t time.Time) time.Time {
	for !IsWorkday(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AddWorkdays advances t by n working days, skipping weekends.
// A zero or negative n returns t unchanged.
func AddWorkdays(t time.Time, n int) time.Time {
	for i := 0; i < n; i++ {
		t = t.AddDate(0, 0, 1)
		for !IsWorkday(t) {
			t = t.AddDate(0, 0, 1)
		}
	}
	return t
}

// WorkdaysBetween counts the working days crossed when walking from one date to
// the other, one calendar day at a time. The result is positive when from is
// before to and negative otherwise.
func WorkdaysBetween(from, to time.Time) int {
	from, to = Truncate(from), Truncate(to)
	step := 1
	if to.Before(from) {
		step = -1
	}
	delta := 0
	for !from.Equal(to) {
		if IsWorkday(from) {
			delta += step
		}
		from = from.AddDate(0, 0, step)
	}
	return delta
}

// Workdays lists every working day in [first, end).
func Workdays(first, end time.Time) []time.Time {
	first, end = Truncate(first), Truncate(end)
	var days []time.Time
	for d := first; d.Before(end); d = d.AddDate(0, 0, 1) {
		if IsWorkday(d) {
			days = append(days, d)
		}
	}
	return days
}

// Format renders a date with the configured layout.
func Format(t time.Time, layout string) string {
	return t.Format(layout)
}

// Parse reads a date written with the configured layout.
func Parse(s, layout string) (time.Time, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return Truncate(t), nil
}
