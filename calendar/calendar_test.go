package calendar

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddWorkdays(t *testing.T) {
	monday := day(2026, time.January, 5)
	friday := day(2026, time.January, 9)
	saturday := day(2026, time.January, 10)

	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"zero is a no-op", monday, 0, monday},
		{"zero keeps a weekend date", saturday, 0, saturday},
		{"within the week", monday, 3, day(2026, time.January, 8)},
		{"friday plus one is monday", friday, 1, day(2026, time.January, 12)},
		{"saturday plus one is monday", saturday, 1, day(2026, time.January, 12)},
		{"two weeks", monday, 10, day(2026, time.January, 19)},
		{"negative is ignored", monday, -2, monday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddWorkdays(tt.start, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("Expected %s, got %s", tt.want.Format(time.DateOnly), got.Format(time.DateOnly))
			}
		})
	}
}

func TestWorkdaysBetween(t *testing.T) {
	monday := day(2026, time.January, 5)
	thursday := day(2026, time.January, 8)
	nextMonday := day(2026, time.January, 12)

	if got := WorkdaysBetween(monday, thursday); got != 3 {
		t.Errorf("Expected 3, got %d", got)
	}
	if got := WorkdaysBetween(thursday, monday); got != -3 {
		t.Errorf("Expected -3, got %d", got)
	}
	if got := WorkdaysBetween(monday, nextMonday); got != 5 {
		t.Errorf("Expected 5, got %d", got)
	}
	if got := WorkdaysBetween(monday, monday); got != 0 {
		t.Errorf("Expected 0, got %d", got)
	}
}

func TestWorkdaysSkipsWeekends(t *testing.T) {
	days := Workdays(day(2026, time.January, 2), day(2026, time.January, 13))
	if len(days) != 7 {
		t.Fatalf("Expected 7 working days, got %d", len(days))
	}
	for _, d := range days {
		if !IsWorkday(d) {
			t.Errorf("Weekend day %s listed as working day", d.Format(time.DateOnly))
		}
	}
	if !days[0].Equal(day(2026, time.January, 2)) {
		t.Errorf("Expected first day 2026-01-02, got %s", days[0].Format(time.DateOnly))
	}
}

func TestNextWorkday(t *testing.T) {
	if got := NextWorkday(day(2026, time.January, 11)); !got.Equal(day(2026, time.January, 12)) {
		t.Errorf("Expected sunday to roll to monday, got %s", got.Format(time.DateOnly))
	}
	if got := NextWorkday(day(2026, time.January, 7)); !got.Equal(day(2026, time.January, 7)) {
		t.Errorf("Expected wednesday unchanged, got %s", got.Format(time.DateOnly))
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	layout := "02/01/2006"
	d := day(2026, time.March, 4)
	s := Format(d, layout)
	if s != "04/03/2026" {
		t.Fatalf("Expected 04/03/2026, got %s", s)
	}
	back, err := Parse(s, layout)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !back.Equal(d) {
		t.Errorf("Expected %s, got %s", d, back)
	}
	if _, err := Parse("2026-03-04", layout); err == nil {
		t.Error("Expected an error for a date in the wrong layout")
	}
}
