package grid

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testLayout() *Layout {
	// Monday 4 to Friday 8 March 2024
	days := []time.Time{
		day(2024, 3, 4), day(2024, 3, 5), day(2024, 3, 6), day(2024, 3, 7), day(2024, 3, 8),
	}
	return New(days, []string{"Ann Lee", "John Doe"}, "Backlog")
}

func TestColumns(t *testing.T) {
	l := testLayout()

	if l.ColumnCount() != 6 {
		t.Fatalf("Expected 6 columns, got %d", l.ColumnCount())
	}

	tests := []struct {
		col    int
		member string
		lane   Lane
		header string
	}{
		{0, "Ann Lee", LaneScheduled, "Ann Lee"},
		{1, "Ann Lee", LaneBacklog, "Backlog"},
		{2, "Ann Lee", LaneSpacer, ""},
		{3, "John Doe", LaneScheduled, "John Doe"},
		{4, "John Doe", LaneBacklog, "Backlog"},
	}
	for _, tt := range tests {
		c, err := l.Column(tt.col)
		if err != nil {
			t.Fatalf("Column(%d) failed: %v", tt.col, err)
		}
		if c.Member != tt.member || c.Lane != tt.lane || c.Header != tt.header {
			t.Errorf("Column(%d) = %+v, expected %s/%s/%q", tt.col, c, tt.member, tt.lane, tt.header)
		}
	}

	if _, err := l.Column(6); err == nil {
		t.Error("Expected error for column 6")
	}
	if _, err := l.MemberOf(5); err == nil {
		t.Error("Expected error for a spacer column")
	}
	if !l.IsBacklog(4) || l.IsBacklog(3) {
		t.Error("IsBacklog mismatch")
	}

	col, err := l.BacklogColumn("John Doe")
	if err != nil || col != 4 {
		t.Errorf("Expected backlog column 4, got %d (%v)", col, err)
	}
	col, err = l.MemberColumn("Ann Lee")
	if err != nil || col != 0 {
		t.Errorf("Expected scheduled column 0, got %d (%v)", col, err)
	}
	if _, err := l.MemberColumn("Nobody"); err == nil {
		t.Error("Expected error for an unknown member")
	}
}

func TestBacklogByLane(t *testing.T) {
	l := New([]time.Time{day(2024, 3, 4)}, []string{"Backlog", "John Doe"}, "Backlog")
	if l.IsBacklog(0) {
		t.Error("Expected the scheduled lane of member Backlog not to be a backlog")
	}
	if !l.IsBacklog(1) || l.IsBacklog(2) || l.IsBacklog(99) {
		t.Error("IsBacklog mismatch")
	}
}

func TestRowsAndDates(t *testing.T) {
	l := testLayout()

	row, ok := l.RowOf(day(2024, 3, 6))
	if !ok || row != 2 {
		t.Errorf("Expected row 2, got %d (%v)", row, ok)
	}
	if _, ok := l.RowOf(day(2024, 3, 9)); ok {
		t.Error("Saturday should not have a row")
	}

	// Past the end: the layout grows over the weekend
	d, err := l.DateOfRow(6)
	if err != nil {
		t.Fatalf("DateOfRow failed: %v", err)
	}
	if !d.Equal(day(2024, 3, 12)) {
		t.Errorf("Expected 12 March, got %v", d)
	}
	if l.RowCount() != 7 {
		t.Errorf("Expected 7 rows after extension, got %d", l.RowCount())
	}

	if _, err := l.DateOfRow(-1); err == nil {
		t.Error("Expected error for a negative row")
	}

	l.Shrink(5)
	if l.RowCount() != 5 {
		t.Errorf("Expected 5 rows after shrinking, got %d", l.RowCount())
	}
	l.Shrink(0)
	if l.RowCount() != 5 {
		t.Errorf("Expected shrinking to 0 rows to be ignored, got %d", l.RowCount())
	}
}

func TestTodayRow(t *testing.T) {
	l := testLayout()

	row, err := l.TodayRow(time.Date(2024, 3, 7, 15, 30, 0, 0, time.UTC))
	if err != nil || row != 3 {
		t.Errorf("Expected today row 3, got %d (%v)", row, err)
	}

	// Saturday maps to the next Monday, past the displayed week
	row, err = l.TodayRow(day(2024, 3, 9))
	if err != nil || row != 5 {
		t.Errorf("Expected row 5 for the weekend, got %d (%v)", row, err)
	}

	if _, err := l.TodayRow(day(2024, 3, 1)); err == nil {
		t.Error("Expected error for a day before the board")
	}
}
