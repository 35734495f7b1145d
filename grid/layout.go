// Package grid maps the board's coordinates to calendar days and team lanes.
// Rows are working days starting at the first displayed date. Each member owns
// three consecutive columns: scheduled, backlog, then an empty spacer.
package grid

import (
	"fmt"
	"sync"
	"time"

	"planboard/calendar"
)

// Lane is the kind of a column.
type Lane int

const (
	LaneScheduled Lane = iota
	LaneBacklog
	LaneSpacer
)

func (l Lane) String() string {
	switch l {
	case LaneScheduled:
		return "scheduled"
	case LaneBacklog:
		return "backlog"
	default:
		return "spacer"
	}
}

const lanesPerMember = 3

// Column describes one column of the board.
type Column struct {
	Index  int
	Member string
	Lane   Lane
	Header string
}

// Layout is safe for concurrent use. The row axis grows on demand so that a
// displacement cascade never runs off the end of the board.
type Layout struct {
	mu          sync.RWMutex
	days        []time.Time
	members     []string
	backlogName string
}

// New builds a layout from the displayed working days, the member names in
// column order and the backlog lane header.
func New(days []time.Time, members []string, backlogName string) *Layout {
	l := &Layout{
		members:     append([]string(nil), members...),
		backlogName: backlogName,
	}
	for _, d := range days {
		l.days = append(l.days, calendar.Truncate(d))
	}
	return l
}

// RowCount returns the number of displayed rows.
func (l *Layout) RowCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.days)
}

// Days returns a copy of the displayed working days.
func (l *Layout) Days() []time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]time.Time(nil), l.days...)
}

// FirstDay returns the date of row 0, or the zero time for an empty layout.
func (l *Layout) FirstDay() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.days) == 0 {
		return time.Time{}
	}
	return l.days[0]
}

// Extend appends working days until row exists.
func (l *Layout) Extend(row int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.extendLocked(row)
}

func (l *Layout) extendLocked(row int) {
	if len(l.days) == 0 {
		return
	}
	for len(l.days) <= row {
		l.days = append(l.days, calendar.AddWorkdays(l.days[len(l.days)-1], 1))
	}
}

// Shrink keeps only the first n rows, undoing earlier extensions. The layout
// always keeps at least one row.
func (l *Layout) Shrink(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n >= 1 && n < len(l.days) {
		l.days = l.days[:n]
	}
}

// DateOfRow returns the working day shown on row, extending the layout when
// row lies past the last displayed day.
func (l *Layout) DateOfRow(row int) (time.Time, error) {
	if row < 0 {
		return time.Time{}, fmt.Errorf("row %d is before the first displayed day", row)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.days) == 0 {
		return time.Time{}, fmt.Errorf("layout has no rows")
	}
	l.extendLocked(row)
	return l.days[row], nil
}

// RowOf returns the row displaying date, or false when date is outside the
// layout or not a working day.
func (l *Layout) RowOf(date time.Time) (int, bool) {
	date = calendar.Truncate(date)
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i, d := range l.days {
		if d.Equal(date) {
			return i, true
		}
	}
	return 0, false
}

// TodayRow returns the row of today or, on a weekend, of the next working day.
func (l *Layout) TodayRow(now time.Time) (int, error) {
	today := calendar.NextWorkday(calendar.Truncate(now))
	if row, ok := l.RowOf(today); ok {
		return row, nil
	}
	first := l.FirstDay()
	if first.IsZero() || today.Before(first) {
		return 0, fmt.Errorf("today %s is not on the board", today.Format(time.DateOnly))
	}
	row := calendar.WorkdaysBetween(first, today)
	l.Extend(row)
	return row, nil
}

// ColumnCount returns the number of columns, spacers included.
func (l *Layout) ColumnCount() int {
	return len(l.members) * lanesPerMember
}

// Members returns the member names in column order.
func (l *Layout) Members() []string {
	return append([]string(nil), l.members...)
}

// Column describes column col.
func (l *Layout) Column(col int) (Column, error) {
	if col < 0 || col >= l.ColumnCount() {
		return Column{}, fmt.Errorf("column %d is outside the board", col)
	}
	c := Column{
		Index:  col,
		Member: l.members[col/lanesPerMember],
		Lane:   Lane(col % lanesPerMember),
	}
	switch c.Lane {
	case LaneScheduled:
		c.Header = c.Member
	case LaneBacklog:
		c.Header = l.backlogName
	}
	return c, nil
}

// Header returns the label of column col, empty for spacers.
func (l *Layout) Header(col int) string {
	c, err := l.Column(col)
	if err != nil {
		return ""
	}
	return c.Header
}

func (l *Layout) memberIndex(member string) (int, error) {
	for i, m := range l.members {
		if m == member {
			return i, nil
		}
	}
	return 0, fmt.Errorf("member %q has no column", member)
}

// MemberColumn returns the scheduled column of member.
func (l *Layout) MemberColumn(member string) (int, error) {
	i, err := l.memberIndex(member)
	if err != nil {
		return 0, err
	}
	return i * lanesPerMember, nil
}

// BacklogColumn returns the backlog column of member.
func (l *Layout) BacklogColumn(member string) (int, error) {
	col, err := l.MemberColumn(member)
	if err != nil {
		return 0, err
	}
	return col + 1, nil
}

// IsBacklog reports whether col is a backlog lane.
func (l *Layout) IsBacklog(col int) bool {
	c, err := l.Column(col)
	return err == nil && c.Lane == LaneBacklog
}

// MemberOf returns the member owning a scheduled or backlog column.
func (l *Layout) MemberOf(col int) (string, error) {
	c, err := l.Column(col)
	if err != nil {
		return "", err
	}
	if c.Lane == LaneSpacer {
		return "", fmt.Errorf("column %d is a spacer", col)
	}
	return c.Member, nil
}
