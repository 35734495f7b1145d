package ui

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"planboard/calendar"
	"planboard/clock"
	"planboard/engine"
	"planboard/grid"
)

func testModel() model {
	first := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	layout := grid.New(calendar.Workdays(first, first.AddDate(0, 0, 14)), []string{"Ann Lee", "John Doe"}, "Backlog")
	return newModel(context.Background(), nil, layout, clock.Fake(first.AddDate(0, 0, 3)), "02/01/2006")
}

func press(m model, k tea.KeyMsg) model {
	next, _ := m.Update(k)
	return next.(model)
}

func TestRedrawQueue(t *testing.T) {
	q := newRedrawQueue()
	q.DrawTicket(3)
	q.DrawTicket(1)
	q.EraseTicket(2)
	q.DrawTicket(2)
	q.EraseTicket(3)

	draw, erase := q.Drain()
	if !reflect.DeepEqual(draw, []uint{1, 2}) {
		t.Errorf("Expected draw [1 2], got %v", draw)
	}
	if !reflect.DeepEqual(erase, []uint{2, 3}) {
		t.Errorf("Expected erase [2 3], got %v", erase)
	}

	draw, erase = q.Drain()
	if len(draw)+len(erase) != 0 {
		t.Errorf("Expected an empty queue after drain, got %v / %v", draw, erase)
	}
}

func TestCursorStartsOnToday(t *testing.T) {
	m := testModel()
	if m.cursor.row != 3 || m.cursor.col != 0 {
		t.Errorf("Expected cursor at (3, 0), got %+v", m.cursor)
	}
}

func TestCursorSkipsSpacers(t *testing.T) {
	m := testModel()

	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.cursor.col != 1 {
		t.Fatalf("Expected column 1, got %d", m.cursor.col)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.cursor.col != 3 {
		t.Errorf("Expected the spacer skipped to column 3, got %d", m.cursor.col)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.cursor.col != 4 {
		t.Errorf("Expected to stay on the last lane, got %d", m.cursor.col)
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.cursor.col != 3 {
		t.Errorf("Expected column 3, got %d", m.cursor.col)
	}

	for i := 0; i < 10; i++ {
		m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	}
	if m.cursor.row != 0 {
		t.Errorf("Expected the cursor to stop at row 0, got %d", m.cursor.row)
	}
}

func TestApplyCells(t *testing.T) {
	m := testModel()
	m.applyCells(cellsMsg{all: true, views: []engine.CellView{
		{Row: 0, Col: 0, TicketID: 1, Top: true, Label: "Alpha"},
		{Row: 1, Col: 0, TicketID: 1, Bottom: true},
		{Row: 0, Col: 3, TicketID: 2, Top: true, Bottom: true, Label: "Beta"},
	}})
	if len(m.cells) != 3 {
		t.Fatalf("Expected 3 cells, got %d", len(m.cells))
	}

	// Ticket 1 moved down a row, ticket 2 was deleted
	m.applyCells(cellsMsg{
		draw:  []uint{1},
		erase: []uint{2},
		views: []engine.CellView{
			{Row: 1, Col: 0, TicketID: 1, Top: true, Label: "Alpha"},
			{Row: 2, Col: 0, TicketID: 1, Bottom: true},
		},
	})
	if len(m.cells) != 2 {
		t.Fatalf("Expected 2 cells, got %d", len(m.cells))
	}
	if _, ok := m.cells[pos{0, 0}]; ok {
		t.Error("Expected (0, 0) to be free")
	}
	if v := m.cells[pos{1, 0}]; !v.Top || v.Label != "Alpha" {
		t.Errorf("Unexpected cell %+v", v)
	}
	if _, ok := m.byTicket[2]; ok {
		t.Error("Expected ticket 2 forgotten")
	}
}

func TestPickNeedsATicket(t *testing.T) {
	m := testModel()
	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if m.picked != nil {
		t.Error("Nothing should be picked on a free cell")
	}

	m.applyCells(cellsMsg{all: true, views: []engine.CellView{{Row: 3, Col: 0, TicketID: 7, Top: true, Bottom: true}}})
	m = press(m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if m.picked == nil || m.picked.TicketID != 7 {
		t.Fatalf("Expected ticket 7 picked, got %+v", m.picked)
	}
}

func TestView(t *testing.T) {
	m := testModel()
	m.width, m.height = 120, 20
	m.applyCells(cellsMsg{all: true, views: []engine.CellView{{Row: 3, Col: 0, TicketID: 1, Top: true, Bottom: true, Label: "Alpha"}}})

	out := m.View()
	for _, want := range []string{"Ann Lee", "John Doe", "Backlog", "07/03/2024", "Alpha"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
}

func TestFit(t *testing.T) {
	if got := fit("abc", 5); got != "abc  " {
		t.Errorf("Expected padded text, got %q", got)
	}
	if got := fit("abcdefgh", 5); got != "abcd…" {
		t.Errorf("Expected truncated text, got %q", got)
	}
}
