// Package ui is the terminal planning board: rows are working days, columns
// are the members' scheduled and backlog lanes.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize/english"

	"planboard/calendar"
	"planboard/clock"
	"planboard/engine"
	"planboard/grid"
)

// opDoneMsg is sent when a board operation completes
type opDoneMsg struct {
	status string
	err    error
}

// cellsMsg carries freshly read cells. With all set it replaces the whole board.
type cellsMsg struct {
	all   bool
	draw  []uint
	erase []uint
	views []engine.CellView
	err   error
}

type pos struct{ row, col int }

// inputMode is what the text input is being used for
type inputMode int

const (
	inputNone inputMode = iota
	inputProjectName
	inputConfirmDelete
)

// model represents the Bubble Tea application model
type model struct {
	ctx        context.Context
	board      *engine.Board
	layout     *grid.Layout
	queue      *redrawQueue
	clock      clock.Clock
	dateFormat string

	cells    map[pos]engine.CellView
	byTicket map[uint][]pos

	cursor pos
	top    int
	left   int
	picked *engine.CellView

	mode  inputMode
	input textinput.Model

	keys keyMap
	help help.Model

	busy          bool
	statusMessage string
	errorMessage  string
	width         int
	height        int
}

// NewModel creates the board model. The board's drawer is replaced by the
// model's redraw queue.
func NewModel(ctx context.Context, board *engine.Board, c clock.Clock, dateFormat string) tea.Model {
	m := newModel(ctx, board, board.Layout(), c, dateFormat)
	board.SetDrawer(m.queue)
	return m
}

func newModel(ctx context.Context, board *engine.Board, layout *grid.Layout, c clock.Clock, dateFormat string) model {
	ti := textinput.New()
	ti.CharLimit = 120
	ti.Width = 40

	m := model{
		ctx:        ctx,
		board:      board,
		layout:     layout,
		queue:      newRedrawQueue(),
		clock:      c,
		dateFormat: dateFormat,
		cells:      map[pos]engine.CellView{},
		byTicket:   map[uint][]pos{},
		input:      ti,
		keys:       defaultKeyMap(),
		help:       help.New(),
		width:      80,
		height:     24,
	}
	if row, err := layout.TodayRow(c.Now()); err == nil {
		m.cursor.row = row
	}
	return m
}

// Init loads every cell from the database
func (m model) Init() tea.Cmd {
	return loadCellsCmd(m.ctx, m.board, true, nil, nil)
}

// Update handles messages and updates the model
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.scrollToCursor()
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateBoard(msg)

	case opDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.statusMessage = ""
		} else {
			m.errorMessage = ""
			m.statusMessage = msg.status
		}
		draw, erase := m.queue.Drain()
		return m, loadCellsCmd(m.ctx, m.board, false, draw, erase)

	case cellsMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("Failed to load cells: %v", msg.err)
			return m, nil
		}
		m.applyCells(msg)
		return m, nil
	}
	return m, nil
}

func (m model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1, 0)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1, 0)
		return m, nil
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(0, -1)
		return m, nil
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(0, 1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.visibleRows(), 0)
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.visibleRows(), 0)
		return m, nil
	case key.Matches(msg, m.keys.Today):
		if row, err := m.layout.TodayRow(m.clock.Now()); err == nil {
			m.cursor.row = row
			m.scrollToCursor()
		}
		return m, nil
	}

	// Everything below writes to the database, one operation at a time
	if m.busy {
		return m, nil
	}
	m.errorMessage = ""
	row, col := m.cursor.row, m.cursor.col
	under, occupied := m.cells[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Pick):
		if m.picked == nil {
			if !occupied {
				return m, nil
			}
			picked := under
			m.picked = &picked
			m.statusMessage = fmt.Sprintf("Ticket %d picked up", under.TicketID)
			return m, nil
		}
		id := m.picked.TicketID
		m.picked = nil
		return m.start(func(ctx context.Context) (string, error) {
			touched, err := m.board.Move(ctx, id, row, col, true)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Ticket %d moved, %s redrawn", id, english.Plural(len(touched), "ticket", "")), nil
		})

	case key.Matches(msg, m.keys.Delete):
		if !occupied {
			return m, nil
		}
		return m.start(func(ctx context.Context) (string, error) {
			if err := m.board.Delete(ctx, under.TicketID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Ticket %d deleted", under.TicketID), nil
		})

	case key.Matches(msg, m.keys.DeleteProject):
		if !occupied {
			return m, nil
		}
		m.mode = inputConfirmDelete
		m.input.Reset()
		m.input.Placeholder = "Type DELETE to confirm"
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Fix):
		if !occupied {
			return m, nil
		}
		fixed := under.Style != engine.StyleFixed
		return m.start(func(ctx context.Context) (string, error) {
			if err := m.board.SetFixed(ctx, under.TicketID, fixed); err != nil {
				return "", err
			}
			if err := m.board.Refresh(ctx, under.TicketID); err != nil {
				return "", err
			}
			if fixed {
				return fmt.Sprintf("Ticket %d fixed", under.TicketID), nil
			}
			return fmt.Sprintf("Ticket %d released", under.TicketID), nil
		})

	case key.Matches(msg, m.keys.NewTicket):
		return m.start(func(ctx context.Context) (string, error) {
			t, err := m.board.CreateTicket(ctx, row, col, "")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Ticket %d created for %s", t.ID, t.OwnerName), nil
		})

	case key.Matches(msg, m.keys.NewProject):
		m.mode = inputProjectName
		m.input.Reset()
		m.input.Placeholder = "Project name"
		m.input.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		return m.start(func(ctx context.Context) (string, error) {
			var total int
			err := m.board.RefreshGrid(ctx, nil, func(_, n int) { total = n })
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%s refreshed", english.Plural(total, "ticket", "")), nil
		})
	}
	return m, nil
}

// updateInput handles keys while the text input is shown
func (m model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = inputNone
		m.input.Blur()
		m.statusMessage = "Cancelled"
		return m, nil
	case "enter":
		mode, value := m.mode, strings.TrimSpace(m.input.Value())
		m.mode = inputNone
		m.input.Blur()
		row, col := m.cursor.row, m.cursor.col
		switch mode {
		case inputProjectName:
			if value == "" {
				m.errorMessage = "A project needs a name"
				return m, nil
			}
			return m.start(func(ctx context.Context) (string, error) {
				p, err := m.board.CreateProject(ctx, row, col, value)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Project %s created", p.ID), nil
			})
		case inputConfirmDelete:
			if value != "DELETE" {
				m.errorMessage = "You must type 'DELETE' exactly to confirm"
				return m, nil
			}
			return m.start(func(ctx context.Context) (string, error) {
				p, err := m.board.ProjectAt(ctx, row, col)
				if err != nil {
					return "", err
				}
				if p == nil {
					return "", errors.New("this ticket has no project")
				}
				if err := m.board.DeleteProject(ctx, p.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Project %s deleted", p.ID), nil
			})
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// start runs op as a command and marks the board busy until it reports back
func (m model) start(op func(ctx context.Context) (string, error)) (tea.Model, tea.Cmd) {
	m.busy = true
	m.statusMessage = "Working..."
	ctx := m.ctx
	return m, func() tea.Msg {
		status, err := op(ctx)
		return opDoneMsg{status: status, err: err}
	}
}

// loadCellsCmd reads the cells of the given tickets, or of all of them
func loadCellsCmd(ctx context.Context, board *engine.Board, all bool, draw, erase []uint) tea.Cmd {
	return func() tea.Msg {
		if !all && len(draw) == 0 {
			return cellsMsg{draw: draw, erase: erase}
		}
		ids := draw
		if all {
			ids = nil
		}
		views, err := board.CellViews(ctx, ids)
		return cellsMsg{all: all, draw: draw, erase: erase, views: views, err: err}
	}
}

func (m *model) applyCells(msg cellsMsg) {
	if msg.all {
		m.cells = map[pos]engine.CellView{}
		m.byTicket = map[uint][]pos{}
	}
	for _, ids := range [][]uint{msg.erase, msg.draw} {
		for _, id := range ids {
			for _, p := range m.byTicket[id] {
				if m.cells[p].TicketID == id {
					delete(m.cells, p)
				}
			}
			delete(m.byTicket, id)
		}
	}
	for _, v := range msg.views {
		p := pos{v.Row, v.Col}
		m.cells[p] = v
		m.byTicket[v.TicketID] = append(m.byTicket[v.TicketID], p)
	}
}

// moveCursor moves by rows and lanes, stepping over spacer columns
func (m *model) moveCursor(dRow, dCol int) {
	m.cursor.row = max(m.cursor.row+dRow, 0)
	if last := m.layout.RowCount() - 1; m.cursor.row > last {
		m.cursor.row = max(last, 0)
	}
	if dCol != 0 {
		col := m.cursor.col + dCol
		for col >= 0 && col < m.layout.ColumnCount() {
			if c, err := m.layout.Column(col); err == nil && c.Lane != grid.LaneSpacer {
				m.cursor.col = col
				break
			}
			col += dCol
		}
	}
	m.scrollToCursor()
}

func (m model) visibleRows() int {
	// title, header, status, error and help lines
	return max(m.height-7, 1)
}

func (m model) visibleCols() int {
	n, width := 0, dateWidth
	for col := m.left; col < m.layout.ColumnCount(); col++ {
		width += columnWidth(m.layout, col)
		if width > m.width && n > 0 {
			break
		}
		n++
	}
	return max(n, 1)
}

func (m *model) scrollToCursor() {
	rows := m.visibleRows()
	if m.cursor.row < m.top {
		m.top = m.cursor.row
	}
	if m.cursor.row >= m.top+rows {
		m.top = m.cursor.row - rows + 1
	}
	if m.cursor.col < m.left {
		m.left = m.cursor.col
	}
	for m.cursor.col >= m.left+m.visibleCols() {
		m.left++
	}
}

func columnWidth(l *grid.Layout, col int) int {
	if c, err := l.Column(col); err == nil && c.Lane == grid.LaneSpacer {
		return spacerWidth
	}
	return laneWidth
}

// View renders the UI
func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Planning board"))
	b.WriteString("\n")

	lastCol := min(m.left+m.visibleCols(), m.layout.ColumnCount())
	b.WriteString(strings.Repeat(" ", dateWidth))
	for col := m.left; col < lastCol; col++ {
		b.WriteString(headerStyle.Render(fit(m.layout.Header(col), columnWidth(m.layout, col))))
	}
	b.WriteString("\n")

	days := m.layout.Days()
	todayRow, _ := m.layout.TodayRow(m.clock.Now())
	lastRow := min(m.top+m.visibleRows(), len(days))
	for row := m.top; row < lastRow; row++ {
		label := fit(calendar.Format(days[row], m.dateFormat), dateWidth)
		if row == todayRow {
			label = todayStyle.Render(label)
		} else {
			label = headerStyle.Render(label)
		}
		b.WriteString(label)
		for col := m.left; col < lastCol; col++ {
			b.WriteString(m.renderCell(pos{row, col}))
		}
		b.WriteString("\n")
	}

	if m.mode != inputNone {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.errorMessage != "" {
		b.WriteString(errorStyle.Render("⚠ " + m.errorMessage))
		b.WriteString("\n")
	} else if m.statusMessage != "" {
		b.WriteString(statusStyle.Render("✓ " + m.statusMessage))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m model) renderCell(p pos) string {
	width := columnWidth(m.layout, p.col)
	v, ok := m.cells[p]
	var text string
	var style lipgloss.Style
	switch {
	case ok:
		style = styleFor(v)
		text = cellText(v)
	case width == spacerWidth:
		style = lipgloss.NewStyle()
	default:
		style = freeStyle
		text = "·"
	}
	if m.picked != nil && ok && v.TicketID == m.picked.TicketID {
		style = style.Underline(true)
	}
	if p == m.cursor {
		style = style.Reverse(true)
	}
	return style.Render(fit(text, width))
}

// cellText draws the ticket's vertical borders, with its label on the first cell
func cellText(v engine.CellView) string {
	switch {
	case v.Top && v.Bottom:
		return "▪" + v.Label
	case v.Top:
		return "┌" + v.Label
	case v.Bottom:
		return "└"
	default:
		return "│"
	}
}

// fit pads or truncates s to exactly width columns
func fit(s string, width int) string {
	w := lipgloss.Width(s)
	if w > width {
		r := []rune(s)
		for lipgloss.Width(string(r)) > width-1 && len(r) > 0 {
			r = r[:len(r)-1]
		}
		return string(r) + "…"
	}
	return s + strings.Repeat(" ", width-w)
}
