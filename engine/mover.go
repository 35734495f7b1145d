package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"planboard/grid"
	"planboard/models"
)

// Move erases a ticket and places its first cell at (row, col), growing
// downward. With force, non-fixed tickets in the way are pushed further down
// the column; without it only free rows are used. It returns the sorted IDs of
// every ticket whose cells changed.
func (b *Board) Move(ctx context.Context, ticketID uint, row, col int, force bool) ([]uint, error) {
	var touched []uint
	err := b.run(ctx, func(b *Board) error {
		var err error
		touched, err = b.move(ctx, ticketID, row, col, force)
		return err
	})
	if err != nil {
		return nil, err
	}
	return touched, nil
}

func (b *Board) move(ctx context.Context, ticketID uint, row, col int, force bool) ([]uint, error) {
	if row < 0 {
		return nil, fmt.Errorf("row %d: %w", row, ErrInvalidTarget)
	}
	column, err := b.layout.Column(col)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidTarget)
	}
	if column.Lane == grid.LaneSpacer {
		return nil, fmt.Errorf("column %d is a spacer: %w", col, ErrInvalidTarget)
	}

	ticket, err := b.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	length, err := b.store.TicketLength(ctx, ticket)
	if err != nil {
		return nil, err
	}

	if _, err := b.store.DeleteCellsOf(ctx, ticketID); err != nil {
		return nil, err
	}
	b.changes.erase(ticketID)

	m := &ticketMover{board: b, col: col}
	if err := m.place(ctx, ticketID, length, row, force); err != nil {
		return nil, err
	}

	touched := sortedIDs(m.touched)
	for _, id := range touched {
		if err := b.updateModels(ctx, id); err != nil {
			return nil, err
		}
		b.changes.draw(id)
	}

	b.log.Debug("Ticket moved",
		zap.Uint("ticket", ticketID),
		zap.Int("row", row),
		zap.Int("column", col),
		zap.Bool("force", force),
		zap.Int("length", length),
		zap.Uints("touched", touched),
	)
	return touched, nil
}

// ticketMover walks one column downward, handing each row to the next ticket
// waiting in a FIFO queue. Displaced tickets rejoin the queue for one more row.
type ticketMover struct {
	board     *Board
	col       int
	rowsTaken map[int]uint
	rowsFixed map[int]bool
	queue     []uint
	toCreate  []models.Cell
	touched   map[uint]struct{}
}

func (m *ticketMover) place(ctx context.Context, ticketID uint, length, row int, force bool) error {
	store := m.board.store
	m.rowsTaken = map[int]uint{}
	m.rowsFixed = map[int]bool{}
	m.touched = map[uint]struct{}{ticketID: {}}
	m.queue = make([]uint, length)
	for i := range m.queue {
		m.queue[i] = ticketID
	}

	below, err := store.CellsInColumnFrom(ctx, m.col, row)
	if err != nil {
		return err
	}
	fixed, err := m.fixedTickets(ctx, below)
	if err != nil {
		return err
	}
	for _, cell := range below {
		m.rowsTaken[cell.Row] = cell.TicketID
		if !force || fixed[cell.TicketID] {
			m.rowsFixed[cell.Row] = true
		}
	}

	current := row
	for len(m.queue) > 0 {
		for m.rowsFixed[current] {
			current++
		}
		if err := m.insert(ctx, current); err != nil {
			return err
		}
		current++
	}

	if err := store.InsertCells(ctx, m.toCreate); err != nil {
		return err
	}
	if len(m.toCreate) > 0 {
		// rows past the displayed window get a date
		m.board.layout.Extend(current - 1)
	}
	return nil
}

func (m *ticketMover) fixedTickets(ctx context.Context, cells []models.Cell) (map[uint]bool, error) {
	seen := map[uint]struct{}{}
	var ids []uint
	for _, c := range cells {
		if _, ok := seen[c.TicketID]; !ok {
			seen[c.TicketID] = struct{}{}
			ids = append(ids, c.TicketID)
		}
	}
	tickets, err := m.board.store.TicketsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	fixed := make(map[uint]bool, len(tickets))
	for _, t := range tickets {
		fixed[t.ID] = t.IsFixed
	}
	return fixed, nil
}

func (m *ticketMover) insert(ctx context.Context, row int) error {
	ticketID := m.queue[0]
	m.queue = m.queue[1:]
	old, taken := m.rowsTaken[row]
	if !taken {
		m.toCreate = append(m.toCreate, models.Cell{Row: row, Col: m.col, TicketID: ticketID})
		return nil
	}
	if err := m.board.store.SetCellTicket(ctx, row, m.col, ticketID); err != nil {
		return err
	}
	m.queue = append(m.queue, old)
	m.touched[old] = struct{}{}
	return nil
}

// updateModels recomputes, in order, the border flags of the ticket's cells,
// its scheduled flag and its project's dates.
func (b *Board) updateModels(ctx context.Context, ticketID uint) error {
	cells, err := b.store.CellsOf(ctx, ticketID)
	if err != nil {
		return err
	}
	type pos struct{ row, col int }
	occupied := make(map[pos]bool, len(cells))
	for _, c := range cells {
		occupied[pos{c.Row, c.Col}] = true
	}
	for i := range cells {
		c := &cells[i]
		top := !occupied[pos{c.Row - 1, c.Col}]
		bottom := !occupied[pos{c.Row + 1, c.Col}]
		if c.IsTopCell == top && c.IsBottomCell == bottom {
			continue
		}
		c.IsTopCell, c.IsBottomCell = top, bottom
		if err := b.store.UpdateCellFlags(ctx, c); err != nil {
			return err
		}
	}

	ticket, err := b.store.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	length, err := b.store.TicketLength(ctx, ticket)
	if err != nil {
		return err
	}
	scheduled := len(cells) > 0 && !b.layout.IsBacklog(cells[0].Col) && length != 0
	if ticket.IsScheduled != scheduled {
		ticket.IsScheduled = scheduled
		if err := b.store.UpdateTicket(ctx, ticket); err != nil {
			return err
		}
	}

	if ticket.ProjectID != nil {
		return b.updateProjectDates(ctx, *ticket.ProjectID)
	}
	return nil
}

// updateProjectDates stores the first day of the project's scheduled tickets
// as its start date. The end date is the last day of those tickets, and is
// only known once no unscheduled ticket still needs cells.
func (b *Board) updateProjectDates(ctx context.Context, projectID string) error {
	project, err := b.store.GetProjectOrNone(ctx, projectID)
	if err != nil || project == nil {
		return err
	}
	scheduled, err := b.store.TicketsOfByScheduled(ctx, projectID, true)
	if err != nil {
		return err
	}

	var start, end *time.Time
	for _, t := range scheduled {
		first, err := b.store.FirstCellOf(ctx, t.ID)
		if err != nil {
			return err
		}
		if first == nil {
			return fmt.Errorf("scheduled ticket %d has no cell: %w", t.ID, ErrInvariant)
		}
		d, err := b.layout.DateOfRow(first.Row)
		if err != nil {
			return err
		}
		if start == nil || d.Before(*start) {
			start = &d
		}
	}

	fully, err := b.fullyScheduled(ctx, projectID)
	if err != nil {
		return err
	}
	if fully {
		for _, t := range scheduled {
			last, err := b.store.LastCellOf(ctx, t.ID)
			if err != nil {
				return err
			}
			if last == nil {
				return fmt.Errorf("scheduled ticket %d has no cell: %w", t.ID, ErrInvariant)
			}
			d, err := b.layout.DateOfRow(last.Row)
			if err != nil {
				return err
			}
			if end == nil || d.After(*end) {
				end = &d
			}
		}
	}

	return b.store.UpdateProjectDates(ctx, projectID, start, end)
}

// fullyScheduled reports whether every unscheduled ticket of the project has
// nothing left to draw.
func (b *Board) fullyScheduled(ctx context.Context, projectID string) (bool, error) {
	backlog, err := b.store.TicketsOfByScheduled(ctx, projectID, false)
	if err != nil {
		return false, err
	}
	for i := range backlog {
		length, err := b.store.TicketLength(ctx, &backlog[i])
		if err != nil {
			return false, err
		}
		if length != 0 {
			return false, nil
		}
	}
	return true, nil
}
