package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"planboard/models"
)

// Refresh places a ticket again after its length or project changed. A ticket
// whose project is no longer drawn is deleted; one with nothing left to draw
// loses its cells; any other is moved to where it starts, or to today's row
// in its owner's backlog, without displacing anyone.
func (b *Board) Refresh(ctx context.Context, ticketID uint) error {
	return b.run(ctx, func(b *Board) error {
		if _, err := b.store.GetTicket(ctx, ticketID); err != nil {
			return err
		}
		return b.refresh(ctx, ticketID)
	})
}

// refresh is a no-op for a ticket deleted earlier in the same operation.
func (b *Board) refresh(ctx context.Context, ticketID uint) error {
	ticket, err := b.store.GetTicketOrNone(ctx, ticketID)
	if err != nil || ticket == nil {
		return err
	}
	pc, err := b.store.ProjectContext(ctx, ticket)
	if err != nil {
		return err
	}

	if ticket.NeedsErasure(pc) {
		return b.delete(ctx, ticket)
	}

	if ticket.Length(pc) == 0 {
		if _, err := b.store.DeleteCellsOf(ctx, ticket.ID); err != nil {
			return err
		}
		b.changes.erase(ticket.ID)
		ticket.IsScheduled = false
		if err := b.store.UpdateTicket(ctx, ticket); err != nil {
			return err
		}
		if ticket.ProjectID != nil {
			return b.updateProjectDates(ctx, *ticket.ProjectID)
		}
		return nil
	}

	row, col, err := b.naturalTarget(ctx, ticket)
	if err != nil {
		return err
	}
	_, err = b.move(ctx, ticket.ID, row, col, false)
	return err
}

// naturalTarget is the ticket's first cell, or today's row in its owner's backlog.
func (b *Board) naturalTarget(ctx context.Context, ticket *models.Ticket) (int, int, error) {
	first, err := b.store.FirstCellOf(ctx, ticket.ID)
	if err != nil {
		return 0, 0, err
	}
	if first != nil {
		return first.Row, first.Col, nil
	}
	return b.backlogTarget(ticket.OwnerName)
}

func (b *Board) backlogTarget(owner string) (int, int, error) {
	row, err := b.layout.TodayRow(b.clock.Now())
	if err != nil {
		return 0, 0, err
	}
	col, err := b.layout.BacklogColumn(owner)
	if err != nil {
		return 0, 0, err
	}
	return row, col, nil
}

// Delete erases a ticket and removes it. The other tickets of its project are
// refreshed and the project's dates recomputed.
func (b *Board) Delete(ctx context.Context, ticketID uint) error {
	return b.run(ctx, func(b *Board) error {
		ticket, err := b.store.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		return b.delete(ctx, ticket)
	})
}

func (b *Board) delete(ctx context.Context, ticket *models.Ticket) error {
	if _, err := b.store.DeleteCellsOf(ctx, ticket.ID); err != nil {
		return err
	}
	if err := b.store.DeleteTicket(ctx, ticket.ID); err != nil {
		return err
	}
	b.changes.remove(ticket.ID)
	b.log.Debug("Ticket deleted", zap.Uint("ticket", ticket.ID))

	if ticket.ProjectID == nil {
		return nil
	}
	projectID := *ticket.ProjectID
	others, err := b.store.TicketsOf(ctx, projectID)
	if err != nil {
		return err
	}
	for _, other := range others {
		if err := b.refresh(ctx, other.ID); err != nil {
			return err
		}
	}
	return b.updateProjectDates(ctx, projectID)
}

// Bootstrap gives a ticket to every drawn project that has none, places every
// ticket without cells at today's row in its owner's backlog, then asks the
// drawer to draw every ticket.
func (b *Board) Bootstrap(ctx context.Context) error {
	return b.run(ctx, func(b *Board) error {
		projects, err := b.store.NewProjects(ctx)
		if err != nil {
			return err
		}
		for i := range projects {
			p := &projects[i]
			ticket := &models.Ticket{OwnerName: p.OwnerName, ProjectID: &p.ID}
			if err := b.store.AddTicket(ctx, ticket); err != nil {
				return err
			}
			b.log.Info("Ticket created for new project",
				zap.String("project", p.ID),
				zap.Uint("ticket", ticket.ID),
			)
		}

		bare, err := b.store.TicketsWithoutCells(ctx)
		if err != nil {
			return err
		}
		for _, t := range bare {
			row, col, err := b.backlogTarget(t.OwnerName)
			if err != nil {
				return fmt.Errorf("failed to place ticket %d: %w", t.ID, err)
			}
			if _, err := b.move(ctx, t.ID, row, col, false); err != nil {
				return err
			}
		}

		all, err := b.store.ListTickets(ctx)
		if err != nil {
			return err
		}
		for _, t := range all {
			b.changes.draw(t.ID)
		}
		return nil
	})
}

// CreateTicket creates a one-day ticket without project for the member owning
// col, placed at (row, col) on free rows.
func (b *Board) CreateTicket(ctx context.Context, row, col int, description string) (*models.Ticket, error) {
	var ticket *models.Ticket
	err := b.run(ctx, func(b *Board) error {
		owner, err := b.layout.MemberOf(col)
		if err != nil {
			return fmt.Errorf("%v: %w", err, ErrInvalidTarget)
		}
		ticket = &models.Ticket{OwnerName: owner, Description: description, Duration: 1}
		if err := b.store.AddTicket(ctx, ticket); err != nil {
			return err
		}
		_, err = b.move(ctx, ticket.ID, row, col, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// SetFixed pins a ticket so that forced moves go around it, or unpins it.
func (b *Board) SetFixed(ctx context.Context, ticketID uint, fixed bool) error {
	return b.run(ctx, func(b *Board) error {
		ticket, err := b.store.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		ticket.IsFixed = fixed
		if err := b.store.UpdateTicket(ctx, ticket); err != nil {
			return err
		}
		b.changes.draw(ticketID)
		return nil
	})
}

// EditTicket applies edit to a ticket, stores it and refreshes it.
func (b *Board) EditTicket(ctx context.Context, ticketID uint, edit func(t *models.Ticket) error) error {
	return b.run(ctx, func(b *Board) error {
		ticket, err := b.store.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := edit(ticket); err != nil {
			return err
		}
		if err := b.store.UpdateTicket(ctx, ticket); err != nil {
			return err
		}
		return b.refresh(ctx, ticketID)
	})
}

// TicketAt returns the ticket drawn at (row, col), or nil when the cell is free.
func (b *Board) TicketAt(ctx context.Context, row, col int) (*models.Ticket, error) {
	cell, err := b.store.CellAt(ctx, row, col)
	if err != nil || cell == nil {
		return nil, err
	}
	return b.store.GetTicket(ctx, cell.TicketID)
}

// RefreshGrid refreshes the given tickets, or every ticket when ids is nil,
// one transaction each unless called inside Update. progress is called after
// each ticket when not nil.
func (b *Board) RefreshGrid(ctx context.Context, ids []uint, progress func(done, total int)) error {
	if ids == nil {
		tickets, err := b.store.ListTickets(ctx)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			ids = append(ids, t.ID)
		}
	}
	for i, id := range ids {
		err := b.run(ctx, func(b *Board) error {
			return b.refresh(ctx, id)
		})
		if err != nil {
			return fmt.Errorf("failed to refresh ticket %d: %w", id, err)
		}
		if progress != nil {
			progress(i+1, len(ids))
		}
	}
	b.log.Info("Grid refreshed", zap.Int("tickets", len(ids)))
	return nil
}
