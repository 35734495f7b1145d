package engine

import (
	"context"

	"planboard/models"
)

// CellStyle selects the border color of a ticket's cells.
type CellStyle int

const (
	StyleDefault CellStyle = iota
	StyleFixed
	StyleDelivered
	StyleStandBy
)

// CellView is what the drawing layer needs to render one cell.
type CellView struct {
	Row      int
	Col      int
	TicketID uint
	Top      bool
	Bottom   bool
	// Label is only set on top cells.
	Label string
	Style CellStyle
}

// CellViews returns the views of the cells of the given tickets, or of every
// cell when ids is nil.
func (b *Board) CellViews(ctx context.Context, ids []uint) ([]CellView, error) {
	var (
		cells []models.Cell
		err   error
	)
	if ids == nil {
		cells, err = b.store.ListCells(ctx, false)
	} else {
		cells, err = b.store.CellsOfTickets(ctx, ids)
	}
	if err != nil {
		return nil, err
	}

	type ticketLook struct {
		label string
		style CellStyle
	}
	looks := map[uint]ticketLook{}
	views := make([]CellView, 0, len(cells))
	for _, c := range cells {
		look, ok := looks[c.TicketID]
		if !ok {
			look.label, look.style, err = b.ticketLook(ctx, c.TicketID)
			if err != nil {
				return nil, err
			}
			looks[c.TicketID] = look
		}
		v := CellView{
			Row:      c.Row,
			Col:      c.Col,
			TicketID: c.TicketID,
			Top:      c.IsTopCell,
			Bottom:   c.IsBottomCell,
			Style:    look.style,
		}
		if c.IsTopCell {
			v.Label = look.label
		}
		views = append(views, v)
	}
	return views, nil
}

func (b *Board) ticketLook(ctx context.Context, ticketID uint) (string, CellStyle, error) {
	ticket, err := b.store.GetTicket(ctx, ticketID)
	if err != nil {
		return "", StyleDefault, err
	}
	var project *models.Project
	if ticket.ProjectID != nil {
		project, err = b.store.GetProjectOrNone(ctx, *ticket.ProjectID)
		if err != nil {
			return "", StyleDefault, err
		}
	}
	return ticket.Title(project), styleOf(ticket, project), nil
}

func styleOf(t *models.Ticket, p *models.Project) CellStyle {
	switch {
	case t.IsFixed:
		return StyleFixed
	case p != nil && p.StatusName == models.StatusDelivered:
		return StyleDelivered
	case p != nil && p.StatusName == models.StatusStandBy:
		return StyleStandBy
	default:
		return StyleDefault
	}
}
