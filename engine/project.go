package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"planboard/models"
)

// CreateProject creates an active project charged one day for the member owning col and
// places its ticket at (row, col) on free rows.
func (b *Board) CreateProject(ctx context.Context, row, col int, name string) (*models.Project, error) {
	var project *models.Project
	err := b.run(ctx, func(b *Board) error {
		owner, err := b.layout.MemberOf(col)
		if err != nil {
			return fmt.Errorf("%v: %w", err, ErrInvalidTarget)
		}
		member, err := b.store.GetMember(ctx, owner)
		if err != nil {
			return err
		}
		key, err := b.store.NextProjectKey(ctx, member)
		if err != nil {
			return err
		}
		project = &models.Project{
			ID:         key,
			Name:       name,
			OwnerName:  owner,
			StatusName: models.StatusActive,
			Charge:     1,
		}
		if err := b.store.AddProject(ctx, project); err != nil {
			return err
		}
		ticket := &models.Ticket{OwnerName: owner, ProjectID: &project.ID}
		if err := b.store.AddTicket(ctx, ticket); err != nil {
			return err
		}
		if _, err := b.move(ctx, ticket.ID, row, col, false); err != nil {
			return err
		}
		b.log.Info("Project created", zap.String("project", key), zap.String("owner", owner))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b.store.GetProject(ctx, project.ID)
}

// DeleteProject removes a project with all its tickets and their cells.
func (b *Board) DeleteProject(ctx context.Context, projectID string) error {
	return b.run(ctx, func(b *Board) error {
		if _, err := b.store.GetProject(ctx, projectID); err != nil {
			return err
		}
		tickets, err := b.store.TicketsOf(ctx, projectID)
		if err != nil {
			return err
		}
		for _, t := range tickets {
			if _, err := b.store.DeleteCellsOf(ctx, t.ID); err != nil {
				return err
			}
			if err := b.store.DeleteTicket(ctx, t.ID); err != nil {
				return err
			}
			b.changes.remove(t.ID)
		}
		if err := b.store.DeleteProject(ctx, projectID); err != nil {
			return err
		}
		b.log.Info("Project deleted", zap.String("project", projectID), zap.Int("tickets", len(tickets)))
		return nil
	})
}

// RefreshProject refreshes every ticket of a project.
func (b *Board) RefreshProject(ctx context.Context, projectID string) error {
	return b.run(ctx, func(b *Board) error {
		return b.refreshProject(ctx, projectID)
	})
}

func (b *Board) refreshProject(ctx context.Context, projectID string) error {
	tickets, err := b.store.TicketsOf(ctx, projectID)
	if err != nil {
		return err
	}
	for _, t := range tickets {
		if err := b.refresh(ctx, t.ID); err != nil {
			return err
		}
	}
	return b.updateProjectDates(ctx, projectID)
}

// EditProject applies edit to a project, stores it, gives it a ticket when it
// becomes drawn and refreshes its tickets.
func (b *Board) EditProject(ctx context.Context, projectID string, edit func(p *models.Project) error) error {
	return b.run(ctx, func(b *Board) error {
		project, err := b.store.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		if err := edit(project); err != nil {
			return err
		}
		if err := b.store.UpdateProject(ctx, project); err != nil {
			return err
		}
		if err := b.refreshProject(ctx, projectID); err != nil {
			return err
		}
		return b.ensureTicket(ctx, project)
	})
}

// ensureTicket creates and places the ticket of a drawn project that has none.
func (b *Board) ensureTicket(ctx context.Context, project *models.Project) error {
	fresh, err := b.store.NewProjects(ctx)
	if err != nil {
		return err
	}
	for _, p := range fresh {
		if p.ID != project.ID {
			continue
		}
		ticket := &models.Ticket{OwnerName: p.OwnerName, ProjectID: &project.ID}
		if err := b.store.AddTicket(ctx, ticket); err != nil {
			return err
		}
		row, col, err := b.backlogTarget(p.OwnerName)
		if err != nil {
			return err
		}
		_, err = b.move(ctx, ticket.ID, row, col, false)
		return err
	}
	return nil
}

// ProjectAt returns the project of the ticket drawn at (row, col), or nil.
func (b *Board) ProjectAt(ctx context.Context, row, col int) (*models.Project, error) {
	ticket, err := b.TicketAt(ctx, row, col)
	if err != nil || ticket == nil || ticket.ProjectID == nil {
		return nil, err
	}
	return b.store.GetProjectOrNone(ctx, *ticket.ProjectID)
}
