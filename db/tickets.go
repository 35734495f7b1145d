package db

import (
	"context"
	"fmt"
	"strconv"

	"planboard/models"
)

// AddTicket adds a new ticket; its ID is set on return.
func (s *Store) AddTicket(ctx context.Context, ticket *models.Ticket) error {
	if ticket.OwnerName == "" {
		return fmt.Errorf("invalid ticket: owner is empty")
	}
	if err := s.with(ctx).Create(ticket).Error; err != nil {
		return fmt.Errorf("failed to add ticket: %w", err)
	}
	return nil
}

// GetTicket retrieves a ticket by ID.
func (s *Store) GetTicket(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := s.with(ctx).Where("id = ?", id).First(&ticket).Error; err != nil {
		return nil, notFound(err, "ticket "+strconv.FormatUint(uint64(id), 10))
	}
	return &ticket, nil
}

// GetTicketOrNone retrieves a ticket by ID, or nil when it does not exist.
func (s *Store) GetTicketOrNone(ctx context.Context, id uint) (*models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.with(ctx).Where("id = ?", id).Limit(1).Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve ticket: %w", err)
	}
	if len(tickets) == 0 {
		return nil, nil
	}
	return &tickets[0], nil
}

// UpdateTicket saves every field of a ticket.
func (s *Store) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	if err := s.with(ctx).Save(ticket).Error; err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	return nil
}

// DeleteTicket deletes a ticket row. Its cells must be deleted first.
func (s *Store) DeleteTicket(ctx context.Context, id uint) error {
	if err := s.with(ctx).Where("id = ?", id).Delete(&models.Ticket{}).Error; err != nil {
		return fmt.Errorf("failed to delete ticket: %w", err)
	}
	return nil
}

// ListTickets retrieves every ticket sorted by ID.
func (s *Store) ListTickets(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.with(ctx).Order("id").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tickets: %w", err)
	}
	return tickets, nil
}

// TicketsByIDs retrieves the tickets whose ID is in ids.
func (s *Store) TicketsByIDs(ctx context.Context, ids []uint) ([]models.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tickets []models.Ticket
	if err := s.with(ctx).Where("id IN ?", ids).Order("id").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tickets: %w", err)
	}
	return tickets, nil
}

// TicketsOf retrieves the tickets of a project sorted by ID.
func (s *Store) TicketsOf(ctx context.Context, projectID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	if err := s.with(ctx).Where("project = ?", projectID).Order("id").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tickets of %s: %w", projectID, err)
	}
	return tickets, nil
}

// TicketsOfProjects retrieves the tickets of every project in projectIDs.
func (s *Store) TicketsOfProjects(ctx context.Context, projectIDs []string) ([]models.Ticket, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	var tickets []models.Ticket
	if err := s.with(ctx).Where("project IN ?", projectIDs).Order("id").Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve tickets: %w", err)
	}
	return tickets, nil
}

// TicketsOfByScheduled retrieves the tickets of a project with the given scheduled flag.
func (s *Store) TicketsOfByScheduled(ctx context.Context, projectID string, scheduled bool) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.with(ctx).
		Where("project = ? AND is_scheduled = ?", projectID, scheduled).
		Order("id").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tickets of %s: %w", projectID, err)
	}
	return tickets, nil
}

// TicketsWithoutCells retrieves the tickets that have no cell on the grid.
func (s *Store) TicketsWithoutCells(ctx context.Context) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.with(ctx).
		Where("NOT EXISTS (SELECT 1 FROM cell WHERE cell.ticket = ticket.id)").
		Order("id").
		Find(&tickets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tickets without cells: %w", err)
	}
	return tickets, nil
}
