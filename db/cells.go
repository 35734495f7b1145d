package db

import (
	"context"
	"fmt"

	"planboard/models"
)

// CellsOf retrieves the cells of a ticket sorted by row then column.
func (s *Store) CellsOf(ctx context.Context, ticketID uint) ([]models.Cell, error) {
	var cells []models.Cell
	if err := s.with(ctx).Where("ticket = ?", ticketID).Order("grid_row, grid_col").Find(&cells).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cells of ticket %d: %w", ticketID, err)
	}
	return cells, nil
}

// CellsOfTickets retrieves the cells of every ticket in ticketIDs.
func (s *Store) CellsOfTickets(ctx context.Context, ticketIDs []uint) ([]models.Cell, error) {
	if len(ticketIDs) == 0 {
		return nil, nil
	}
	var cells []models.Cell
	if err := s.with(ctx).Where("ticket IN ?", ticketIDs).Order("grid_row, grid_col").Find(&cells).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cells: %w", err)
	}
	return cells, nil
}

func (s *Store) edgeCellOf(ctx context.Context, ticketID uint, order string) (*models.Cell, error) {
	var cells []models.Cell
	if err := s.with(ctx).Where("ticket = ?", ticketID).Order(order).Limit(1).Find(&cells).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cell of ticket %d: %w", ticketID, err)
	}
	if len(cells) == 0 {
		return nil, nil
	}
	return &cells[0], nil
}

// FirstCellOf returns the cell of the ticket with the lowest row, or nil.
func (s *Store) FirstCellOf(ctx context.Context, ticketID uint) (*models.Cell, error) {
	return s.edgeCellOf(ctx, ticketID, "grid_row, grid_col")
}

// LastCellOf returns the cell of the ticket with the highest row, or nil.
func (s *Store) LastCellOf(ctx context.Context, ticketID uint) (*models.Cell, error) {
	return s.edgeCellOf(ctx, ticketID, "grid_row DESC, grid_col DESC")
}

// CellAt returns the cell at (row, col), or nil when it is free.
func (s *Store) CellAt(ctx context.Context, row, col int) (*models.Cell, error) {
	var cells []models.Cell
	if err := s.with(ctx).Where("grid_row = ? AND grid_col = ?", row, col).Limit(1).Find(&cells).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cell (%d, %d): %w", row, col, err)
	}
	if len(cells) == 0 {
		return nil, nil
	}
	return &cells[0], nil
}

// CellsInColumnFrom retrieves the cells of column col at or below row, sorted by row.
func (s *Store) CellsInColumnFrom(ctx context.Context, col, row int) ([]models.Cell, error) {
	var cells []models.Cell
	err := s.with(ctx).
		Where("grid_col = ? AND grid_row >= ?", col, row).
		Order("grid_row").
		Find(&cells).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cells of column %d: %w", col, err)
	}
	return cells, nil
}

// ListCells retrieves every cell sorted by row, descending when desc is set.
func (s *Store) ListCells(ctx context.Context, desc bool) ([]models.Cell, error) {
	order := "grid_row, grid_col"
	if desc {
		order = "grid_row DESC, grid_col DESC"
	}
	var cells []models.Cell
	if err := s.with(ctx).Order(order).Find(&cells).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cells: %w", err)
	}
	return cells, nil
}

// LowestCell returns the cell with the smallest row number, or nil when the grid is empty.
func (s *Store) LowestCell(ctx context.Context) (*models.Cell, error) {
	var cells []models.Cell
	if err := s.with(ctx).Order("grid_row").Limit(1).Find(&cells).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve first cell: %w", err)
	}
	if len(cells) == 0 {
		return nil, nil
	}
	return &cells[0], nil
}

// InsertCell inserts a single cell.
func (s *Store) InsertCell(ctx context.Context, cell *models.Cell) error {
	if err := s.with(ctx).Create(cell).Error; err != nil {
		return fmt.Errorf("failed to insert cell (%d, %d): %w", cell.Row, cell.Col, err)
	}
	return nil
}

// InsertCells bulk-inserts cells.
func (s *Store) InsertCells(ctx context.Context, cells []models.Cell) error {
	if len(cells) == 0 {
		return nil
	}
	if err := s.with(ctx).CreateInBatches(cells, 200).Error; err != nil {
		return fmt.Errorf("failed to insert cells: %w", err)
	}
	return nil
}

// SetCellTicket points the existing cell at (row, col) to another ticket.
func (s *Store) SetCellTicket(ctx context.Context, row, col int, ticketID uint) error {
	result := s.with(ctx).Model(&models.Cell{}).
		Where("grid_row = ? AND grid_col = ?", row, col).
		Update("ticket", ticketID)
	if result.Error != nil {
		return fmt.Errorf("failed to update cell (%d, %d): %w", row, col, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("cell (%d, %d): %w", row, col, ErrNotFound)
	}
	return nil
}

// UpdateCellFlags stores the top and bottom flags of a cell.
func (s *Store) UpdateCellFlags(ctx context.Context, cell *models.Cell) error {
	result := s.with(ctx).Model(&models.Cell{}).
		Where("grid_row = ? AND grid_col = ?", cell.Row, cell.Col).
		Updates(map[string]interface{}{"is_top_cell": cell.IsTopCell, "is_bottom_cell": cell.IsBottomCell})
	if result.Error != nil {
		return fmt.Errorf("failed to update cell (%d, %d): %w", cell.Row, cell.Col, result.Error)
	}
	return nil
}

// DeleteCell deletes the cell at (row, col).
func (s *Store) DeleteCell(ctx context.Context, row, col int) error {
	if err := s.with(ctx).Where("grid_row = ? AND grid_col = ?", row, col).Delete(&models.Cell{}).Error; err != nil {
		return fmt.Errorf("failed to delete cell (%d, %d): %w", row, col, err)
	}
	return nil
}

// DeleteCellsOf deletes every cell of a ticket and returns how many were removed.
func (s *Store) DeleteCellsOf(ctx context.Context, ticketID uint) (int64, error) {
	result := s.with(ctx).Where("ticket = ?", ticketID).Delete(&models.Cell{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete cells of ticket %d: %w", ticketID, result.Error)
	}
	return result.RowsAffected, nil
}

// CountCells returns the number of cells on the grid.
func (s *Store) CountCells(ctx context.Context) (int64, error) {
	var count int64
	if err := s.with(ctx).Model(&models.Cell{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count cells: %w", err)
	}
	return count, nil
}

// ShiftCells moves every cell up by delta rows (down when delta is negative).
// Each cell is deleted then reinserted, in the order that never makes two cells
// share a (row, column) key mid-shift. It returns the number of cells moved.
func (s *Store) ShiftCells(ctx context.Context, delta int) (int, error) {
	if delta == 0 {
		return 0, nil
	}
	cells, err := s.ListCells(ctx, delta < 0)
	if err != nil {
		return 0, err
	}
	for i := range cells {
		cell := cells[i]
		if err := s.DeleteCell(ctx, cell.Row, cell.Col); err != nil {
			return 0, err
		}
		cell.Row -= delta
		if err := s.InsertCell(ctx, &cell); err != nil {
			return 0, err
		}
	}
	return len(cells), nil
}
