package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"planboard/models"
)

// AddProject adds a new project to the database. The key must already be set.
func (s *Store) AddProject(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		return fmt.Errorf("invalid project: key is empty")
	}

	// Set default status if not provided
	if project.StatusName == "" {
		project.StatusName = models.StatusActive
	}

	// Validate status
	if _, err := s.GetStatus(ctx, project.StatusName); err != nil {
		return fmt.Errorf("invalid status %q: %w", project.StatusName, err)
	}

	if project.Charge < 0 {
		return fmt.Errorf("invalid charge for project %s: %v", project.ID, project.Charge)
	}

	if err := s.with(ctx).Create(project).Error; err != nil {
		return fmt.Errorf("failed to add project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by its key.
func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := s.with(ctx).Where("id = ?", id).First(&project).Error; err != nil {
		return nil, notFound(err, "project "+id)
	}
	return &project, nil
}

// GetProjectOrNone retrieves a project by its key, or nil when it does not exist.
func (s *Store) GetProjectOrNone(ctx context.Context, id string) (*models.Project, error) {
	var projects []models.Project
	if err := s.with(ctx).Where("id = ?", id).Limit(1).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve project: %w", err)
	}
	if len(projects) == 0 {
		return nil, nil
	}
	return &projects[0], nil
}

// UpdateProject updates an existing project.
func (s *Store) UpdateProject(ctx context.Context, project *models.Project) error {
	if _, err := s.GetStatus(ctx, project.StatusName); err != nil {
		return fmt.Errorf("invalid status %q: %w", project.StatusName, err)
	}
	if err := s.with(ctx).Save(project).Error; err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// UpdateProjectDates stores the computed start and end dates of a project.
func (s *Store) UpdateProjectDates(ctx context.Context, id string, start, end *time.Time) error {
	result := s.with(ctx).Model(&models.Project{}).Where("id = ?", id).
		Updates(map[string]interface{}{"start_date": nullable(start), "end_date": nullable(end)})
	if result.Error != nil {
		return fmt.Errorf("failed to update dates of project %s: %w", id, result.Error)
	}
	return nil
}

func nullable(d *time.Time) interface{} {
	if d == nil {
		return gorm.Expr("NULL")
	}
	return *d
}

// DeleteProject deletes a project row. Its tickets must be deleted first.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if err := s.with(ctx).Where("id = ?", id).Delete(&models.Project{}).Error; err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// ListProjectsByOwner retrieves a member's projects sorted by key.
func (s *Store) ListProjectsByOwner(ctx context.Context, owner string) ([]models.Project, error) {
	var projects []models.Project
	if err := s.with(ctx).Where("owner = ?", owner).Order("id").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve projects of %s: %w", owner, err)
	}
	return projects, nil
}

// LastProjectKey returns the highest project key made of initials followed by
// a sequence number, or "" when there is none.
func (s *Store) LastProjectKey(ctx context.Context, initials string) (string, error) {
	var keys []string
	err := s.with(ctx).Model(&models.Project{}).
		Where("id LIKE ?", initials+"%").
		Order("id DESC").
		Pluck("id", &keys).Error
	if err != nil {
		return "", fmt.Errorf("failed to retrieve last project key: %w", err)
	}
	// LIKE is case-insensitive and "J" also matches "JD00001".
	for _, key := range keys {
		if isKeyOf(key, initials) {
			return key, nil
		}
	}
	return "", nil
}

func isKeyOf(key, initials string) bool {
	if !strings.HasPrefix(key, initials) || len(key) != len(initials)+models.KeyDigits {
		return false
	}
	for _, r := range key[len(initials):] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NextProjectKey returns the next available project key for member.
func (s *Store) NextProjectKey(ctx context.Context, member *models.Member) (string, error) {
	initials := member.Initials()
	last, err := s.LastProjectKey(ctx, initials)
	if err != nil {
		return "", err
	}
	return models.NextKey(initials, last)
}

// NewProjects lists the projects that should be on the grid but have no ticket
// yet: drawn status, non-zero charge, no ticket.
func (s *Store) NewProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.with(ctx).
		Joins("JOIN status ON status.name = project.status").
		Where("project.charge <> 0 AND status.is_drawn = ?", true).
		Where("NOT EXISTS (SELECT 1 FROM ticket WHERE ticket.project = project.id)").
		Order("project.id").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve new projects: %w", err)
	}
	return projects, nil
}

// ProjectContext gathers what ticket t needs from its project to compute its
// length. It returns nil for a ticket without a project.
func (s *Store) ProjectContext(ctx context.Context, t *models.Ticket) (*models.ProjectContext, error) {
	if t.ProjectID == nil {
		return nil, nil
	}
	project, err := s.GetProjectOrNone(ctx, *t.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, nil
	}
	status, err := s.GetStatus(ctx, project.StatusName)
	if err != nil {
		return nil, err
	}
	owner, err := s.GetMember(ctx, project.OwnerName)
	if err != nil {
		return nil, err
	}

	var others int64
	err = s.with(ctx).Model(&models.Ticket{}).
		Where("project = ? AND id <> ?", project.ID, t.ID).
		Select("COALESCE(SUM(duration), 0)").
		Scan(&others).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum ticket durations of %s: %w", project.ID, err)
	}

	return &models.ProjectContext{
		Project:              project,
		Drawn:                status.IsDrawn,
		Duration:             models.ProjectDuration(project.Charge, owner.FreeTimePercentage),
		OtherTicketsDuration: int(others),
	}, nil
}

// TicketLength computes the number of cells ticket t needs.
func (s *Store) TicketLength(ctx context.Context, t *models.Ticket) (int, error) {
	pc, err := s.ProjectContext(ctx, t)
	if err != nil {
		return 0, err
	}
	return t.Length(pc), nil
}
