package db

import (
	"context"
	"fmt"

	"planboard/models"
)

// AddMember adds a new team member.
func (s *Store) AddMember(ctx context.Context, member *models.Member) error {
	if err := member.Validate(); err != nil {
		return err
	}
	if err := s.with(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// GetMember retrieves a member by name.
func (s *Store) GetMember(ctx context.Context, name string) (*models.Member, error) {
	var member models.Member
	if err := s.with(ctx).Where("name = ?", name).First(&member).Error; err != nil {
		return nil, notFound(err, "member "+name)
	}
	return &member, nil
}

// ListMembers retrieves all members sorted by name.
func (s *Store) ListMembers(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	if err := s.with(ctx).Order("name").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve members: %w", err)
	}
	return members, nil
}

// UpdateMember saves a member's free time percentage.
func (s *Store) UpdateMember(ctx context.Context, member *models.Member) error {
	if err := member.Validate(); err != nil {
		return err
	}
	if err := s.with(ctx).Save(member).Error; err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return nil
}
