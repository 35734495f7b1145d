package models

import (
	"math"
	"time"
)

// FirstRow stores the date displayed on grid row 0 the last time the board was
// opened. The table only ever holds one row.
type FirstRow struct {
	Date time.Time `gorm:"primaryKey" json:"date"`
}

func (FirstRow) TableName() string { return "first_row" }

// Status is one entry of the fixed list of project statuses.
type Status struct {
	Name     string `gorm:"primaryKey" json:"name"`
	Position int    `gorm:"not null" json:"position"`
	// IsDrawn tells whether tickets of projects in this status appear on the grid.
	IsDrawn bool `gorm:"not null" json:"is_drawn"`
}

func (Status) TableName() string { return "status" }

// Status names with a dedicated rendering.
const (
	StatusActive    = "active"
	StatusStandBy   = "stand-by"
	StatusDelivered = "delivered"
)

// DefaultStatuses is the list seeded into an empty database.
var DefaultStatuses = []Status{
	{Name: StatusActive, Position: 1, IsDrawn: true},
	{Name: StatusStandBy, Position: 2, IsDrawn: true},
	{Name: StatusDelivered, Position: 3, IsDrawn: true},
	{Name: "cancelled", Position: 4, IsDrawn: false},
	{Name: "done", Position: 5, IsDrawn: false},
}

// Project is a piece of work requested from a member. Its key is the owner's
// initials followed by a 5-digit sequence number. A project is drawn through
// zero, one or several tickets.
type Project struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Group       string     `gorm:"column:project_group" json:"group"`
	Description string     `json:"description"`
	Comments    string     `json:"comments"`
	Origin      string     `json:"origin"`
	Site        string     `json:"site"`
	Tiers       string     `json:"tiers"`
	Systems     string     `json:"systems"`
	StatusName  string     `gorm:"column:status;not null;index" json:"status"`
	Deadline    *time.Time `json:"deadline"`
	// Charge is the number of days the work takes at 100% availability.
	Charge    float64    `gorm:"not null" json:"charge"`
	OwnerName string     `gorm:"column:owner;not null;index" json:"owner"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (Project) TableName() string { return "project" }

// ProjectDuration is the number of working days a charge takes at the owner's
// actual availability: ceil(charge / freeTimePercentage * 100).
func ProjectDuration(charge float64, freeTimePercentage int) int {
	if freeTimePercentage <= 0 || charge <= 0 {
		return 0
	}
	days := charge * 100 / float64(freeTimePercentage)
	// absorb float noise such as 8.000000000000002
	return int(math.Ceil(days - 1e-9))
}
