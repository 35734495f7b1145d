package models

// Ticket is a unit of work placed on the grid as a vertical run of cells.
// A ticket without a project stands for untracked time such as holidays.
type Ticket struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	OwnerName   string  `gorm:"column:owner;not null;index" json:"owner"`
	Description string  `json:"description"`
	IsScheduled bool    `gorm:"not null" json:"is_scheduled"`
	ProjectID   *string `gorm:"column:project;index" json:"project"`
	// IsFixed tickets are never displaced by other tickets.
	IsFixed bool `gorm:"not null" json:"is_fixed"`
	// Duration overrides the project's duration when not 0.
	Duration int `gorm:"not null" json:"duration"`
	// Advancement is the number of days already done.
	Advancement int `gorm:"not null" json:"advancement"`
}

func (Ticket) TableName() string { return "ticket" }

// ProjectContext carries what a ticket needs to know about its project to
// compute its length.
type ProjectContext struct {
	Project *Project
	// Drawn is the IsDrawn flag of the project's status.
	Drawn bool
	// Duration is the project's duration at the owner's availability.
	Duration int
	// OtherTicketsDuration sums the explicit durations of the project's other tickets.
	OtherTicketsDuration int
}

// NeedsErasure reports whether the ticket must disappear from the grid because
// its project's status is no longer drawn.
func (t Ticket) NeedsErasure(pc *ProjectContext) bool {
	return pc != nil && !pc.Drawn
}

// Length returns the number of cells needed to draw the ticket. pc is nil for
// a ticket without a project.
func (t Ticket) Length(pc *ProjectContext) int {
	if t.NeedsErasure(pc) {
		return 0
	}
	duration := t.Duration
	if duration == 0 && pc != nil {
		duration = pc.Duration - pc.OtherTicketsDuration
	}
	return max(duration-t.Advancement, 0)
}

// Title is the label written on the ticket's first cell.
func (t Ticket) Title(p *Project) string {
	switch {
	case t.Description != "":
		return t.Description
	case p != nil:
		return p.Name
	default:
		return "N/A"
	}
}

// Cell is one occupied square of the grid. Row maps to a working day and Col
// to a member's lane.
type Cell struct {
	Row      int  `gorm:"column:grid_row;primaryKey;autoIncrement:false" json:"row"`
	Col      int  `gorm:"column:grid_col;primaryKey;autoIncrement:false" json:"column"`
	TicketID uint `gorm:"column:ticket;not null;index" json:"ticket"`
	// IsTopCell and IsBottomCell mark the ends of a contiguous run of the
	// ticket, where the drawing layer puts a border.
	IsTopCell    bool `gorm:"not null" json:"is_top_cell"`
	IsBottomCell bool `gorm:"not null" json:"is_bottom_cell"`
}

func (Cell) TableName() string { return "cell" }
