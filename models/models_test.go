package models

import (
	"errors"
	"testing"
)

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"John Doe":         "JD",
		"Ann Lee":          "AL",
		"Jean Paul Sartre": "JPS",
		"Plato":            "P",
	}
	for name, want := range tests {
		if got := (Member{Name: name}).Initials(); got != want {
			t.Errorf("Expected initials %s for %s, got %s", want, name, got)
		}
	}
}

func TestNextKey(t *testing.T) {
	got, err := NextKey("JD", "")
	if err != nil {
		t.Fatalf("NextKey failed: %v", err)
	}
	if got != "JD00001" {
		t.Errorf("Expected JD00001, got %s", got)
	}

	got, err = NextKey("JD", "JD00041")
	if err != nil {
		t.Fatalf("NextKey failed: %v", err)
	}
	if got != "JD00042" {
		t.Errorf("Expected JD00042, got %s", got)
	}

	if _, err := NextKey("JD", "AL00003"); err == nil {
		t.Error("Expected an error for a key with other initials")
	}
}

func TestProjectDuration(t *testing.T) {
	tests := []struct {
		charge float64
		ftp    int
		want   int
	}{
		{4, 50, 8},
		{1, 100, 1},
		{1.5, 100, 2},
		{3, 70, 5},
		{0, 80, 0},
		{2.2, 100, 3},
	}
	for _, tt := range tests {
		if got := ProjectDuration(tt.charge, tt.ftp); got != tt.want {
			t.Errorf("ProjectDuration(%v, %d): expected %d, got %d", tt.charge, tt.ftp, tt.want, got)
		}
	}
}

func TestTicketLength(t *testing.T) {
	drawn := &ProjectContext{Drawn: true, Duration: 8}

	tests := []struct {
		name   string
		ticket Ticket
		pc     *ProjectContext
		want   int
	}{
		{"derived from project", Ticket{Advancement: 2}, drawn, 6},
		{"explicit duration wins", Ticket{Duration: 3, Advancement: 1}, drawn, 2},
		{"other tickets take their share", Ticket{}, &ProjectContext{Drawn: true, Duration: 8, OtherTicketsDuration: 5}, 3},
		{"never negative", Ticket{Advancement: 10}, drawn, 0},
		{"status not drawn", Ticket{Duration: 4}, &ProjectContext{Drawn: false, Duration: 8}, 0},
		{"no project", Ticket{Duration: 2}, nil, 2},
		{"no project and no duration", Ticket{}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ticket.Length(tt.pc); got != tt.want {
				t.Errorf("Expected length %d, got %d", tt.want, got)
			}
		})
	}
}

func TestTicketTitle(t *testing.T) {
	p := &Project{Name: "Migration"}
	if got := (Ticket{Description: "Phase 2"}).Title(p); got != "Phase 2" {
		t.Errorf("Expected description as title, got %s", got)
	}
	if got := (Ticket{}).Title(p); got != "Migration" {
		t.Errorf("Expected project name as title, got %s", got)
	}
	if got := (Ticket{}).Title(nil); got != "N/A" {
		t.Errorf("Expected N/A, got %s", got)
	}
}

func TestProjectFields(t *testing.T) {
	fields := NewProjectFields("02/01/2006")
	p := &Project{ID: "JD00001", Name: "Old", Charge: 2}

	if err := fields.Set(ProjectFieldName, p, "New"); err != nil {
		t.Fatalf("Set name failed: %v", err)
	}
	if p.Name != "New" {
		t.Errorf("Expected name New, got %s", p.Name)
	}

	if err := fields.Set(ProjectFieldDeadline, p, "15/03/2026"); err != nil {
		t.Fatalf("Set deadline failed: %v", err)
	}
	if got := fields.Get(ProjectFieldDeadline, p); got != "15/03/2026" {
		t.Errorf("Expected deadline 15/03/2026, got %s", got)
	}

	if err := fields.Set(ProjectFieldCharge, p, "3.5"); err != nil {
		t.Fatalf("Set charge failed: %v", err)
	}
	if p.Charge != 3.5 {
		t.Errorf("Expected charge 3.5, got %v", p.Charge)
	}
	if err := fields.Set(ProjectFieldCharge, p, "-1"); err == nil {
		t.Error("Expected negative charge to be rejected")
	}

	if err := fields.Set(ProjectFieldStatus, p, ""); err != nil {
		t.Fatalf("Set status failed: %v", err)
	}
	if p.StatusName != StatusActive {
		t.Errorf("Expected empty status to default to active, got %s", p.StatusName)
	}

	if err := fields.Set(ProjectFieldEndDate, p, "01/01/2026"); !errors.Is(err, ErrReadOnlyField) {
		t.Errorf("Expected ErrReadOnlyField, got %v", err)
	}

	f, ok := fields.Lookup("systems")
	if !ok || f != ProjectFieldSystems {
		t.Errorf("Expected lookup of systems to succeed, got %v %v", f, ok)
	}
	if len(fields.Fields()) != 14 {
		t.Errorf("Expected 14 project fields, got %d", len(fields.Fields()))
	}
}

func TestTicketFields(t *testing.T) {
	fields := NewTicketFields()
	tk := &Ticket{}

	if err := fields.Set(TicketFieldIsFixed, tk, "true"); err != nil {
		t.Fatalf("Set is_fixed failed: %v", err)
	}
	if !tk.IsFixed {
		t.Error("Expected ticket to be fixed")
	}
	if err := fields.Set(TicketFieldDuration, tk, "4"); err != nil {
		t.Fatalf("Set duration failed: %v", err)
	}
	if got := fields.Get(TicketFieldDuration, tk); got != "4" {
		t.Errorf("Expected duration 4, got %s", got)
	}
	if err := fields.Set(TicketFieldAdvancement, tk, "abc"); err == nil {
		t.Error("Expected a parse error for advancement")
	}
}

func TestMemberValidate(t *testing.T) {
	if err := (Member{Name: "Ann Lee", FreeTimePercentage: 50}).Validate(); err != nil {
		t.Errorf("Expected valid member, got %v", err)
	}
	if err := (Member{Name: "Ann Lee", FreeTimePercentage: 0}).Validate(); err == nil {
		t.Error("Expected 0% to be rejected")
	}
	if err := (Member{Name: " ", FreeTimePercentage: 50}).Validate(); err == nil {
		t.Error("Expected blank name to be rejected")
	}
}
