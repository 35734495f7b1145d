package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrReadOnlyField is returned when setting a field that is computed.
var ErrReadOnlyField = errors.New("field is read-only")

// Accessor reads and writes one field of T as text. Set is nil for computed fields.
type Accessor[T any] struct {
	Name string
	Get  func(v *T) string
	Set  func(v *T, value string) error
}

// FieldTable maps typed field identifiers to their accessors, in display order.
type FieldTable[F comparable, T any] struct {
	order  []F
	byID   map[F]Accessor[T]
	byName map[string]F
}

func newFieldTable[F comparable, T any](entries []F, accessors []Accessor[T]) *FieldTable[F, T] {
	ft := &FieldTable[F, T]{
		order:  entries,
		byID:   make(map[F]Accessor[T], len(entries)),
		byName: make(map[string]F, len(entries)),
	}
	for i, id := range entries {
		ft.byID[id] = accessors[i]
		ft.byName[accessors[i].Name] = id
	}
	return ft
}

// Fields returns every field identifier in display order.
func (ft *FieldTable[F, T]) Fields() []F {
	return append([]F(nil), ft.order...)
}

// Name returns the external name of a field.
func (ft *FieldTable[F, T]) Name(f F) string {
	return ft.byID[f].Name
}

// Lookup finds a field by its external name.
func (ft *FieldTable[F, T]) Lookup(name string) (F, bool) {
	f, ok := ft.byName[name]
	return f, ok
}

// Get returns the text form of field f of v.
func (ft *FieldTable[F, T]) Get(f F, v *T) string {
	a, ok := ft.byID[f]
	if !ok {
		return ""
	}
	return a.Get(v)
}

// Set parses value and stores it in field f of v.
func (ft *FieldTable[F, T]) Set(f F, v *T, value string) error {
	a, ok := ft.byID[f]
	if !ok {
		return fmt.Errorf("unknown field %v", f)
	}
	if a.Set == nil {
		return fmt.Errorf("%s: %w", a.Name, ErrReadOnlyField)
	}
	if err := a.Set(v, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", a.Name, err)
	}
	return nil
}

// Writable reports whether field f can be set.
func (ft *FieldTable[F, T]) Writable(f F) bool {
	return ft.byID[f].Set != nil
}

// ProjectField identifies a field of Project.
type ProjectField int

const (
	ProjectFieldID ProjectField = iota
	ProjectFieldName
	ProjectFieldGroup
	ProjectFieldDescription
	ProjectFieldComments
	ProjectFieldOrigin
	ProjectFieldSite
	ProjectFieldTiers
	ProjectFieldSystems
	ProjectFieldStatus
	ProjectFieldDeadline
	ProjectFieldCharge
	ProjectFieldStartDate
	ProjectFieldEndDate
)

// ProjectFields is the field table of Project.
type ProjectFields = FieldTable[ProjectField, Project]

func stringField[T any](name string, ptr func(v *T) *string) Accessor[T] {
	return Accessor[T]{
		Name: name,
		Get:  func(v *T) string { return *ptr(v) },
		Set: func(v *T, value string) error {
			*ptr(v) = value
			return nil
		},
	}
}

func dateText(d *time.Time, layout string) string {
	if d == nil {
		return ""
	}
	return d.Format(layout)
}

// NewProjectFields builds the project field table. Dates use layout.
// start_date and end_date are computed by the engine and stay read-only.
func NewProjectFields(layout string) *ProjectFields {
	ids := []ProjectField{
		ProjectFieldID, ProjectFieldName, ProjectFieldGroup, ProjectFieldDescription,
		ProjectFieldComments, ProjectFieldOrigin, ProjectFieldSite, ProjectFieldTiers,
		ProjectFieldSystems, ProjectFieldStatus, ProjectFieldDeadline, ProjectFieldCharge,
		ProjectFieldStartDate, ProjectFieldEndDate,
	}
	accessors := []Accessor[Project]{
		{Name: "id", Get: func(p *Project) string { return p.ID }},
		stringField("name", func(p *Project) *string { return &p.Name }),
		stringField("group", func(p *Project) *string { return &p.Group }),
		stringField("description", func(p *Project) *string { return &p.Description }),
		stringField("comments", func(p *Project) *string { return &p.Comments }),
		stringField("origin", func(p *Project) *string { return &p.Origin }),
		stringField("site", func(p *Project) *string { return &p.Site }),
		stringField("tiers", func(p *Project) *string { return &p.Tiers }),
		stringField("systems", func(p *Project) *string { return &p.Systems }),
		{
			Name: "status",
			Get:  func(p *Project) string { return p.StatusName },
			Set: func(p *Project, value string) error {
				if value == "" {
					value = StatusActive
				}
				p.StatusName = value
				return nil
			},
		},
		{
			Name: "deadline",
			Get:  func(p *Project) string { return dateText(p.Deadline, layout) },
			Set: func(p *Project, value string) error {
				if value == "" {
					p.Deadline = nil
					return nil
				}
				d, err := time.Parse(layout, value)
				if err != nil {
					return err
				}
				p.Deadline = &d
				return nil
			},
		},
		{
			Name: "charge",
			Get:  func(p *Project) string { return strconv.FormatFloat(p.Charge, 'f', -1, 64) },
			Set: func(p *Project, value string) error {
				if value == "" {
					p.Charge = 0
					return nil
				}
				c, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
				if err != nil {
					return err
				}
				if c < 0 {
					return fmt.Errorf("charge must not be negative, got %v", c)
				}
				p.Charge = c
				return nil
			},
		},
		{Name: "start_date", Get: func(p *Project) string { return dateText(p.StartDate, layout) }},
		{Name: "end_date", Get: func(p *Project) string { return dateText(p.EndDate, layout) }},
	}
	return newFieldTable(ids, accessors)
}

// TicketField identifies an editable field of Ticket.
type TicketField int

const (
	TicketFieldDescription TicketField = iota
	TicketFieldDuration
	TicketFieldIsFixed
	TicketFieldAdvancement
)

// TicketFields is the field table of Ticket.
type TicketFields = FieldTable[TicketField, Ticket]

func intField(name string, ptr func(t *Ticket) *int) Accessor[Ticket] {
	return Accessor[Ticket]{
		Name: name,
		Get:  func(t *Ticket) string { return strconv.Itoa(*ptr(t)) },
		Set: func(t *Ticket, value string) error {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return err
			}
			if n < 0 {
				return fmt.Errorf("must not be negative, got %d", n)
			}
			*ptr(t) = n
			return nil
		},
	}
}

// NewTicketFields builds the ticket field table.
func NewTicketFields() *TicketFields {
	ids := []TicketField{TicketFieldDescription, TicketFieldDuration, TicketFieldIsFixed, TicketFieldAdvancement}
	accessors := []Accessor[Ticket]{
		stringField("description", func(t *Ticket) *string { return &t.Description }),
		intField("duration", func(t *Ticket) *int { return &t.Duration }),
		{
			Name: "is_fixed",
			Get:  func(t *Ticket) string { return strconv.FormatBool(t.IsFixed) },
			Set: func(t *Ticket, value string) error {
				b, err := strconv.ParseBool(strings.TrimSpace(value))
				if err != nil {
					return err
				}
				t.IsFixed = b
				return nil
			},
		},
		intField("advancement", func(t *Ticket) *int { return &t.Advancement }),
	}
	return newFieldTable(ids, accessors)
}
