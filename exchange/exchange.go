// Package exchange moves a member's projects to and from a JSON file that the
// rest of the team edits outside the board.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"planboard/config"
	"planboard/db"
	"planboard/engine"
	"planboard/models"
)

// ErrResourceBusy is returned when the exchange file cannot be written,
// typically because someone else holds it open.
var ErrResourceBusy = errors.New("exchange file is busy")

// Exchanger exports and imports the projects of one member at a time.
type Exchanger struct {
	store  *db.Store
	board  *engine.Board
	cfg    config.Config
	fields *models.ProjectFields
	log    *zap.Logger
}

// New creates an Exchanger. Imported changes are redrawn through board.
func New(store *db.Store, board *engine.Board, cfg config.Config, log *zap.Logger) *Exchanger {
	return &Exchanger{
		store:  store,
		board:  board,
		cfg:    cfg,
		fields: models.NewProjectFields(cfg.DateFormat),
		log:    log,
	}
}

// FilePath returns the exchange file of member.
func (e *Exchanger) FilePath(member *models.Member) string {
	return filepath.Join(e.cfg.ExchangeDir, "Taches "+member.Initials()+".json")
}

// Export writes every project of the member to its exchange file and returns
// the path and the number of projects written.
func (e *Exchanger) Export(ctx context.Context, memberName string) (string, int, error) {
	member, err := e.store.GetMember(ctx, memberName)
	if err != nil {
		return "", 0, err
	}
	projects, err := e.store.ListProjectsByOwner(ctx, memberName)
	if err != nil {
		return "", 0, err
	}

	data, err := json.MarshalIndent(e.projectsToRecords(projects), "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal projects: %w", err)
	}

	path := e.FilePath(member)
	if err := writeFileAtomic(path, data); err != nil {
		return "", 0, err
	}
	e.log.Info("Projects exported",
		zap.String("member", memberName),
		zap.String("path", path),
		zap.Int("projects", len(projects)),
	)
	return path, len(projects), nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".planboard-*.json")
	if err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrResourceBusy, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%s: %w: %v", path, ErrResourceBusy, err)
	}
	return nil
}

// projectsToRecords converts projects to one map of field name to text each.
func (e *Exchanger) projectsToRecords(projects []models.Project) []map[string]string {
	records := make([]map[string]string, 0, len(projects))
	for i := range projects {
		record := make(map[string]string)
		for _, f := range e.fields.Fields() {
			record[e.fields.Name(f)] = e.fields.Get(f, &projects[i])
		}
		records = append(records, record)
	}
	return records
}

// Modification is a proposed change of one field of a stored project.
type Modification struct {
	ProjectID   string
	ProjectName string
	Field       string
	Old         string
	New         string
}

func (m Modification) String() string {
	if m.Field == "name" {
		return fmt.Sprintf("%s's %s : %s => %s", m.ProjectID, m.Field, m.Old, m.New)
	}
	return fmt.Sprintf("%s's (%s) %s : %s => %s", m.ProjectID, m.ProjectName, m.Field, m.Old, m.New)
}

// Result is what an import found in the exchange file.
type Result struct {
	Member string
	// New holds projects absent from the board, not stored yet.
	New []models.Project
	// Auto holds changes applied without confirmation.
	Auto []Modification
	// Manual holds changes applied only when accepted.
	Manual []Modification
}

// Empty reports whether the file holds nothing new.
func (r *Result) Empty() bool {
	return len(r.New) == 0 && len(r.Auto) == 0 && len(r.Manual) == 0
}

// Import reads the member's exchange file and compares it with the board.
// Nothing is stored; see Apply.
func (e *Exchanger) Import(ctx context.Context, memberName string) (*Result, error) {
	member, err := e.store.GetMember(ctx, memberName)
	if err != nil {
		return nil, err
	}
	path := e.FilePath(member)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read exchange file: %w", err)
	}
	var records []map[string]string
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	res := &Result{Member: memberName}
	for _, record := range records {
		id := strings.TrimSpace(record["id"])
		var project *models.Project
		if id != "" {
			project, err = e.store.GetProjectOrNone(ctx, id)
			if err != nil {
				return nil, err
			}
		}
		if project == nil {
			p, err := e.newProject(member, id, record)
			if err != nil {
				return nil, err
			}
			res.New = append(res.New, *p)
			continue
		}

		auto, err := e.modifications(project, record, e.cfg.FieldsUpdateAuto)
		if err != nil {
			return nil, err
		}
		manual, err := e.modifications(project, record, e.cfg.FieldsUpdateManual)
		if err != nil {
			return nil, err
		}
		res.Auto = append(res.Auto, auto...)
		res.Manual = append(res.Manual, manual...)
	}

	e.log.Info("Exchange file analysed",
		zap.String("path", path),
		zap.Int("new", len(res.New)),
		zap.Int("auto", len(res.Auto)),
		zap.Int("manual", len(res.Manual)),
	)
	return res, nil
}

func (e *Exchanger) newProject(member *models.Member, id string, record map[string]string) (*models.Project, error) {
	p := &models.Project{ID: id, OwnerName: member.Name, StatusName: models.StatusActive}
	names := make([]string, 0, len(record))
	for name := range record {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := strings.TrimSpace(record[name])
		f, ok := e.fields.Lookup(name)
		if !ok {
			e.log.Warn("Unknown column in exchange file", zap.String("column", name))
			continue
		}
		if value == "" || !e.fields.Writable(f) {
			continue
		}
		if err := e.fields.Set(f, p, value); err != nil {
			return nil, fmt.Errorf("new project %q: %w", id, err)
		}
	}
	return p, nil
}

func (e *Exchanger) modifications(p *models.Project, record map[string]string, names []string) ([]Modification, error) {
	var mods []Modification
	for _, name := range names {
		f, ok := e.fields.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("invalid config: unknown project field %q", name)
		}
		value, present := record[name]
		if !present {
			continue
		}
		value = strings.TrimSpace(value)
		if f == models.ProjectFieldStatus && value == "" {
			value = models.StatusActive
		}
		old := e.fields.Get(f, p)
		if !areDifferent(old, value) {
			continue
		}
		mods = append(mods, Modification{
			ProjectID:   p.ID,
			ProjectName: p.Name,
			Field:       name,
			Old:         old,
			New:         value,
		})
	}
	return mods, nil
}

// areDifferent compares the text forms first, then the numeric forms so that
// "2" and "2.0" count as the same charge.
func areDifferent(stored, proposed string) bool {
	if stored == proposed {
		return false
	}
	a, errA := strconv.ParseFloat(stored, 64)
	b, errB := strconv.ParseFloat(proposed, 64)
	if errA != nil || errB != nil {
		return true
	}
	return a != b
}

// Apply stores the new projects and the automatic modifications, plus the
// manual ones when acceptManual is set, then redraws what changed, all in one
// transaction. It returns the number of projects created and of fields updated.
func (e *Exchanger) Apply(ctx context.Context, res *Result, acceptManual bool) (int, int, error) {
	mods := append([]Modification(nil), res.Auto...)
	if acceptManual {
		mods = append(mods, res.Manual...)
	}

	err := e.board.Update(ctx, func(b *engine.Board, tx *db.Store) error {
		member, err := tx.GetMember(ctx, res.Member)
		if err != nil {
			return err
		}
		for i := range res.New {
			p := res.New[i]
			if p.ID == "" {
				if p.ID, err = tx.NextProjectKey(ctx, member); err != nil {
					return err
				}
			}
			if err := tx.AddProject(ctx, &p); err != nil {
				return err
			}
		}

		var touched []string
		byProject := map[string][]Modification{}
		for _, m := range mods {
			if _, ok := byProject[m.ProjectID]; !ok {
				touched = append(touched, m.ProjectID)
			}
			byProject[m.ProjectID] = append(byProject[m.ProjectID], m)
		}
		for _, id := range touched {
			project, err := tx.GetProject(ctx, id)
			if err != nil {
				return err
			}
			for _, m := range byProject[id] {
				f, _ := e.fields.Lookup(m.Field)
				if err := e.fields.Set(f, project, m.New); err != nil {
					return fmt.Errorf("project %s: %w", id, err)
				}
			}
			if err := tx.UpdateProject(ctx, project); err != nil {
				return err
			}
		}

		if err := b.Bootstrap(ctx); err != nil {
			return err
		}
		tickets, err := tx.TicketsOfProjects(ctx, touched)
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(tickets))
		for _, t := range tickets {
			ids = append(ids, t.ID)
		}
		return b.RefreshGrid(ctx, ids, nil)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to apply import: %w", err)
	}

	e.log.Info("Import applied",
		zap.String("member", res.Member),
		zap.Int("new", len(res.New)),
		zap.Int("updated", len(mods)),
	)
	return len(res.New), len(mods), nil
}
