package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"

	"planboard/calendar"
	"planboard/clock"
	"planboard/config"
	"planboard/db"
	"planboard/engine"
	"planboard/grid"
	"planboard/models"
)

type fixture struct {
	ex    *Exchanger
	store *db.Store
	board *engine.Board
	ctx   context.Context
}

// setupTestExchanger opens a temporary database with John Doe, who owns
// project JD00001 (2 days), drawn in the backlog from Thursday 7 March 2024.
func setupTestExchanger(t *testing.T) *fixture {
	t.Helper()
	store, err := db.Open(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	if err := store.AddMember(ctx, &models.Member{Name: "John Doe", FreeTimePercentage: 100}); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddProject(ctx, &models.Project{ID: "JD00001", Name: "Alpha", OwnerName: "John Doe", Charge: 2}); err != nil {
		t.Fatalf("AddProject failed: %v", err)
	}

	first := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	layout := grid.New(calendar.Workdays(first, first.AddDate(0, 0, 30)), []string{"John Doe"}, "Backlog")
	board := engine.NewBoard(store, layout, zap.NewNop(), engine.WithClock(clock.Fake(first.AddDate(0, 0, 3))))
	if err := board.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}

	cfg := config.Default()
	cfg.ExchangeDir = t.TempDir()
	return &fixture{ex: New(store, board, cfg, zap.NewNop()), store: store, board: board, ctx: ctx}
}

func readRecords(t *testing.T, path string) []map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	var records []map[string]string
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	return records
}

func writeRecords(t *testing.T, path string, records []map[string]string) {
	t.Helper()
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("Failed to marshal records: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

func TestExport(t *testing.T) {
	f := setupTestExchanger(t)

	path, n, err := f.ex.Export(f.ctx, "John Doe")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if filepath.Base(path) != "Taches JD.json" {
		t.Errorf("Expected file Taches JD.json, got %s", filepath.Base(path))
	}
	if n != 1 {
		t.Errorf("Expected 1 project exported, got %d", n)
	}

	records := readRecords(t, path)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r["id"] != "JD00001" || r["name"] != "Alpha" || r["charge"] != "2" || r["status"] != "active" {
		t.Errorf("Unexpected record %v", r)
	}
	// Only in the backlog so far
	if r["start_date"] != "" || r["end_date"] != "" {
		t.Errorf("Expected no dates, got %q - %q", r["start_date"], r["end_date"])
	}
	if _, ok := r["owner"]; ok {
		t.Error("The owner is implied by the file name and should not be exported")
	}
}

func TestExportBusy(t *testing.T) {
	f := setupTestExchanger(t)
	f.ex.cfg.ExchangeDir = filepath.Join(t.TempDir(), "missing")

	if _, _, err := f.ex.Export(f.ctx, "John Doe"); !errors.Is(err, ErrResourceBusy) {
		t.Errorf("Expected ErrResourceBusy, got %v", err)
	}
}

func TestImportAndApply(t *testing.T) {
	f := setupTestExchanger(t)
	path, _, err := f.ex.Export(f.ctx, "John Doe")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	records := readRecords(t, path)
	records[0]["name"] = "Alpha v2"
	records[0]["charge"] = "3.0"
	records[0]["status"] = ""
	records = append(records, map[string]string{"id": "", "name": "Beta", "charge": "1"})
	writeRecords(t, path, records)

	res, err := f.ex.Import(f.ctx, "John Doe")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	wantAuto := []Modification{{ProjectID: "JD00001", ProjectName: "Alpha", Field: "name", Old: "Alpha", New: "Alpha v2"}}
	if !reflect.DeepEqual(res.Auto, wantAuto) {
		t.Errorf("Expected auto %v, got %v", wantAuto, res.Auto)
	}
	wantManual := []Modification{{ProjectID: "JD00001", ProjectName: "Alpha", Field: "charge", Old: "2", New: "3.0"}}
	if !reflect.DeepEqual(res.Manual, wantManual) {
		t.Errorf("Expected manual %v, got %v", wantManual, res.Manual)
	}
	if len(res.New) != 1 || res.New[0].Name != "Beta" || res.New[0].Charge != 1 {
		t.Fatalf("Expected new project Beta, got %+v", res.New)
	}

	created, updated, err := f.ex.Apply(f.ctx, res, true)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if created != 1 || updated != 2 {
		t.Errorf("Expected 1 created and 2 updated, got %d and %d", created, updated)
	}

	alpha, _ := f.store.GetProject(f.ctx, "JD00001")
	if alpha.Name != "Alpha v2" || alpha.Charge != 3 {
		t.Errorf("Unexpected project after import %+v", alpha)
	}
	tickets, _ := f.store.TicketsOf(f.ctx, "JD00001")
	cells, _ := f.store.CellsOf(f.ctx, tickets[0].ID)
	if len(cells) != 3 {
		t.Errorf("Expected the ticket redrawn over 3 rows, got %d", len(cells))
	}

	beta, err := f.store.GetProject(f.ctx, "JD00002")
	if err != nil {
		t.Fatalf("Expected the new project stored as JD00002: %v", err)
	}
	if beta.Name != "Beta" || beta.OwnerName != "John Doe" {
		t.Errorf("Unexpected new project %+v", beta)
	}
	betaTickets, _ := f.store.TicketsOf(f.ctx, "JD00002")
	if len(betaTickets) != 1 {
		t.Fatalf("Expected a ticket for the new project, got %d", len(betaTickets))
	}
	first, _ := f.store.FirstCellOf(f.ctx, betaTickets[0].ID)
	if first == nil || first.Row != 5 || first.Col != 1 {
		t.Errorf("Expected the new ticket below Alpha in the backlog, got %+v", first)
	}
}

func TestApplyRollsBackOnFailedRedraw(t *testing.T) {
	f := setupTestExchanger(t)
	// Ann has no column on the board, so her new project cannot be drawn
	ann := &models.Member{Name: "Ann Lee", FreeTimePercentage: 50}
	if err := f.store.AddMember(f.ctx, ann); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	writeRecords(t, f.ex.FilePath(ann), []map[string]string{{"id": "", "name": "Gamma", "charge": "2"}})

	res, err := f.ex.Import(f.ctx, "Ann Lee")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(res.New) != 1 {
		t.Fatalf("Expected one new project, got %d", len(res.New))
	}
	if _, _, err := f.ex.Apply(f.ctx, res, false); err == nil {
		t.Fatal("Expected Apply to fail")
	}

	projects, err := f.store.ListProjectsByOwner(f.ctx, "Ann Lee")
	if err != nil {
		t.Fatalf("ListProjectsByOwner failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("Expected no project stored for Ann Lee, got %d", len(projects))
	}
}

func TestImportWithoutManual(t *testing.T) {
	f := setupTestExchanger(t)
	path, _, err := f.ex.Export(f.ctx, "John Doe")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	records := readRecords(t, path)
	records[0]["charge"] = "5"
	writeRecords(t, path, records)

	res, err := f.ex.Import(f.ctx, "John Doe")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if _, _, err := f.ex.Apply(f.ctx, res, false); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	alpha, _ := f.store.GetProject(f.ctx, "JD00001")
	if alpha.Charge != 2 {
		t.Errorf("Expected charge to stay 2, got %v", alpha.Charge)
	}
}

func TestImportMissingFile(t *testing.T) {
	f := setupTestExchanger(t)
	if _, err := f.ex.Import(f.ctx, "John Doe"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a missing file error, got %v", err)
	}
}

func TestAreDifferent(t *testing.T) {
	tests := []struct {
		stored, proposed string
		want             bool
	}{
		{"abc", "abc", false},
		{"", "", false},
		{"2", "2.0", false},
		{"2", "3", true},
		{"", "x", true},
		{"abc", "abd", true},
	}
	for _, tt := range tests {
		if got := areDifferent(tt.stored, tt.proposed); got != tt.want {
			t.Errorf("areDifferent(%q, %q) = %v, expected %v", tt.stored, tt.proposed, got, tt.want)
		}
	}
}

func TestModificationString(t *testing.T) {
	m := Modification{ProjectID: "JD00001", ProjectName: "Alpha", Field: "charge", Old: "2", New: "3"}
	if got := m.String(); got != "JD00001's (Alpha) charge : 2 => 3" {
		t.Errorf("Unexpected %q", got)
	}
	m.Field, m.Old, m.New = "name", "Alpha", "Beta"
	if got := m.String(); got != "JD00001's name : Alpha => Beta" {
		t.Errorf("Unexpected %q", got)
	}
}
