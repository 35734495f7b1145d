package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	def := Default()
	if cfg.DaysInThePast != def.DaysInThePast || cfg.DaysInTheFuture != def.DaysInTheFuture {
		t.Errorf("Expected default window, got %d/%d", cfg.DaysInThePast, cfg.DaysInTheFuture)
	}
	if cfg.ColumnBacklogName != "Backlog" {
		t.Errorf("Expected backlog name Backlog, got %s", cfg.ColumnBacklogName)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planboard.yaml")
	content := []byte("days_in_the_past: 10\ndays_in_the_future: 40\ndate_format: \"2006-01-02\"\ncolumn_backlog_name: Attente\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("PLANBOARD_DAYS_IN_THE_FUTURE", "60")
	t.Setenv("PLANBOARD_DB", "/tmp/other.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DaysInThePast != 10 {
		t.Errorf("Expected days_in_the_past 10, got %d", cfg.DaysInThePast)
	}
	if cfg.DaysInTheFuture != 60 {
		t.Errorf("Expected env override 60, got %d", cfg.DaysInTheFuture)
	}
	if cfg.DateFormat != "2006-01-02" {
		t.Errorf("Expected date format 2006-01-02, got %s", cfg.DateFormat)
	}
	if cfg.ColumnBacklogName != "Attente" {
		t.Errorf("Expected backlog name Attente, got %s", cfg.ColumnBacklogName)
	}
	if cfg.Database != "/tmp/other.db" {
		t.Errorf("Expected database /tmp/other.db, got %s", cfg.Database)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.DaysInThePast = -1
	if err := cfg.Validate(); err == nil {
		t.Error("Expected negative days_in_the_past to be rejected")
	}

	cfg = Default()
	cfg.DateFormat = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected empty date_format to be rejected")
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Expected defaults to be valid, got %v", err)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("days_in_the_past: [oops"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected a parse error")
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	t.Setenv("PLANBOARD_DAYS_IN_THE_PAST", "thirty")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "PLANBOARD_DAYS_IN_THE_PAST") {
		t.Errorf("Expected an error naming PLANBOARD_DAYS_IN_THE_PAST, got %v", err)
	}

	t.Setenv("PLANBOARD_DAYS_IN_THE_PAST", "")
	t.Setenv("PLANBOARD_DAYS_IN_THE_FUTURE", "12x")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "PLANBOARD_DAYS_IN_THE_FUTURE") {
		t.Errorf("Expected an error naming PLANBOARD_DAYS_IN_THE_FUTURE, got %v", err)
	}
}
