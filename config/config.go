// Package config loads the planning board settings from a YAML file, then lets
// environment variables override individual keys.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every setting the board reads. It is passed explicitly to the
// components that need it; there is no package-level instance.
type Config struct {
	// Database is the path of the SQLite file.
	Database string `yaml:"database"`

	// DaysInThePast and DaysInTheFuture size the displayed window around today,
	// in calendar days.
	DaysInThePast   int `yaml:"days_in_the_past"`
	DaysInTheFuture int `yaml:"days_in_the_future"`

	// DateFormat is a Go time layout used for row headers and exchange files.
	DateFormat string `yaml:"date_format"`

	// ColumnBacklogName is the header of each member's backlog lane.
	ColumnBacklogName string `yaml:"column_backlog_name"`

	// ExchangeDir holds the per-member project files used by import/export.
	ExchangeDir string `yaml:"exchange_dir"`

	// Project fields applied without confirmation on import, and those that
	// need to be accepted.
	FieldsUpdateAuto   []string `yaml:"fields_update_auto"`
	FieldsUpdateManual []string `yaml:"fields_update_manual"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// Default returns the settings used when no file provides them.
func Default() Config {
	return Config{
		Database:           "planboard.db",
		DaysInThePast:      30,
		DaysInTheFuture:    120,
		DateFormat:         "02/01/2006",
		ColumnBacklogName:  "Backlog",
		ExchangeDir:        ".",
		FieldsUpdateAuto:   []string{"name", "description", "comments", "origin", "site", "tiers", "systems"},
		FieldsUpdateManual: []string{"group", "status", "deadline", "charge"},
		LogLevel:           "info",
	}
}

// Load reads the YAML file at path on top of the defaults. An empty path or a
// missing file leaves the defaults in place. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := OverrideFromEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// OverrideFromEnv replaces settings with the PLANBOARD_* environment variables
// that are set. A window size that is not a number is an error.
func OverrideFromEnv(cfg *Config) error {
	if path := os.Getenv("PLANBOARD_DB"); path != "" {
		cfg.Database = path
	}
	if days := os.Getenv("PLANBOARD_DAYS_IN_THE_PAST"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil {
			return fmt.Errorf("invalid PLANBOARD_DAYS_IN_THE_PAST %q: %w", days, err)
		}
		cfg.DaysInThePast = n
	}
	if days := os.Getenv("PLANBOARD_DAYS_IN_THE_FUTURE"); days != "" {
		n, err := strconv.Atoi(days)
		if err != nil {
			return fmt.Errorf("invalid PLANBOARD_DAYS_IN_THE_FUTURE %q: %w", days, err)
		}
		cfg.DaysInTheFuture = n
	}
	if level := os.Getenv("PLANBOARD_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if dir := os.Getenv("PLANBOARD_EXCHANGE_DIR"); dir != "" {
		cfg.ExchangeDir = dir
	}
	return nil
}

// Validate rejects settings the engines cannot work with.
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("invalid config: database path is empty")
	}
	if c.DaysInThePast < 0 {
		return fmt.Errorf("invalid config: days_in_the_past must not be negative, got %d", c.DaysInThePast)
	}
	if c.DaysInTheFuture < 0 {
		return fmt.Errorf("invalid config: days_in_the_future must not be negative, got %d", c.DaysInTheFuture)
	}
	if c.DateFormat == "" {
		return fmt.Errorf("invalid config: date_format is empty")
	}
	if c.ColumnBacklogName == "" {
		return fmt.Errorf("invalid config: column_backlog_name is empty")
	}
	return nil
}
