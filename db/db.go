package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"planboard/models"

	_ "modernc.org/sqlite" // Use pure Go SQLite driver (no CGO required)
)

// ErrNotFound is returned by the Get* lookups when no row matches the key.
var ErrNotFound = errors.New("not found")

// Store is the relational store behind the board. A Store handed to a
// Transaction callback is bound to that transaction.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open initializes the SQLite database at dbPath with the performance settings
// the board relies on, migrates the schema and seeds the statuses.
func Open(dbPath string, log *zap.Logger) (*Store, error) {
	config := &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true, // Cache prepared statements for better performance
	}

	// Add DSN parameters for proper datetime handling
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)&_time_format=sqlite"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	gdb, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Enable Write-Ahead Logging (WAL) mode
	if err := gdb.Exec("PRAGMA journal_mode = WAL;").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// NORMAL is safe in WAL mode and much faster than FULL
	if err := gdb.Exec("PRAGMA synchronous = NORMAL;").Error; err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	// SQLite only supports one writer at a time, and every operation of the
	// board runs on a single connection inside its own transaction.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	err = gdb.AutoMigrate(
		&models.FirstRow{},
		&models.Member{},
		&models.Status{},
		&models.Project{},
		&models.Ticket{},
		&models.Cell{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s := &Store{db: gdb, log: log}
	if err := s.SeedStatuses(context.Background()); err != nil {
		return nil, err
	}

	log.Info("Database initialized", zap.String("path", dbPath))
	return s, nil
}

// Transaction runs fn inside a database transaction. fn receives a Store bound
// to the transaction; returning an error rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

// Close closes the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

func (s *Store) with(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// notFound converts gorm's missing-record error into ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to retrieve %s: %w", what, err)
}

// SeedStatuses inserts the default statuses when the status table is empty.
func (s *Store) SeedStatuses(ctx context.Context) error {
	var count int64
	if err := s.with(ctx).Model(&models.Status{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count statuses: %w", err)
	}
	if count > 0 {
		return nil
	}
	statuses := append([]models.Status(nil), models.DefaultStatuses...)
	if err := s.with(ctx).Create(&statuses).Error; err != nil {
		return fmt.Errorf("failed to seed statuses: %w", err)
	}
	return nil
}

// GetStatus retrieves a status by name.
func (s *Store) GetStatus(ctx context.Context, name string) (*models.Status, error) {
	var status models.Status
	if err := s.with(ctx).Where("name = ?", name).First(&status).Error; err != nil {
		return nil, notFound(err, "status "+name)
	}
	return &status, nil
}

// ListStatuses returns every status in display order.
func (s *Store) ListStatuses(ctx context.Context) ([]models.Status, error) {
	var statuses []models.Status
	if err := s.with(ctx).Order("position").Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve statuses: %w", err)
	}
	return statuses, nil
}

// GetFirstRowOrNone returns the stored first-row marker, or nil on a fresh database.
func (s *Store) GetFirstRowOrNone(ctx context.Context) (*models.FirstRow, error) {
	var rows []models.FirstRow
	if err := s.with(ctx).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve first row: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// SetFirstRow replaces the first-row marker with date.
func (s *Store) SetFirstRow(ctx context.Context, date time.Time) error {
	if err := s.with(ctx).Where("1 = 1").Delete(&models.FirstRow{}).Error; err != nil {
		return fmt.Errorf("failed to clear first row: %w", err)
	}
	if err := s.with(ctx).Create(&models.FirstRow{Date: date}).Error; err != nil {
		return fmt.Errorf("failed to store first row: %w", err)
	}
	return nil
}
