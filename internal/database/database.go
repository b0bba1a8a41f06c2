// Package database implements the shared reservation store over SQLite.
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a studio or reservation does not exist.
var ErrNotFound = errors.New("not found")

// ErrOverlap is returned when an insert would overlap a confirmed
// reservation for the same studio and date.
var ErrOverlap = errors.New("overlapping reservation exists")

// DB wraps sql.DB for the reservation service.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{DB: db, path: path}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Studios (synced from studios.yaml; is_active=0 removes a studio
		// from booking without deleting its history)
		`CREATE TABLE IF NOT EXISTS studios (
			id TEXT PRIMARY KEY,
			area TEXT NOT NULL,
			name TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			capacity INTEGER NOT NULL DEFAULT 1,
			equipment TEXT,
			features TEXT,
			pricing_kind TEXT NOT NULL,
			general_rate INTEGER NOT NULL DEFAULT 0,
			student_rate INTEGER NOT NULL DEFAULT 0,
			individual_rate INTEGER NOT NULL DEFAULT 0,
			band_rate INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Business hours: one row per (area, weekday)
		`CREATE TABLE IF NOT EXISTS business_hours (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			area TEXT NOT NULL,
			day_of_week INTEGER NOT NULL,
			is_closed BOOLEAN NOT NULL DEFAULT 0,
			open_time TEXT,
			close_time TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(area, day_of_week)
		)`,

		// Recurring weekly closures per studio
		`CREATE TABLE IF NOT EXISTS weekly_blocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			studio_id TEXT NOT NULL,
			day_of_week INTEGER NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (studio_id) REFERENCES studios(id)
		)`,

		// One-off date closures per studio
		`CREATE TABLE IF NOT EXISTS date_blocks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			studio_id TEXT NOT NULL,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			reason TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (studio_id) REFERENCES studios(id)
		)`,

		// Reservations (never hard-deleted)
		`CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			code TEXT UNIQUE NOT NULL,
			studio_id TEXT NOT NULL,
			area TEXT NOT NULL,
			date TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			customer_phone TEXT NOT NULL,
			category TEXT NOT NULL,
			price INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'confirmed',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			cancelled_at DATETIME,
			FOREIGN KEY (studio_id) REFERENCES studios(id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_studios_area ON studios(area, is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_weekly_blocks_studio ON weekly_blocks(studio_id, day_of_week)`,
		`CREATE INDEX IF NOT EXISTS idx_date_blocks_studio ON date_blocks(studio_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_studio_date ON reservations(studio_id, date, status)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_code ON reservations(code)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
