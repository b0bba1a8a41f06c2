package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"yoyaku/internal/config"
	"yoyaku/internal/model"
)

const studioColumns = `id, area, name, is_active, capacity, equipment, features,
	pricing_kind, general_rate, student_rate, individual_rate, band_rate,
	created_at, updated_at`

// GetStudio returns a studio by ID.
func (db *DB) GetStudio(ctx context.Context, id string) (*model.Studio, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+studioColumns+" FROM studios WHERE id = ?", id)
	s, err := scanStudio(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return s, err
}

// ListActiveStudios returns the active studios of an area, ordered by ID.
func (db *DB) ListActiveStudios(ctx context.Context, area string) ([]model.Studio, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+studioColumns+" FROM studios WHERE area = ? AND is_active = 1 ORDER BY id", area)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var studios []model.Studio
	for rows.Next() {
		s, err := scanStudio(rows)
		if err != nil {
			return nil, err
		}
		studios = append(studios, *s)
	}
	return studios, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudio(row rowScanner) (*model.Studio, error) {
	var s model.Studio
	var equipment, features sql.NullString
	err := row.Scan(
		&s.ID, &s.Area, &s.Name, &s.IsActive, &s.Capacity, &equipment, &features,
		&s.Pricing.Kind, &s.Pricing.GeneralRate, &s.Pricing.StudentRate,
		&s.Pricing.IndividualRate, &s.Pricing.BandRate,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if equipment.Valid && equipment.String != "" {
		s.Equipment = strings.Split(equipment.String, "\n")
	}
	if features.Valid && features.String != "" {
		s.Features = strings.Split(features.String, "\n")
	}
	return &s, nil
}

// SyncStudiosFromConfig upserts the studio catalog and default business hours
// from studios.yaml. Studios missing from the config are deactivated rather
// than deleted, so their reservation history survives.
func (db *DB) SyncStudiosFromConfig(ctx context.Context, cfg *config.StudiosConfig) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	seen := make(map[string]bool)

	for areaKey, area := range cfg.Areas {
		for _, sc := range area.Studios {
			seen[sc.ID] = true
			_, err := tx.ExecContext(ctx, `
				INSERT INTO studios (
					id, area, name, is_active, capacity, equipment, features,
					pricing_kind, general_rate, student_rate, individual_rate, band_rate,
					created_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					area = excluded.area,
					name = excluded.name,
					is_active = excluded.is_active,
					capacity = excluded.capacity,
					equipment = excluded.equipment,
					features = excluded.features,
					pricing_kind = excluded.pricing_kind,
					general_rate = excluded.general_rate,
					student_rate = excluded.student_rate,
					individual_rate = excluded.individual_rate,
					band_rate = excluded.band_rate,
					updated_at = excluded.updated_at`,
				sc.ID, areaKey, sc.Name, sc.IsActive, sc.Capacity,
				strings.Join(sc.Equipment, "\n"), strings.Join(sc.Features, "\n"),
				string(sc.Pricing.Kind), sc.Pricing.GeneralRate, sc.Pricing.StudentRate,
				sc.Pricing.IndividualRate, sc.Pricing.BandRate,
				now, now,
			)
			if err != nil {
				return fmt.Errorf("upsert studio %s: %w", sc.ID, err)
			}
		}

		// Seed business hours without clobbering staff edits.
		for _, h := range area.Hours {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO business_hours (area, day_of_week, is_closed, open_time, close_time, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(area, day_of_week) DO NOTHING`,
				areaKey, h.DayOfWeek, h.IsClosed, h.OpenTime, h.CloseTime, now,
			)
			if err != nil {
				return fmt.Errorf("seed hours %s/%d: %w", areaKey, h.DayOfWeek, err)
			}
		}
	}

	// Deactivate studios that disappeared from the catalog.
	rows, err := tx.QueryContext(ctx, "SELECT id FROM studios WHERE is_active = 1")
	if err != nil {
		return fmt.Errorf("list studios: %w", err)
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if !seen[id] {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx,
			"UPDATE studios SET is_active = 0, updated_at = ? WHERE id = ?", now, id); err != nil {
			return fmt.Errorf("deactivate studio %s: %w", id, err)
		}
	}

	return tx.Commit()
}
