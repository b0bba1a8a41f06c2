package database

import (
	"context"
	"database/sql"
	"time"

	"yoyaku/internal/model"
)

// GetBusinessHours returns the hours row for (area, weekday), or ErrNotFound
// when no row exists.
func (db *DB) GetBusinessHours(ctx context.Context, area string, day time.Weekday) (*model.BusinessHours, error) {
	var h model.BusinessHours
	var open, close sql.NullString
	var dow int
	err := db.QueryRowContext(ctx, `
		SELECT id, area, day_of_week, is_closed, open_time, close_time, updated_at
		FROM business_hours
		WHERE area = ? AND day_of_week = ?
		LIMIT 1`,
		area, int(day),
	).Scan(&h.ID, &h.Area, &dow, &h.IsClosed, &open, &close, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	h.DayOfWeek = time.Weekday(dow)
	if open.Valid {
		h.OpenTime = open.String
	}
	if close.Valid {
		h.CloseTime = close.String
	}
	return &h, nil
}

// UpdateBusinessHours sets the hours for (area, weekday). Staff tooling only.
func (db *DB) UpdateBusinessHours(ctx context.Context, h *model.BusinessHours) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO business_hours (area, day_of_week, is_closed, open_time, close_time, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(area, day_of_week) DO UPDATE SET
			is_closed = excluded.is_closed,
			open_time = excluded.open_time,
			close_time = excluded.close_time,
			updated_at = excluded.updated_at`,
		h.Area, int(h.DayOfWeek), h.IsClosed, h.OpenTime, h.CloseTime, time.Now(),
	)
	return err
}

// ListWeeklyBlocks returns the recurring blocks for (studio, weekday).
func (db *DB) ListWeeklyBlocks(ctx context.Context, studioID string, day time.Weekday) ([]model.WeeklyBlock, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, studio_id, day_of_week, start_time, end_time, reason, created_at
		FROM weekly_blocks
		WHERE studio_id = ? AND day_of_week = ?
		ORDER BY start_time`,
		studioID, int(day),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []model.WeeklyBlock
	for rows.Next() {
		var b model.WeeklyBlock
		var dow int
		var reason sql.NullString
		if err := rows.Scan(&b.ID, &b.StudioID, &dow, &b.StartTime, &b.EndTime, &reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.DayOfWeek = time.Weekday(dow)
		if reason.Valid {
			b.Reason = reason.String
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// CreateWeeklyBlock adds a recurring block for a studio.
func (db *DB) CreateWeeklyBlock(ctx context.Context, b *model.WeeklyBlock) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO weekly_blocks (studio_id, day_of_week, start_time, end_time, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.StudioID, int(b.DayOfWeek), b.StartTime, b.EndTime, b.Reason, time.Now(),
	)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

// DeleteWeeklyBlock removes a recurring block by ID.
func (db *DB) DeleteWeeklyBlock(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM weekly_blocks WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDateBlocks returns the one-off blocks for (studio, date).
func (db *DB) ListDateBlocks(ctx context.Context, studioID, date string) ([]model.DateBlock, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, studio_id, date, start_time, end_time, reason, created_at
		FROM date_blocks
		WHERE studio_id = ? AND date = ?
		ORDER BY start_time`,
		studioID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []model.DateBlock
	for rows.Next() {
		var b model.DateBlock
		var reason sql.NullString
		if err := rows.Scan(&b.ID, &b.StudioID, &b.Date, &b.StartTime, &b.EndTime, &reason, &b.CreatedAt); err != nil {
			return nil, err
		}
		if reason.Valid {
			b.Reason = reason.String
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// CreateDateBlock adds a one-off block for a studio and date.
func (db *DB) CreateDateBlock(ctx context.Context, b *model.DateBlock) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO date_blocks (studio_id, date, start_time, end_time, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		b.StudioID, b.Date, b.StartTime, b.EndTime, b.Reason, time.Now(),
	)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

// DeleteDateBlock removes a one-off block by ID.
func (db *DB) DeleteDateBlock(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, "DELETE FROM date_blocks WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
