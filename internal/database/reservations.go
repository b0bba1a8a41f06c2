package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"yoyaku/internal/model"
)

const reservationColumns = `id, code, studio_id, area, date, start_time, end_time,
	customer_name, customer_phone, category, price, status, created_at, cancelled_at`

// ListConfirmedReservations returns the confirmed reservations for
// (studio, date), ordered by start time.
func (db *DB) ListConfirmedReservations(ctx context.Context, studioID, date string) ([]model.Reservation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE studio_id = ? AND date = ? AND status = ?
		ORDER BY start_time`,
		studioID, date, model.StatusConfirmed,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}

// ListReservationsByDateRange returns all reservations (any status) with
// dates in [from, to], for staff reporting.
func (db *DB) ListReservationsByDateRange(ctx context.Context, from, to string) ([]model.Reservation, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE date >= ? AND date <= ?
		ORDER BY date, area, studio_id, start_time`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}

// GetReservationByCode returns a reservation by its public code.
func (db *DB) GetReservationByCode(ctx context.Context, code string) (*model.Reservation, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE code = ?", code)
	r, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return r, err
}

// CodeExists reports whether a reservation code is already taken. Uniqueness
// is global, not per studio.
func (db *DB) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE code = ?", code).Scan(&count)
	return count > 0, err
}

// InsertReservation persists a reservation, verifying inside one transaction
// that no confirmed reservation overlaps its [start,end) range on the same
// studio and date. Returns ErrOverlap when the race was lost. Times are
// fixed-width "HH:MM" strings, so lexicographic comparison in SQL matches
// time order.
func (db *DB) InsertReservation(ctx context.Context, r *model.Reservation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE studio_id = ? AND date = ? AND status = ?
		AND start_time < ? AND end_time > ?`,
		r.StudioID, r.Date, model.StatusConfirmed, r.EndTime, r.StartTime,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if count > 0 {
		return ErrOverlap
	}

	now := time.Now()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO reservations (
			code, studio_id, area, date, start_time, end_time,
			customer_name, customer_phone, category, price, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Code, r.StudioID, r.Area, r.Date, r.StartTime, r.EndTime,
		r.CustomerName, r.CustomerPhone, string(r.Category), r.Price,
		model.StatusConfirmed, now,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	r.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last id: %w", err)
	}
	r.Status = model.StatusConfirmed
	r.CreatedAt = now

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CancelReservation marks a confirmed reservation cancelled and stamps the
// cancellation time. The row is never removed. Returns ErrNotFound when no
// reservation carries the code.
func (db *DB) CancelReservation(ctx context.Context, code string) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
		UPDATE reservations
		SET status = ?, cancelled_at = ?
		WHERE code = ? AND status = ?`,
		model.StatusCancelled, now, code, model.StatusConfirmed,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Either the code is unknown or the reservation was already
		// cancelled; the caller distinguishes via GetReservationByCode.
		var count int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM reservations WHERE code = ?", code).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// CompleteReservation marks a confirmed reservation completed (staff tooling,
// after the session took place).
func (db *DB) CompleteReservation(ctx context.Context, code string) error {
	result, err := db.ExecContext(ctx, `
		UPDATE reservations SET status = ? WHERE code = ? AND status = ?`,
		model.StatusCompleted, code, model.StatusConfirmed,
	)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReservation(row rowScanner) (*model.Reservation, error) {
	var r model.Reservation
	var category string
	var cancelledAt sql.NullTime
	err := row.Scan(
		&r.ID, &r.Code, &r.StudioID, &r.Area, &r.Date, &r.StartTime, &r.EndTime,
		&r.CustomerName, &r.CustomerPhone, &category, &r.Price, &r.Status,
		&r.CreatedAt, &cancelledAt,
	)
	if err != nil {
		return nil, err
	}
	r.Category = model.UserCategory(category)
	if cancelledAt.Valid {
		r.CancelledAt = &cancelledAt.Time
	}
	return &r, nil
}
