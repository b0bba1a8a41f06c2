// Package availability derives per-slot studio availability by layering
// business hours, recurring and one-off blocks, and confirmed reservations.
package availability

import (
	"context"
	"fmt"
	"time"

	"yoyaku/internal/model"
	"yoyaku/internal/timegrid"
)

// SlotState is the availability of one slot after all layers are applied.
type SlotState int

const (
	ClosedByHours SlotState = iota
	Open
	ClosedByWeeklyBlock
	ClosedByDateBlock
	Reserved
)

// String names the state for user-facing messaging.
func (s SlotState) String() string {
	switch s {
	case Open:
		return "open"
	case ClosedByHours:
		return "closed"
	case ClosedByWeeklyBlock:
		return "weekly_block"
	case ClosedByDateBlock:
		return "date_block"
	case Reserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// IsOpen reports whether the slot can still be booked.
func (s SlotState) IsOpen() bool {
	return s == Open
}

// StudioStore reads studios.
type StudioStore interface {
	GetStudio(ctx context.Context, id string) (*model.Studio, error)
	ListActiveStudios(ctx context.Context, area string) ([]model.Studio, error)
}

// HoursStore reads business hours and blocks.
type HoursStore interface {
	GetBusinessHours(ctx context.Context, area string, day time.Weekday) (*model.BusinessHours, error)
	ListWeeklyBlocks(ctx context.Context, studioID string, day time.Weekday) ([]model.WeeklyBlock, error)
	ListDateBlocks(ctx context.Context, studioID, date string) ([]model.DateBlock, error)
}

// ReservationStore reads confirmed reservations.
type ReservationStore interface {
	ListConfirmedReservations(ctx context.Context, studioID, date string) ([]model.Reservation, error)
}

// Resolver computes slot availability for studios.
type Resolver struct {
	grid         timegrid.Grid
	studios      StudioStore
	hours        HoursStore
	reservations ReservationStore
}

// NewResolver creates a resolver over the given stores.
func NewResolver(grid timegrid.Grid, studios StudioStore, hours HoursStore, reservations ReservationStore) *Resolver {
	return &Resolver{
		grid:         grid,
		studios:      studios,
		hours:        hours,
		reservations: reservations,
	}
}

// Grid returns the grid the resolver operates on.
func (r *Resolver) Grid() timegrid.Grid {
	return r.grid
}

// DaySlots holds the resolved state of every slot of one studio-day.
type DaySlots struct {
	StudioID string
	Date     string
	States   []SlotState
}

// OpenRange reports whether every slot of the range is open; when not, it
// returns the state of the first blocking slot.
func (d DaySlots) OpenRange(rng timegrid.Range) (bool, SlotState) {
	for idx := rng.Start; idx < rng.End; idx++ {
		if idx < 0 || idx >= len(d.States) {
			return false, ClosedByHours
		}
		if !d.States[idx].IsOpen() {
			return false, d.States[idx]
		}
	}
	return true, Open
}

// ParseDate validates a calendar date in the wire format.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return t, nil
}

// ResolveDay produces the per-slot state for one studio on one date by
// applying the layers in order. Later layers only narrow availability: once a
// slot is closed by any layer, no later layer reopens it. A fully closed day
// is a valid result, not an error.
func (r *Resolver) ResolveDay(ctx context.Context, studioID, date string) (DaySlots, error) {
	day, err := ParseDate(date)
	if err != nil {
		return DaySlots{}, err
	}

	studio, err := r.studios.GetStudio(ctx, studioID)
	if err != nil {
		return DaySlots{}, fmt.Errorf("studio %s: %w", studioID, err)
	}

	states := make([]SlotState, r.grid.Slots)
	result := DaySlots{StudioID: studioID, Date: date, States: states}

	// Layer 1: everything starts closed; only business hours open slots.
	hours, err := r.hours.GetBusinessHours(ctx, studio.Area, day.Weekday())
	if err != nil {
		return DaySlots{}, fmt.Errorf("business hours %s/%s: %w", studio.Area, day.Weekday(), err)
	}
	if hours.IsClosed {
		return result, nil
	}

	open, err := timegrid.ParseClock(hours.OpenTime)
	if err != nil {
		return DaySlots{}, fmt.Errorf("business hours %s: %w", studio.Area, err)
	}
	closeAt, err := timegrid.ParseClock(hours.CloseTime)
	if err != nil {
		return DaySlots{}, fmt.Errorf("business hours %s: %w", studio.Area, err)
	}
	for idx := range states {
		clock, _ := r.grid.TimeOf(idx)
		if clock >= open && clock+timegrid.ClockTime(r.grid.SlotMinutes) <= closeAt {
			states[idx] = Open
		}
	}

	// Layer 2: recurring weekly blocks.
	weekly, err := r.hours.ListWeeklyBlocks(ctx, studioID, day.Weekday())
	if err != nil {
		return DaySlots{}, fmt.Errorf("weekly blocks %s: %w", studioID, err)
	}
	for _, b := range weekly {
		if err := closeClockRange(r.grid, states, b.StartTime, b.EndTime, ClosedByWeeklyBlock); err != nil {
			return DaySlots{}, fmt.Errorf("weekly block %d: %w", b.ID, err)
		}
	}

	// Layer 3: date-specific blocks.
	dated, err := r.hours.ListDateBlocks(ctx, studioID, date)
	if err != nil {
		return DaySlots{}, fmt.Errorf("date blocks %s: %w", studioID, err)
	}
	for _, b := range dated {
		if err := closeClockRange(r.grid, states, b.StartTime, b.EndTime, ClosedByDateBlock); err != nil {
			return DaySlots{}, fmt.Errorf("date block %d: %w", b.ID, err)
		}
	}

	// Layer 4: confirmed reservations.
	reservations, err := r.reservations.ListConfirmedReservations(ctx, studioID, date)
	if err != nil {
		return DaySlots{}, fmt.Errorf("reservations %s: %w", studioID, err)
	}
	for _, res := range reservations {
		if err := closeClockRange(r.grid, states, res.StartTime, res.EndTime, Reserved); err != nil {
			return DaySlots{}, fmt.Errorf("reservation %s: %w", res.Code, err)
		}
	}

	return result, nil
}

// closeClockRange marks the slots covered by [start, end) with state, only
// overriding slots that are currently open.
func closeClockRange(g timegrid.Grid, states []SlotState, start, end string, state SlotState) error {
	startC, err := timegrid.ParseClock(start)
	if err != nil {
		return err
	}
	endC, err := timegrid.ParseClock(end)
	if err != nil {
		return err
	}
	rng := g.ClipRange(startC, endC)
	for idx := rng.Start; idx < rng.End && idx < len(states); idx++ {
		if states[idx] == Open {
			states[idx] = state
		}
	}
	return nil
}
