package model

import (
	"time"

	"yoyaku/internal/timegrid"
)

// Reservation statuses. Cancelled reservations are kept forever as an audit
// trail; rows are never hard-deleted.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Reservation is a confirmed claim on a contiguous slot range of one studio
// on one date. Code is the public 6-character identifier customers use to
// look up and cancel the booking.
type Reservation struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	StudioID      string       `json:"studio_id"`
	Area          string       `json:"area"`
	Date          string       `json:"date"`       // "2026-01-15"
	StartTime     string       `json:"start_time"` // "10:00"
	EndTime       string       `json:"end_time"`   // "11:00"
	CustomerName  string       `json:"customer_name"`
	CustomerPhone string       `json:"customer_phone"`
	Category      UserCategory `json:"category"`
	Price         int64        `json:"price"`
	Status        string       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	CancelledAt   *time.Time   `json:"cancelled_at,omitempty"`
}

// SlotRange converts the stored times to a slot range on the grid.
func (r *Reservation) SlotRange(g timegrid.Grid) (timegrid.Range, error) {
	return g.ParseRange(r.StartTime + "-" + r.EndTime)
}

// StartsAt returns the reservation's starting instant in the given location.
func (r *Reservation) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", r.Date+" "+r.StartTime, loc)
}

// OverlapsWith checks if two reservations claim intersecting [start,end)
// ranges on the same studio and date.
func (r *Reservation) OverlapsWith(other *Reservation, g timegrid.Grid) bool {
	if r.StudioID != other.StudioID || r.Date != other.Date {
		return false
	}
	a, err := r.SlotRange(g)
	if err != nil {
		return false
	}
	b, err := other.SlotRange(g)
	if err != nil {
		return false
	}
	return a.Overlaps(b)
}
