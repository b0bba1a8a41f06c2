package booking

import (
	"time"

	"yoyaku/internal/availability"
	"yoyaku/internal/model"
	"yoyaku/internal/timegrid"
)

// CreateRequest is a booking attempt as it arrives from the customer.
type CreateRequest struct {
	StudioID      string             `json:"studio_id"`
	Date          string             `json:"date"`       // "2026-01-15"
	TimeRange     string             `json:"time_range"` // "10:00-11:30"
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	Category      model.UserCategory `json:"category"`
}

func validCategory(c model.UserCategory) bool {
	switch c {
	case model.CategoryGeneral, model.CategoryStudent, model.CategoryIndividual, model.CategoryBand:
		return true
	}
	return false
}

// validateCreate checks the request shape and the calendar rules. Bookings
// for past dates are rejected outright; bookings for today go through the
// front desk, never online. Returns the parsed slot range, which is
// contiguous by construction.
func validateCreate(req CreateRequest, g timegrid.Grid, now time.Time, loc *time.Location) (timegrid.Range, error) {
	if req.StudioID == "" {
		return timegrid.Range{}, &ValidationError{Field: "studio_id", Reason: "required"}
	}
	if req.CustomerName == "" {
		return timegrid.Range{}, &ValidationError{Field: "customer_name", Reason: "required"}
	}
	if req.CustomerPhone == "" {
		return timegrid.Range{}, &ValidationError{Field: "customer_phone", Reason: "required"}
	}
	if !validCategory(req.Category) {
		return timegrid.Range{}, &ValidationError{Field: "category", Reason: "must be one of general, student, individual, band"}
	}

	day, err := availability.ParseDate(req.Date)
	if err != nil {
		return timegrid.Range{}, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	today := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	reqDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	if reqDay.Before(today) {
		return timegrid.Range{}, &PastDateError{Date: req.Date}
	}
	if reqDay.Equal(today) {
		return timegrid.Range{}, &SameDayError{Date: req.Date}
	}

	rng, err := g.ParseRange(req.TimeRange)
	if err != nil {
		return timegrid.Range{}, &ValidationError{Field: "time_range", Reason: err.Error()}
	}
	return rng, nil
}

// RangeFromSlots reduces a customer's slot-button selection to a single
// range. Gaps are rejected, never silently coalesced.
func RangeFromSlots(indices []int) (timegrid.Range, error) {
	if !timegrid.IsContiguous(indices) {
		return timegrid.Range{}, &ValidationError{Field: "slots", Reason: "selected slots must form one contiguous run"}
	}
	min, max := indices[0], indices[0]
	for _, idx := range indices {
		if idx < min {
			min = idx
		}
		if idx > max {
			max = idx
		}
	}
	return timegrid.Range{Start: min, End: max + 1}, nil
}

// CanCancel applies the cancellation window: a reservation may be cancelled
// until cutoff before its start, in the business timezone.
func CanCancel(r *model.Reservation, now time.Time, cutoff time.Duration, loc *time.Location) error {
	start, err := r.StartsAt(loc)
	if err != nil {
		return &ValidationError{Field: "reservation", Reason: "unparseable start time"}
	}
	if now.After(start.Add(-cutoff)) {
		return &CancellationWindowError{Code: r.Code, StartsAt: start, Cutoff: cutoff}
	}
	return nil
}
