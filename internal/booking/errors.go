package booking

import (
	"errors"
	"fmt"
	"time"

	"yoyaku/internal/availability"
)

// ValidationError reports a request that is malformed before any business
// rule applies.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// SlotUnavailableError reports a requested range that is not fully open,
// carrying the layer that blocked it so callers can tell a closed studio from
// a taken slot.
type SlotUnavailableError struct {
	StudioID string
	Date     string
	Blocking availability.SlotState
}

func (e *SlotUnavailableError) Error() string {
	return fmt.Sprintf("studio %s is not available on %s: %s", e.StudioID, e.Date, e.Blocking)
}

// PastDateError rejects a booking for a date before today.
type PastDateError struct {
	Date string
}

func (e *PastDateError) Error() string {
	return fmt.Sprintf("date %s is in the past", e.Date)
}

// SameDayError rejects a booking for today; same-day reservations go through
// the front desk by phone.
type SameDayError struct {
	Date string
}

func (e *SameDayError) Error() string {
	return fmt.Sprintf("same-day booking for %s is not accepted online", e.Date)
}

// DuplicateBookingError reports that a conflicting reservation won the race
// between availability check and insert.
type DuplicateBookingError struct {
	StudioID string
	Date     string
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf("studio %s already has an overlapping reservation on %s", e.StudioID, e.Date)
}

// CancellationWindowError rejects a cancellation inside the cutoff window
// before the reservation starts.
type CancellationWindowError struct {
	Code     string
	StartsAt time.Time
	Cutoff   time.Duration
}

func (e *CancellationWindowError) Error() string {
	return fmt.Sprintf("reservation %s starts at %s and can no longer be cancelled (cutoff %s before start)",
		e.Code, e.StartsAt.Format("2006-01-02 15:04"), e.Cutoff)
}

// StorageError wraps an infrastructure failure so callers can distinguish it
// from a business rejection.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ErrNotFound mirrors the database sentinel for lookups by code or studio ID.
var ErrNotFound = errors.New("not found")

// RejectReason buckets an error for metrics and the API error body.
func RejectReason(err error) string {
	var (
		validation *ValidationError
		slot       *SlotUnavailableError
		past       *PastDateError
		sameDay    *SameDayError
		duplicate  *DuplicateBookingError
		window     *CancellationWindowError
		storage    *StorageError
	)
	switch {
	case errors.As(err, &validation):
		return "invalid_input"
	case errors.As(err, &slot):
		return "slot_unavailable"
	case errors.As(err, &past):
		return "past_date"
	case errors.As(err, &sameDay):
		return "same_day_not_allowed"
	case errors.As(err, &duplicate):
		return "duplicate_booking"
	case errors.As(err, &window):
		return "cancellation_window_expired"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.As(err, &storage):
		return "storage_error"
	default:
		return "invalid_input"
	}
}
