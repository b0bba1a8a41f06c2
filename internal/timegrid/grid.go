// Package timegrid defines the canonical slot index for a business day and
// conversions between clock time and slot index.
package timegrid

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a minute-of-day value ("HH:MM" on a 24-hour clock).
type ClockTime int

// ParseClock parses "HH:MM" into a ClockTime.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, &InvalidRangeError{Input: s, Reason: "expected HH:MM"}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, &InvalidRangeError{Input: s, Reason: "invalid hour"}
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, &InvalidRangeError{Input: s, Reason: "invalid minute"}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, &InvalidRangeError{Input: s, Reason: "clock value out of bounds"}
	}
	return ClockTime(hour*60 + minute), nil
}

// String formats the clock time back to "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// OutOfRangeError reports a time outside the grid.
type OutOfRangeError struct {
	Time ClockTime
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("time %s is outside the booking grid", e.Time)
}

// InvalidRangeError reports a malformed time or range.
type InvalidRangeError struct {
	Input  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid time range %q: %s", e.Input, e.Reason)
}

// Grid maps clock times to fixed-width slot indices. Origin and length are
// configuration, slot width is fixed at 30 minutes across the system.
type Grid struct {
	Origin      ClockTime // earliest bookable time, e.g. 09:00
	SlotMinutes int       // width of one slot
	Slots       int       // number of slots in a business day
}

// Default is the production grid: 09:00-22:00 in 30-minute steps.
var Default = Grid{Origin: 9 * 60, SlotMinutes: 30, Slots: 26}

// End returns the exclusive end of the grid.
func (g Grid) End() ClockTime {
	return g.Origin + ClockTime(g.Slots*g.SlotMinutes)
}

// SlotIndex converts a clock time to its slot index. The time must lie on a
// slot boundary within the grid.
func (g Grid) SlotIndex(t ClockTime) (int, error) {
	if t < g.Origin || t >= g.End() {
		return 0, &OutOfRangeError{Time: t}
	}
	offset := int(t - g.Origin)
	if offset%g.SlotMinutes != 0 {
		return 0, &InvalidRangeError{Input: t.String(), Reason: "not on a slot boundary"}
	}
	return offset / g.SlotMinutes, nil
}

// TimeOf converts a slot index back to the clock time of its start.
func (g Grid) TimeOf(index int) (ClockTime, error) {
	if index < 0 || index >= g.Slots {
		return 0, &OutOfRangeError{Time: g.Origin + ClockTime(index*g.SlotMinutes)}
	}
	return g.Origin + ClockTime(index*g.SlotMinutes), nil
}

// Range is a contiguous half-open slot interval [Start, End).
type Range struct {
	Start int
	End   int
}

// SlotCount returns the number of slots covered by the range.
func (r Range) SlotCount() int {
	return r.End - r.Start
}

// Minutes returns the duration of the range in minutes on the given grid.
func (r Range) Minutes(g Grid) int {
	return r.SlotCount() * g.SlotMinutes
}

// Contains reports whether the slot index falls inside the range.
func (r Range) Contains(index int) bool {
	return index >= r.Start && index < r.End
}

// Overlaps reports whether two half-open ranges intersect.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Clocks returns the start and exclusive end clock times of the range.
func (r Range) Clocks(g Grid) (ClockTime, ClockTime) {
	return g.Origin + ClockTime(r.Start*g.SlotMinutes), g.Origin + ClockTime(r.End*g.SlotMinutes)
}

// Format renders the range back to the "HH:MM-HH:MM" wire format.
func (r Range) Format(g Grid) string {
	start, end := r.Clocks(g)
	return start.String() + "-" + end.String()
}

// ParseRange decomposes a "HH:MM-HH:MM" string into a slot range on the grid.
// The end must be strictly after the start and both ends must lie on slot
// boundaries inside the grid (the end may coincide with the grid end).
func (g Grid) ParseRange(s string) (Range, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Range{}, &InvalidRangeError{Input: s, Reason: "expected HH:MM-HH:MM"}
	}

	start, err := ParseClock(parts[0])
	if err != nil {
		return Range{}, err
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return Range{}, err
	}

	startIdx, err := g.SlotIndex(start)
	if err != nil {
		return Range{}, err
	}

	// The end boundary is exclusive, so the grid end itself is valid.
	if end < g.Origin || end > g.End() {
		return Range{}, &OutOfRangeError{Time: end}
	}
	if int(end-g.Origin)%g.SlotMinutes != 0 {
		return Range{}, &InvalidRangeError{Input: s, Reason: "end not on a slot boundary"}
	}
	endIdx := int(end-g.Origin) / g.SlotMinutes

	if endIdx <= startIdx {
		return Range{}, &InvalidRangeError{Input: s, Reason: "end must be after start"}
	}
	return Range{Start: startIdx, End: endIdx}, nil
}

// ClipRange converts a clock interval to the slot indices it covers, clamped
// to the grid. Used for business hours and blocks, which may extend past the
// grid or not align with it; partial overlap of a slot closes the whole slot.
func (g Grid) ClipRange(start, end ClockTime) Range {
	if end <= start {
		return Range{}
	}
	if start < g.Origin {
		start = g.Origin
	}
	if end > g.End() {
		end = g.End()
	}
	if start >= end {
		return Range{}
	}
	startIdx := int(start-g.Origin) / g.SlotMinutes
	endIdx := (int(end-g.Origin) + g.SlotMinutes - 1) / g.SlotMinutes
	return Range{Start: startIdx, End: endIdx}
}

// IsContiguous reports whether the given slot indices form exactly one
// unbroken run. Callers enforce this as a precondition; gaps are never
// silently coalesced.
func IsContiguous(indices []int) bool {
	if len(indices) == 0 {
		return false
	}
	min, max := indices[0], indices[0]
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if seen[idx] {
			return false
		}
		seen[idx] = true
		if idx < min {
			min = idx
		}
		if idx > max {
			max = idx
		}
	}
	return max-min+1 == len(indices)
}
