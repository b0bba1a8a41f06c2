package availability

import (
	"context"
	"fmt"

	"yoyaku/internal/timegrid"
)

// StudioDay is the availability summary of one studio for one date.
type StudioDay struct {
	StudioID   string      `json:"studio_id"`
	StudioName string      `json:"studio_name"`
	Date       string      `json:"date"`
	Available  int         `json:"available"`
	Total      int         `json:"total"`
	Status     string      `json:"status"`
	Slots      []SlotState `json:"-"`
}

// AreaSlot aggregates one time slot across all active studios of an area,
// the way the front desk answers "how many rooms are free at 10:00".
type AreaSlot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available int    `json:"available"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
}

// AreaDay is the availability of every active studio of an area for one date.
type AreaDay struct {
	Area    string      `json:"area"`
	Date    string      `json:"date"`
	Studios []StudioDay `json:"studios"`
	Slots   []AreaSlot  `json:"slots"`
}

// Summary statuses. A studio counts as limited when its open slot count is at
// or below the configured threshold but not zero.
const (
	StatusAvailable = "available"
	StatusLimited   = "limited"
	StatusOccupied  = "occupied"
)

// Summarize condenses resolved slots into a count and a coarse status.
func Summarize(states []SlotState, limitedThreshold int) (available int, status string) {
	for _, s := range states {
		if s.IsOpen() {
			available++
		}
	}
	switch {
	case available == 0:
		status = StatusOccupied
	case available <= limitedThreshold:
		status = StatusLimited
	default:
		status = StatusAvailable
	}
	return available, status
}

// ResolveArea resolves every active studio of an area for one date. Studios
// with no open slot at all still appear, marked occupied.
func (r *Resolver) ResolveArea(ctx context.Context, area, date string, limitedThreshold int) (AreaDay, error) {
	if _, err := ParseDate(date); err != nil {
		return AreaDay{}, err
	}

	studios, err := r.studios.ListActiveStudios(ctx, area)
	if err != nil {
		return AreaDay{}, fmt.Errorf("list studios %s: %w", area, err)
	}

	result := AreaDay{Area: area, Date: date, Studios: make([]StudioDay, 0, len(studios))}
	for _, s := range studios {
		day, err := r.ResolveDay(ctx, s.ID, date)
		if err != nil {
			return AreaDay{}, err
		}
		available, status := Summarize(day.States, limitedThreshold)
		result.Studios = append(result.Studios, StudioDay{
			StudioID:   s.ID,
			StudioName: s.Name,
			Date:       date,
			Available:  available,
			Total:      len(day.States),
			Status:     status,
			Slots:      day.States,
		})
	}
	result.Slots = aggregateSlots(r.grid, result.Studios, limitedThreshold)
	return result, nil
}

// aggregateSlots counts, per time slot, how many studios are open. A slot
// with no open studio is occupied; at or below the threshold it is limited.
func aggregateSlots(g timegrid.Grid, studios []StudioDay, limitedThreshold int) []AreaSlot {
	slots := make([]AreaSlot, g.Slots)
	for i := range slots {
		start, end := (timegrid.Range{Start: i, End: i + 1}).Clocks(g)
		slots[i] = AreaSlot{
			Start: start.String(),
			End:   end.String(),
			Total: len(studios),
		}
		for _, s := range studios {
			if i < len(s.Slots) && s.Slots[i].IsOpen() {
				slots[i].Available++
			}
		}
		switch {
		case slots[i].Available == 0:
			slots[i].Status = StatusOccupied
		case slots[i].Available <= limitedThreshold:
			slots[i].Status = StatusLimited
		default:
			slots[i].Status = StatusAvailable
		}
	}
	return slots
}
