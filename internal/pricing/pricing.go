// Package pricing computes reservation prices from a studio's rate card.
package pricing

import (
	"fmt"

	"yoyaku/internal/model"
	"yoyaku/internal/timegrid"
)

// NotHourlyError rejects a per-hour booking whose duration is not a whole
// number of hours.
type NotHourlyError struct {
	Minutes int
}

func (e *NotHourlyError) Error() string {
	return fmt.Sprintf("duration of %d minutes is not bookable by the hour", e.Minutes)
}

// CategoryError rejects a category the studio's pricing model has no rate for.
type CategoryError struct {
	Category model.UserCategory
	Kind     model.PricingKind
}

func (e *CategoryError) Error() string {
	return fmt.Sprintf("category %q is not offered under %s pricing", e.Category, e.Kind)
}

// Quote prices a slot range for a user category against a studio's rate card.
//
// Per-slot studios charge rate * slot count. Per-hour studios charge
// rate * whole hours and reject any range that is not a whole number of
// hours.
func Quote(p model.Pricing, category model.UserCategory, rng timegrid.Range, g timegrid.Grid) (int64, error) {
	rate, err := p.Rate(category)
	if err != nil {
		return 0, &CategoryError{Category: category, Kind: p.Kind}
	}

	switch p.Kind {
	case model.PricingPerSlot:
		return rate * int64(rng.SlotCount()), nil
	case model.PricingPerHour:
		minutes := rng.Minutes(g)
		if minutes%60 != 0 {
			return 0, &NotHourlyError{Minutes: minutes}
		}
		return rate * int64(minutes/60), nil
	default:
		return 0, fmt.Errorf("unknown pricing kind %q", p.Kind)
	}
}
