package model

import (
	"fmt"
	"time"
)

// UserCategory selects which rate applies to a reservation.
type UserCategory string

const (
	CategoryGeneral    UserCategory = "general"
	CategoryStudent    UserCategory = "student"
	CategoryIndividual UserCategory = "individual"
	CategoryBand       UserCategory = "band"
)

// PricingKind discriminates the pricing variants.
type PricingKind string

const (
	PricingPerSlot PricingKind = "per_slot" // 30-minute unit, general/student rates
	PricingPerHour PricingKind = "per_hour" // 1-hour unit, individual/band rates
)

// Pricing is a tagged variant: exactly one of the rate pairs is meaningful
// depending on Kind. Selected by studio configuration, never by area.
type Pricing struct {
	Kind           PricingKind `json:"kind" yaml:"kind"`
	GeneralRate    int64       `json:"general_rate,omitempty" yaml:"general_rate,omitempty"`
	StudentRate    int64       `json:"student_rate,omitempty" yaml:"student_rate,omitempty"`
	IndividualRate int64       `json:"individual_rate,omitempty" yaml:"individual_rate,omitempty"`
	BandRate       int64       `json:"band_rate,omitempty" yaml:"band_rate,omitempty"`
}

// Rate returns the unit rate for a category, or an error when the category
// does not belong to this pricing model.
func (p Pricing) Rate(category UserCategory) (int64, error) {
	switch p.Kind {
	case PricingPerSlot:
		switch category {
		case CategoryGeneral:
			return p.GeneralRate, nil
		case CategoryStudent:
			return p.StudentRate, nil
		}
	case PricingPerHour:
		switch category {
		case CategoryIndividual:
			return p.IndividualRate, nil
		case CategoryBand:
			return p.BandRate, nil
		}
	}
	return 0, fmt.Errorf("category %q not valid for %s pricing", category, p.Kind)
}

// Studio is a single bookable room within an area.
type Studio struct {
	ID        string    `json:"id"`
	Area      string    `json:"area"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	Capacity  int       `json:"capacity"`
	Equipment []string  `json:"equipment,omitempty"` // display-only metadata
	Features  []string  `json:"features,omitempty"`
	Pricing   Pricing   `json:"pricing"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
