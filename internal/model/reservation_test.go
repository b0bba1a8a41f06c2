package model

import (
	"testing"
	"time"

	"yoyaku/internal/timegrid"
)

func TestReservationOverlapsWith(t *testing.T) {
	g := timegrid.Default

	base := Reservation{
		StudioID:  "onpukan-a",
		Date:      "2026-01-20",
		StartTime: "10:00",
		EndTime:   "11:00",
	}

	tests := []struct {
		name  string
		other Reservation
		want  bool
	}{
		{
			name:  "identical range",
			other: Reservation{StudioID: "onpukan-a", Date: "2026-01-20", StartTime: "10:00", EndTime: "11:00"},
			want:  true,
		},
		{
			name:  "partial overlap",
			other: Reservation{StudioID: "onpukan-a", Date: "2026-01-20", StartTime: "10:30", EndTime: "11:30"},
			want:  true,
		},
		{
			name:  "adjacent before",
			other: Reservation{StudioID: "onpukan-a", Date: "2026-01-20", StartTime: "09:00", EndTime: "10:00"},
			want:  false,
		},
		{
			name:  "adjacent after",
			other: Reservation{StudioID: "onpukan-a", Date: "2026-01-20", StartTime: "11:00", EndTime: "12:00"},
			want:  false,
		},
		{
			name:  "different studio",
			other: Reservation{StudioID: "onpukan-b", Date: "2026-01-20", StartTime: "10:00", EndTime: "11:00"},
			want:  false,
		},
		{
			name:  "different date",
			other: Reservation{StudioID: "onpukan-a", Date: "2026-01-21", StartTime: "10:00", EndTime: "11:00"},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.OverlapsWith(&tt.other, g); got != tt.want {
				t.Errorf("OverlapsWith = %v, want %v", got, tt.want)
			}
			if got := tt.other.OverlapsWith(&base, g); got != tt.want {
				t.Errorf("OverlapsWith not symmetric")
			}
		})
	}
}

func TestReservationStartsAt(t *testing.T) {
	r := Reservation{Date: "2026-01-20", StartTime: "18:30"}
	got, err := r.StartsAt(time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 1, 20, 18, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("StartsAt = %v, want %v", got, want)
	}
}

func TestPricingRate(t *testing.T) {
	perSlot := Pricing{Kind: PricingPerSlot, GeneralRate: 800, StudentRate: 550}
	perHour := Pricing{Kind: PricingPerHour, IndividualRate: 1000, BandRate: 1800}

	if rate, err := perSlot.Rate(CategoryGeneral); err != nil || rate != 800 {
		t.Errorf("general rate = %d, %v", rate, err)
	}
	if rate, err := perSlot.Rate(CategoryStudent); err != nil || rate != 550 {
		t.Errorf("student rate = %d, %v", rate, err)
	}
	if _, err := perSlot.Rate(CategoryBand); err == nil {
		t.Error("band category should not apply to per-slot pricing")
	}
	if rate, err := perHour.Rate(CategoryBand); err != nil || rate != 1800 {
		t.Errorf("band rate = %d, %v", rate, err)
	}
	if _, err := perHour.Rate(CategoryGeneral); err == nil {
		t.Error("general category should not apply to per-hour pricing")
	}
}
