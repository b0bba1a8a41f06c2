package model

import "time"

// BusinessHours defines the outer bound of bookable slots for every studio in
// an area on one weekday. One row per (area, weekday) pair.
type BusinessHours struct {
	ID        int64        `json:"id"`
	Area      string       `json:"area"`
	DayOfWeek time.Weekday `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	IsClosed  bool         `json:"is_closed"`
	OpenTime  string       `json:"open_time"`  // "10:00"
	CloseTime string       `json:"close_time"` // "22:00"
	UpdatedAt time.Time    `json:"updated_at"`
}

// WeeklyBlock removes a sub-range of a weekday's slots for one studio every
// week, independent of business hours.
type WeeklyBlock struct {
	ID        int64        `json:"id"`
	StudioID  string       `json:"studio_id"`
	DayOfWeek time.Weekday `json:"day_of_week"`
	StartTime string       `json:"start_time"` // "14:00"
	EndTime   string       `json:"end_time"`   // "15:00"
	Reason    string       `json:"reason,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// DateBlock is a one-off closure for a specific calendar date, layered on top
// of weekly blocks (e.g. maintenance, private event).
type DateBlock struct {
	ID        int64     `json:"id"`
	StudioID  string    `json:"studio_id"`
	Date      string    `json:"date"`       // "2026-01-15"
	StartTime string    `json:"start_time"` // "13:00"
	EndTime   string    `json:"end_time"`   // "16:00"
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
