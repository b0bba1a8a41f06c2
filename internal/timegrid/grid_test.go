package timegrid

import (
	"errors"
	"testing"
)

func TestSlotIndexRoundTrip(t *testing.T) {
	g := Default

	for idx := 0; idx < g.Slots; idx++ {
		clock, err := g.TimeOf(idx)
		if err != nil {
			t.Fatalf("TimeOf(%d): unexpected error: %v", idx, err)
		}
		back, err := g.SlotIndex(clock)
		if err != nil {
			t.Fatalf("SlotIndex(%s): unexpected error: %v", clock, err)
		}
		if back != idx {
			t.Errorf("round trip for index %d: got %d", idx, back)
		}
	}
}

func TestSlotIndexOutOfRange(t *testing.T) {
	g := Default

	tests := []string{"08:30", "22:00", "23:00", "00:00"}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			clock, err := ParseClock(s)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, err = g.SlotIndex(clock)
			var oor *OutOfRangeError
			if !errors.As(err, &oor) {
				t.Errorf("SlotIndex(%s): expected OutOfRangeError, got %v", s, err)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	g := Default

	tests := []struct {
		input     string
		wantStart int
		wantEnd   int
		wantErr   bool
	}{
		{"09:00-09:30", 0, 1, false},
		{"10:00-11:00", 2, 4, false},
		{"21:30-22:00", 25, 26, false},
		{"09:00-22:00", 0, 26, false},
		{"11:00-10:00", 0, 0, true}, // reversed
		{"10:00-10:00", 0, 0, true}, // empty
		{"10:00", 0, 0, true},       // no dash
		{"10:15-11:00", 0, 0, true}, // off-grid start
		{"08:00-10:00", 0, 0, true}, // before origin
		{"21:30-22:30", 0, 0, true}, // past grid end
		{"aa:bb-cc:dd", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := g.ParseRange(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRange(%q): expected error, got %+v", tt.input, r)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRange(%q): unexpected error: %v", tt.input, err)
			}
			if r.Start != tt.wantStart || r.End != tt.wantEnd {
				t.Errorf("ParseRange(%q) = [%d,%d), want [%d,%d)", tt.input, r.Start, r.End, tt.wantStart, tt.wantEnd)
			}
			if r.SlotCount() != tt.wantEnd-tt.wantStart {
				t.Errorf("SlotCount = %d, want %d", r.SlotCount(), tt.wantEnd-tt.wantStart)
			}
			if r.Format(g) != tt.input {
				t.Errorf("Format = %q, want %q", r.Format(g), tt.input)
			}
		})
	}
}

func TestClipRange(t *testing.T) {
	g := Default

	mustClock := func(s string) ClockTime {
		c, err := ParseClock(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return c
	}

	tests := []struct {
		name       string
		start, end string
		want       Range
	}{
		{"inside grid", "10:00", "12:00", Range{2, 6}},
		{"clamped start", "07:00", "10:00", Range{0, 2}},
		{"clamped end", "21:00", "23:30", Range{24, 26}},
		{"partial slot closes whole slot", "10:00", "10:15", Range{2, 3}},
		{"entirely before grid", "06:00", "08:00", Range{}},
		{"reversed", "12:00", "10:00", Range{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.ClipRange(mustClock(tt.start), mustClock(tt.end))
			if got != tt.want {
				t.Errorf("ClipRange(%s,%s) = %+v, want %+v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestIsContiguous(t *testing.T) {
	tests := []struct {
		name    string
		indices []int
		want    bool
	}{
		{"single slot", []int{3}, true},
		{"contiguous run", []int{2, 3, 4}, true},
		{"unordered run", []int{4, 2, 3}, true},
		{"gap", []int{0, 2}, false}, // 09:00-09:30 plus 10:00-10:30
		{"duplicate", []int{2, 2, 3}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsContiguous(tt.indices); got != tt.want {
				t.Errorf("IsContiguous(%v) = %v, want %v", tt.indices, got, tt.want)
			}
		})
	}
}

func TestRangeOverlaps(t *testing.T) {
	tests := []struct {
		a, b Range
		want bool
	}{
		{Range{0, 2}, Range{2, 4}, false}, // adjacent
		{Range{0, 2}, Range{1, 3}, true},
		{Range{0, 4}, Range{1, 2}, true}, // contained
		{Range{0, 1}, Range{3, 4}, false},
	}

	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%+v.Overlaps(%+v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if got := tt.b.Overlaps(tt.a); got != tt.want {
			t.Errorf("overlap not symmetric for %+v / %+v", tt.a, tt.b)
		}
	}
}
