package availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yoyaku/internal/database"
	"yoyaku/internal/model"
	"yoyaku/internal/timegrid"
)

type fakeStore struct {
	studios      map[string]*model.Studio
	hours        map[string]map[time.Weekday]*model.BusinessHours
	weekly       map[string][]model.WeeklyBlock
	dated        map[string][]model.DateBlock
	reservations map[string][]model.Reservation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		studios:      make(map[string]*model.Studio),
		hours:        make(map[string]map[time.Weekday]*model.BusinessHours),
		weekly:       make(map[string][]model.WeeklyBlock),
		dated:        make(map[string][]model.DateBlock),
		reservations: make(map[string][]model.Reservation),
	}
}

func (f *fakeStore) GetStudio(_ context.Context, id string) (*model.Studio, error) {
	s, ok := f.studios[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListActiveStudios(_ context.Context, area string) ([]model.Studio, error) {
	var out []model.Studio
	for _, s := range f.studios {
		if s.Area == area && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) GetBusinessHours(_ context.Context, area string, day time.Weekday) (*model.BusinessHours, error) {
	if byDay, ok := f.hours[area]; ok {
		if h, ok := byDay[day]; ok {
			return h, nil
		}
	}
	return nil, database.ErrNotFound
}

func (f *fakeStore) ListWeeklyBlocks(_ context.Context, studioID string, day time.Weekday) ([]model.WeeklyBlock, error) {
	var out []model.WeeklyBlock
	for _, b := range f.weekly[studioID] {
		if b.DayOfWeek == day {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDateBlocks(_ context.Context, studioID, date string) ([]model.DateBlock, error) {
	var out []model.DateBlock
	for _, b := range f.dated[studioID] {
		if b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListConfirmedReservations(_ context.Context, studioID, date string) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range f.reservations[studioID] {
		if r.Date == date && r.Status == model.StatusConfirmed {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) setHours(area string, day time.Weekday, open, close string) {
	if f.hours[area] == nil {
		f.hours[area] = make(map[time.Weekday]*model.BusinessHours)
	}
	f.hours[area][day] = &model.BusinessHours{Area: area, DayOfWeek: day, OpenTime: open, CloseTime: close}
}

func (f *fakeStore) setClosed(area string, day time.Weekday) {
	if f.hours[area] == nil {
		f.hours[area] = make(map[time.Weekday]*model.BusinessHours)
	}
	f.hours[area][day] = &model.BusinessHours{Area: area, DayOfWeek: day, IsClosed: true}
}

// 2026-09-07 is a Monday.
const monday = "2026-09-07"

func testResolver(store *fakeStore) *Resolver {
	return NewResolver(timegrid.Default, store, store, store)
}

func TestResolveDayBusinessHours(t *testing.T) {
	store := newFakeStore()
	store.studios["a1"] = &model.Studio{ID: "a1", Area: "onpukan", IsActive: true}
	store.setHours("onpukan", time.Monday, "10:00", "20:00")

	day, err := testResolver(store).ResolveDay(context.Background(), "a1", monday)
	require.NoError(t, err)
	require.Len(t, day.States, 26)

	// 09:00 and 09:30 fall before opening, 20:00 onward after closing.
	assert.Equal(t, ClosedByHours, day.States[0])
	assert.Equal(t, ClosedByHours, day.States[1])
	assert.Equal(t, Open, day.States[2])  // 10:00
	assert.Equal(t, Open, day.States[21]) // 19:30
	assert.Equal(t, ClosedByHours, day.States[22])
	assert.Equal(t, ClosedByHours, day.States[25])
}

func TestResolveDayClosedDay(t *testing.T) {
	store := newFakeStore()
	store.studios["a1"] = &model.Studio{ID: "a1", Area: "onpukan", IsActive: true}
	store.setClosed("onpukan", time.Monday)

	day, err := testResolver(store).ResolveDay(context.Background(), "a1", monday)
	require.NoError(t, err)
	for _, s := range day.States {
		assert.Equal(t, ClosedByHours, s)
	}
}

func TestResolveDayLayering(t *testing.T) {
	store := newFakeStore()
	store.studios["a1"] = &model.Studio{ID: "a1", Area: "onpukan", IsActive: true}
	store.setHours("onpukan", time.Monday, "09:00", "22:00")
	store.weekly["a1"] = []model.WeeklyBlock{
		{ID: 1, StudioID: "a1", DayOfWeek: time.Monday, StartTime: "12:00", EndTime: "13:00"},
	}
	store.dated["a1"] = []model.DateBlock{
		// Overlaps the weekly block; must not reopen or reclassify it.
		{ID: 1, StudioID: "a1", Date: monday, StartTime: "12:30", EndTime: "14:00"},
	}
	store.reservations["a1"] = []model.Reservation{
		{Code: "ABC234", StudioID: "a1", Date: monday, StartTime: "13:30", EndTime: "15:00", Status: model.StatusConfirmed},
		{Code: "DEF567", StudioID: "a1", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: model.StatusCancelled},
	}

	day, err := testResolver(store).ResolveDay(context.Background(), "a1", monday)
	require.NoError(t, err)

	// Cancelled reservations are filtered by the store fake, so 09:00 is open.
	assert.Equal(t, Open, day.States[0])
	assert.Equal(t, ClosedByWeeklyBlock, day.States[6]) // 12:00
	assert.Equal(t, ClosedByWeeklyBlock, day.States[7]) // 12:30, weekly wins over date block
	assert.Equal(t, ClosedByDateBlock, day.States[8])   // 13:00
	assert.Equal(t, ClosedByDateBlock, day.States[9])   // 13:30, date block wins over reservation
	assert.Equal(t, Reserved, day.States[10])           // 14:00
	assert.Equal(t, Reserved, day.States[11])           // 14:30
	assert.Equal(t, Open, day.States[12])               // 15:00
}

func TestResolveDayInvalidDate(t *testing.T) {
	store := newFakeStore()
	store.studios["a1"] = &model.Studio{ID: "a1", Area: "onpukan", IsActive: true}

	_, err := testResolver(store).ResolveDay(context.Background(), "a1", "07-09-2026")
	assert.Error(t, err)
}

func TestResolveDayUnknownStudio(t *testing.T) {
	_, err := testResolver(newFakeStore()).ResolveDay(context.Background(), "ghost", monday)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestOpenRange(t *testing.T) {
	day := DaySlots{States: []SlotState{Open, Open, Reserved, Open}}

	ok, _ := day.OpenRange(timegrid.Range{Start: 0, End: 2})
	assert.True(t, ok)

	ok, blocking := day.OpenRange(timegrid.Range{Start: 1, End: 3})
	assert.False(t, ok)
	assert.Equal(t, Reserved, blocking)

	ok, blocking = day.OpenRange(timegrid.Range{Start: 3, End: 5})
	assert.False(t, ok)
	assert.Equal(t, ClosedByHours, blocking)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		states    []SlotState
		threshold int
		available int
		status    string
	}{
		{"all open", []SlotState{Open, Open, Open}, 2, 3, StatusAvailable},
		{"limited", []SlotState{Open, Reserved, Reserved}, 2, 1, StatusLimited},
		{"at threshold", []SlotState{Open, Open, Reserved}, 2, 2, StatusLimited},
		{"occupied", []SlotState{Reserved, ClosedByHours}, 2, 0, StatusOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			available, status := Summarize(tt.states, tt.threshold)
			assert.Equal(t, tt.available, available)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestResolveArea(t *testing.T) {
	store := newFakeStore()
	store.studios["a1"] = &model.Studio{ID: "a1", Area: "onpukan", Name: "Studio A", IsActive: true}
	store.studios["a2"] = &model.Studio{ID: "a2", Area: "onpukan", Name: "Studio B", IsActive: true}
	store.studios["m1"] = &model.Studio{ID: "m1", Area: "midori", Name: "Studio M", IsActive: true}
	store.setHours("onpukan", time.Monday, "09:00", "22:00")
	store.dated["a2"] = []model.DateBlock{
		{ID: 1, StudioID: "a2", Date: monday, StartTime: "09:00", EndTime: "22:00"},
	}

	area, err := testResolver(store).ResolveArea(context.Background(), "onpukan", monday, 2)
	require.NoError(t, err)
	require.Len(t, area.Studios, 2)

	byID := make(map[string]StudioDay)
	for _, s := range area.Studios {
		byID[s.StudioID] = s
	}
	assert.Equal(t, 26, byID["a1"].Available)
	assert.Equal(t, StatusAvailable, byID["a1"].Status)
	assert.Equal(t, 0, byID["a2"].Available)
	assert.Equal(t, StatusOccupied, byID["a2"].Status)
	assert.Equal(t, 26, byID["a1"].Total)

	// Per-slot view: with a2 fully blocked, one of two studios is open in
	// every slot, which sits at the limited threshold.
	require.Len(t, area.Slots, 26)
	first := area.Slots[0]
	assert.Equal(t, "09:00", first.Start)
	assert.Equal(t, "09:30", first.End)
	assert.Equal(t, 1, first.Available)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, StatusLimited, first.Status)
	assert.Equal(t, "21:30", area.Slots[25].Start)
	assert.Equal(t, "22:00", area.Slots[25].End)
}
