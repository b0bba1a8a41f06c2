package booking

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yoyaku/internal/availability"
	"yoyaku/internal/database"
	"yoyaku/internal/events"
	"yoyaku/internal/model"
	"yoyaku/internal/timegrid"
)

// memStore backs the service and the resolver in tests. Insert re-checks
// overlap under the lock, like the real store does inside its transaction.
type memStore struct {
	mu           sync.Mutex
	studios      map[string]*model.Studio
	reservations map[string]*model.Reservation // by code
	nextID       int64

	codeExistsOverride func(code string) (bool, error)
}

func newMemStore() *memStore {
	return &memStore{
		studios:      make(map[string]*model.Studio),
		reservations: make(map[string]*model.Reservation),
	}
}

func (m *memStore) GetStudio(_ context.Context, id string) (*model.Studio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.studios[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return s, nil
}

func (m *memStore) ListActiveStudios(_ context.Context, area string) ([]model.Studio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Studio
	for _, s := range m.studios {
		if s.Area == area && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) GetBusinessHours(_ context.Context, area string, day time.Weekday) (*model.BusinessHours, error) {
	return &model.BusinessHours{Area: area, DayOfWeek: day, OpenTime: "09:00", CloseTime: "22:00"}, nil
}

func (m *memStore) ListWeeklyBlocks(context.Context, string, time.Weekday) ([]model.WeeklyBlock, error) {
	return nil, nil
}

func (m *memStore) ListDateBlocks(context.Context, string, string) ([]model.DateBlock, error) {
	return nil, nil
}

func (m *memStore) ListConfirmedReservations(_ context.Context, studioID, date string) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.StudioID == studioID && r.Date == date && r.Status == model.StatusConfirmed {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) CodeExists(_ context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codeExistsOverride != nil {
		return m.codeExistsOverride(code)
	}
	_, ok := m.reservations[code]
	return ok, nil
}

func (m *memStore) InsertReservation(_ context.Context, r *model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.reservations {
		if existing.StudioID == r.StudioID && existing.Date == r.Date &&
			existing.Status == model.StatusConfirmed &&
			existing.StartTime < r.EndTime && r.StartTime < existing.EndTime {
			return database.ErrOverlap
		}
	}
	m.nextID++
	r.ID = m.nextID
	r.Status = model.StatusConfirmed
	r.CreatedAt = time.Now()
	stored := *r
	m.reservations[r.Code] = &stored
	return nil
}

func (m *memStore) GetReservationByCode(_ context.Context, code string) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[code]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (m *memStore) CancelReservation(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[code]
	if !ok {
		return database.ErrNotFound
	}
	if r.Status == model.StatusConfirmed {
		now := time.Now()
		r.Status = model.StatusCancelled
		r.CancelledAt = &now
	}
	return nil
}

func testService(store *memStore) (*Service, *events.Bus) {
	logger := zerolog.New(io.Discard)
	bus := events.NewBus()
	resolver := availability.NewResolver(timegrid.Default, store, store, store)
	svc := NewService(store, resolver, bus, &logger, Options{
		CancelCutoff: 24 * time.Hour,
		Location:     time.UTC,
	})
	return svc, bus
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func perSlotStudio(id string) *model.Studio {
	return &model.Studio{
		ID: id, Area: "onpukan", Name: "Studio " + id, IsActive: true,
		Pricing: model.Pricing{Kind: model.PricingPerSlot, GeneralRate: 800, StudentRate: 500},
	}
}

func TestCreateReservation(t *testing.T) {
	store := newMemStore()
	store.studios["a1"] = perSlotStudio("a1")
	svc, bus := testService(store)

	var published []events.Event
	bus.Subscribe(events.TypeReservationCreated, func(e events.Event) error {
		published = append(published, e)
		return nil
	})

	r, err := svc.Create(context.Background(), CreateRequest{
		StudioID:      "a1",
		Date:          futureDate(7),
		TimeRange:     "10:00-11:30",
		CustomerName:  "Tanaka",
		CustomerPhone: "090-0000-0000",
		Category:      model.CategoryStudent,
	})
	require.NoError(t, err)

	assert.Len(t, r.Code, 6)
	for _, c := range r.Code {
		assert.Contains(t, codeAlphabet, string(c))
	}
	assert.Equal(t, "10:00", r.StartTime)
	assert.Equal(t, "11:30", r.EndTime)
	assert.Equal(t, int64(1500), r.Price) // 3 slots at the student rate
	assert.Equal(t, model.StatusConfirmed, r.Status)
	bus.Wait()
	require.Len(t, published, 1)
}

func TestCreateNotBlockedBySlowSubscriber(t *testing.T) {
	store := newMemStore()
	store.studios["a1"] = perSlotStudio("a1")
	svc, bus := testService(store)

	// A stuck downstream consumer must not delay the customer's response.
	release := make(chan struct{})
	bus.Subscribe(events.TypeReservationCreated, func(events.Event) error {
		<-release
		return nil
	})

	start := time.Now()
	r, err := svc.Create(context.Background(), CreateRequest{
		StudioID: "a1", Date: futureDate(7), TimeRange: "10:00-11:00",
		CustomerName: "Tanaka", CustomerPhone: "090-0000-0000",
		Category: model.CategoryGeneral,
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, model.StatusConfirmed, r.Status)

	close(release)
	bus.Wait()
}

func TestCreateRejections(t *testing.T) {
	store := newMemStore()
	store.studios["a1"] = perSlotStudio("a1")
	store.studios["b1"] = &model.Studio{
		ID: "b1", Area: "onpukan", IsActive: true,
		Pricing: model.Pricing{Kind: model.PricingPerHour, IndividualRate: 1200, BandRate: 2000},
	}
	svc, _ := testService(store)

	base := CreateRequest{
		StudioID:      "a1",
		Date:          futureDate(7),
		TimeRange:     "10:00-11:00",
		CustomerName:  "Tanaka",
		CustomerPhone: "090-0000-0000",
		Category:      model.CategoryGeneral,
	}

	t.Run("past date", func(t *testing.T) {
		req := base
		req.Date = "2020-01-01"
		_, err := svc.Create(context.Background(), req)
		var perr *PastDateError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("same day", func(t *testing.T) {
		req := base
		req.Date = time.Now().UTC().Format("2006-01-02")
		_, err := svc.Create(context.Background(), req)
		var serr *SameDayError
		assert.ErrorAs(t, err, &serr)
	})

	t.Run("bad category", func(t *testing.T) {
		req := base
		req.Category = "vip"
		_, err := svc.Create(context.Background(), req)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("reversed range", func(t *testing.T) {
		req := base
		req.TimeRange = "11:00-10:00"
		_, err := svc.Create(context.Background(), req)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("unknown studio", func(t *testing.T) {
		req := base
		req.StudioID = "ghost"
		_, err := svc.Create(context.Background(), req)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("per-hour studio rejects 90 minutes", func(t *testing.T) {
		req := base
		req.StudioID = "b1"
		req.Category = model.CategoryBand
		req.TimeRange = "10:00-11:30"
		_, err := svc.Create(context.Background(), req)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("category not offered by studio", func(t *testing.T) {
		req := base
		req.Category = model.CategoryBand // a1 is per-slot
		_, err := svc.Create(context.Background(), req)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestCreateSlotTaken(t *testing.T) {
	store := newMemStore()
	store.studios["a1"] = perSlotStudio("a1")
	svc, _ := testService(store)

	date := futureDate(7)
	req := CreateRequest{
		StudioID: "a1", Date: date, TimeRange: "10:00-11:00",
		CustomerName: "Tanaka", CustomerPhone: "090-0000-0000",
		Category: model.CategoryGeneral,
	}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	// Overlapping attempt from another customer.
	req.TimeRange = "10:30-11:30"
	req.CustomerName = "Suzuki"
	_, err = svc.Create(context.Background(), req)
	var serr *SlotUnavailableError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, availability.Reserved, serr.Blocking)

	// Adjacent range still books fine.
	req.TimeRange = "11:00-12:00"
	_, err = svc.Create(context.Background(), req)
	assert.NoError(t, err)
}

func TestCreateConcurrentSameSlot(t *testing.T) {
	store := newMemStore()
	store.studios["a1"] = perSlotStudio("a1")
	svc, _ := testService(store)

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), CreateRequest{
				StudioID: "a1", Date: futureDate(7), TimeRange: "14:00-15:00",
				CustomerName: "Racer", CustomerPhone: "090-0000-0000",
				Category: model.CategoryGeneral,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var serr *SlotUnavailableError
		var derr *DuplicateBookingError
		assert.True(t, errors.As(err, &serr) || errors.As(err, &derr),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, successes)
}

func TestCancelReservation(t *testing.T) {
	store := newMemStore()
	store.studios["a1"] = perSlotStudio("a1")
	svc, bus := testService(store)

	cancelled := 0
	bus.Subscribe(events.TypeReservationCancelled, func(events.Event) error {
		cancelled++
		return nil
	})

	r, err := svc.Create(context.Background(), CreateRequest{
		StudioID: "a1", Date: futureDate(7), TimeRange: "10:00-11:00",
		CustomerName: "Tanaka", CustomerPhone: "090-0000-0000",
		Category: model.CategoryGeneral,
	})
	require.NoError(t, err)

	got, err := svc.Cancel(context.Background(), r.Code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
	bus.Wait()
	assert.Equal(t, 1, cancelled)

	// Cancelling again is a no-op success and publishes nothing new.
	got, err = svc.Cancel(context.Background(), r.Code)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	bus.Wait()
	assert.Equal(t, 1, cancelled)

	// The slot is open again.
	_, err = svc.Create(context.Background(), CreateRequest{
		StudioID: "a1", Date: futureDate(7), TimeRange: "10:00-11:00",
		CustomerName: "Suzuki", CustomerPhone: "090-1111-1111",
		Category: model.CategoryGeneral,
	})
	assert.NoError(t, err)
}

func TestCancelWindowExpired(t *testing.T) {
	store := newMemStore()
	store.studios["a1"] = perSlotStudio("a1")
	svc, _ := testService(store)

	// Tomorrow morning is inside the 24h window for most of today.
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	stored := &model.Reservation{
		Code: "WINDOW", StudioID: "a1", Area: "onpukan",
		Date:      tomorrow.Format("2006-01-02"),
		StartTime: "09:00", EndTime: "10:00",
		Status: model.StatusConfirmed,
	}
	store.reservations["WINDOW"] = stored

	_, err := svc.Cancel(context.Background(), "WINDOW")
	var werr *CancellationWindowError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "WINDOW", werr.Code)
}

func TestCancelUnknownCode(t *testing.T) {
	store := newMemStore()
	svc, _ := testService(store)
	_, err := svc.Cancel(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCanCancel(t *testing.T) {
	loc := time.UTC
	r := &model.Reservation{Code: "KX7M2P", Date: "2026-09-07", StartTime: "14:00"}
	start := time.Date(2026, 9, 7, 14, 0, 0, 0, loc)

	// The window closes exactly 24h before the start.
	assert.NoError(t, CanCancel(r, start.Add(-24*time.Hour-time.Minute), 24*time.Hour, loc))
	assert.NoError(t, CanCancel(r, start.Add(-24*time.Hour), 24*time.Hour, loc))

	err := CanCancel(r, start.Add(-23*time.Hour-59*time.Minute), 24*time.Hour, loc)
	var werr *CancellationWindowError
	assert.ErrorAs(t, err, &werr)

	err = CanCancel(r, start.Add(time.Hour), 24*time.Hour, loc)
	assert.ErrorAs(t, err, &werr)
}

func TestRangeFromSlots(t *testing.T) {
	rng, err := RangeFromSlots([]int{4, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, timegrid.Range{Start: 2, End: 5}, rng)

	var verr *ValidationError
	_, err = RangeFromSlots([]int{0, 2})
	assert.ErrorAs(t, err, &verr)
	_, err = RangeFromSlots(nil)
	assert.ErrorAs(t, err, &verr)
}

func TestGenerateCodeFallback(t *testing.T) {
	store := newMemStore()
	store.studios["a1"] = perSlotStudio("a1")
	svc, _ := testService(store)

	calls := 0
	store.codeExistsOverride = func(string) (bool, error) {
		calls++
		return calls <= maxCodeAttempts, nil
	}

	code, err := svc.generateCode(context.Background())
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.Contains(t, codeAlphabet, string(c))
	}
	assert.Equal(t, maxCodeAttempts+1, calls)
}

func TestFallbackCodeAlphabet(t *testing.T) {
	code := fallbackCode(time.Now())
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.Contains(t, codeAlphabet, string(c))
	}
}
