// Package events provides in-process pub/sub for reservation lifecycle
// events. Delivery is best effort: a failing handler never affects the
// reservation that produced the event.
package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"yoyaku/internal/model"
)

// Event types.
const (
	TypeReservationCreated   = "reservation.created"
	TypeReservationCancelled = "reservation.cancelled"
	TypeCodeFallback         = "reservation.code_fallback"
)

// Event is a lightweight domain event.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// ReservationPayload is the JSON body of reservation lifecycle events.
type ReservationPayload struct {
	Code          string `json:"code"`
	StudioID      string `json:"studio_id"`
	Area          string `json:"area"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Category      string `json:"category"`
	Price         int64  `json:"price"`
}

// NewReservationEvent builds a typed event from a reservation.
func NewReservationEvent(eventType string, r *model.Reservation) Event {
	payload, _ := json.Marshal(ReservationPayload{
		Code:          r.Code,
		StudioID:      r.StudioID,
		Area:          r.Area,
		Date:          r.Date,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		Category:      string(r.Category),
		Price:         r.Price,
	})
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// Handler reacts to an event.
type Handler func(event Event) error

// Bus provides in-process pub/sub.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
	wg          sync.WaitGroup
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type and returns immediately.
// Handlers for one event run in order on a separate goroutine, so a slow
// subscriber never stalls the publisher. Handler errors are discarded.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for _, handler := range handlers {
			_ = handler(event)
		}
	}()
}

// Wait blocks until every published event has been handled. Used on shutdown
// to drain in-flight deliveries.
func (b *Bus) Wait() {
	b.wg.Wait()
}
