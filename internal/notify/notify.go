// Package notify pushes reservation lifecycle notifications to the front
// desk channel. Delivery is best effort: a failed notification is logged and
// dropped, it never touches the reservation itself.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"yoyaku/internal/events"
)

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Notifier consumes reservation events from the bus and forwards them
// through a Sender, rate limited and with a few retries for transient
// failures.
type Notifier struct {
	sender  Sender
	logger  *zerolog.Logger
	limiter *rate.Limiter
	retries int
}

// NewNotifier builds a notifier. The limiter protects the downstream
// messenger API from bursts when many bookings land at once.
func NewNotifier(sender Sender, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		sender:  sender,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		retries: 3,
	}
}

// Attach subscribes the notifier to reservation events on the bus.
func (n *Notifier) Attach(ctx context.Context, bus *events.Bus) {
	bus.Subscribe(events.TypeReservationCreated, func(e events.Event) error {
		return n.handle(ctx, e, "New reservation")
	})
	bus.Subscribe(events.TypeReservationCancelled, func(e events.Event) error {
		return n.handle(ctx, e, "Cancelled")
	})
}

func (n *Notifier) handle(ctx context.Context, e events.Event, heading string) error {
	var p events.ReservationPayload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		n.logger.Error().Err(err).Str("event", e.ID).Msg("notify: bad payload")
		return err
	}

	text := fmt.Sprintf("%s %s: %s %s %s-%s, %s (%s), %d yen",
		heading, p.Code, p.StudioID, p.Date, p.StartTime, p.EndTime,
		p.CustomerName, p.Category, p.Price)

	if err := n.deliver(ctx, text); err != nil {
		n.logger.Error().Err(err).
			Str("event", e.ID).
			Str("code", p.Code).
			Msg("notify: delivery failed, giving up")
		return err
	}
	return nil
}

func (n *Notifier) deliver(ctx context.Context, text string) error {
	var lastErr error
	for attempt := 0; attempt <= n.retries; attempt++ {
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}
		if lastErr = n.sender.Send(ctx, text); lastErr == nil {
			return nil
		}
		n.logger.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("notify: send failed, retrying")
	}
	return lastErr
}
