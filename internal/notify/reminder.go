package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"yoyaku/internal/model"
)

// ReminderStore reads the reservations a reminder run covers.
type ReminderStore interface {
	ListReservationsByDateRange(ctx context.Context, from, to string) ([]model.Reservation, error)
}

// Reminder sends next-day reminders to the staff channel every evening, so
// the front desk can prepare the rooms.
type Reminder struct {
	store  ReminderStore
	sender Sender
	logger *zerolog.Logger
	hour   int
	loc    *time.Location
}

// NewReminder builds the reminder loop. hour is the local hour of day the
// run fires at.
func NewReminder(store ReminderStore, sender Sender, logger *zerolog.Logger, hour int, loc *time.Location) *Reminder {
	if loc == nil {
		loc = time.Local
	}
	return &Reminder{store: store, sender: sender, logger: logger, hour: hour, loc: loc}
}

// Start launches the daily loop. It waits until the next run hour, then
// ticks every 24h until the context is cancelled.
func (r *Reminder) Start(ctx context.Context) {
	go func() {
		timer := time.NewTimer(r.untilNextRun(time.Now()))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				r.runOnce(ctx)
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

func (r *Reminder) untilNextRun(now time.Time) time.Duration {
	now = now.In(r.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), r.hour, 0, 0, 0, r.loc)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

func (r *Reminder) runOnce(ctx context.Context) {
	tomorrow := time.Now().In(r.loc).AddDate(0, 0, 1).Format("2006-01-02")

	reservations, err := r.store.ListReservationsByDateRange(ctx, tomorrow, tomorrow)
	if err != nil {
		r.logger.Error().Err(err).Msg("reminder: list reservations")
		return
	}

	sent := 0
	for _, res := range reservations {
		if res.Status != model.StatusConfirmed {
			continue
		}
		text := fmt.Sprintf("Tomorrow %s %s-%s: %s for %s (%s), code %s",
			res.Date, res.StartTime, res.EndTime, res.StudioID,
			res.CustomerName, res.Category, res.Code)
		if err := r.sender.Send(ctx, text); err != nil {
			r.logger.Error().Err(err).Str("code", res.Code).Msg("reminder: send failed")
			continue
		}
		sent++
	}
	r.logger.Info().Str("date", tomorrow).Int("sent", sent).Msg("reminder run finished")
}
