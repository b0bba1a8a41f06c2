// Package booking implements reservation creation, cancellation and lookup
// on top of the availability resolver and the reservation store.
package booking

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"yoyaku/internal/availability"
	"yoyaku/internal/database"
	"yoyaku/internal/events"
	"yoyaku/internal/metrics"
	"yoyaku/internal/model"
	"yoyaku/internal/pricing"
)

// Store is the persistence surface the service needs.
type Store interface {
	CodeChecker
	GetStudio(ctx context.Context, id string) (*model.Studio, error)
	InsertReservation(ctx context.Context, r *model.Reservation) error
	GetReservationByCode(ctx context.Context, code string) (*model.Reservation, error)
	CancelReservation(ctx context.Context, code string) error
}

// Options carries the tunable business rules.
type Options struct {
	CancelCutoff time.Duration
	Location     *time.Location
}

// Service coordinates the booking flow. Creates for the same (studio, date)
// are serialized through striped locks so concurrent requests for the same
// day cannot both pass the availability check; the insert transaction
// re-checks overlap as the backstop.
type Service struct {
	store    Store
	resolver *availability.Resolver
	bus      *events.Bus
	logger   *zerolog.Logger
	opts     Options

	stripes [64]sync.Mutex
}

// NewService creates the booking service.
func NewService(store Store, resolver *availability.Resolver, bus *events.Bus, logger *zerolog.Logger, opts Options) *Service {
	if opts.CancelCutoff <= 0 {
		opts.CancelCutoff = 24 * time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Service{
		store:    store,
		resolver: resolver,
		bus:      bus,
		logger:   logger,
		opts:     opts,
	}
}

func (s *Service) stripe(studioID, date string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(studioID))
	h.Write([]byte{'|'})
	h.Write([]byte(date))
	return &s.stripes[h.Sum32()%uint32(len(s.stripes))]
}

// Create books a studio for a contiguous slot range and returns the stored
// reservation with its public code. The outbound event is published only
// after the reservation is committed; a publish failure never rolls it back.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	rng, err := validateCreate(req, s.resolver.Grid(), time.Now(), s.opts.Location)
	if err != nil {
		metrics.IncReservationRejected(RejectReason(err))
		return nil, err
	}

	studio, err := s.store.GetStudio(ctx, req.StudioID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.IncReservationRejected("not_found")
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "load studio", Err: err}
	}
	if !studio.IsActive {
		metrics.IncReservationRejected("not_found")
		return nil, ErrNotFound
	}

	price, err := pricing.Quote(studio.Pricing, req.Category, rng, s.resolver.Grid())
	if err != nil {
		verr := &ValidationError{Field: "time_range", Reason: err.Error()}
		metrics.IncReservationRejected(RejectReason(verr))
		return nil, verr
	}

	mu := s.stripe(req.StudioID, req.Date)
	mu.Lock()
	defer mu.Unlock()

	day, err := s.resolver.ResolveDay(ctx, req.StudioID, req.Date)
	if err != nil {
		return nil, &StorageError{Op: "resolve availability", Err: err}
	}
	if ok, blocking := day.OpenRange(rng); !ok {
		serr := &SlotUnavailableError{StudioID: req.StudioID, Date: req.Date, Blocking: blocking}
		metrics.IncReservationRejected(RejectReason(serr))
		return nil, serr
	}

	code, err := s.generateCode(ctx)
	if err != nil {
		return nil, err
	}

	startClock, endClock := rng.Clocks(s.resolver.Grid())
	reservation := &model.Reservation{
		Code:          code,
		StudioID:      studio.ID,
		Area:          studio.Area,
		Date:          req.Date,
		StartTime:     startClock.String(),
		EndTime:       endClock.String(),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Category:      req.Category,
		Price:         price,
	}

	if err := s.store.InsertReservation(ctx, reservation); err != nil {
		if errors.Is(err, database.ErrOverlap) {
			derr := &DuplicateBookingError{StudioID: req.StudioID, Date: req.Date}
			metrics.IncReservationRejected(RejectReason(derr))
			return nil, derr
		}
		return nil, &StorageError{Op: "insert reservation", Err: err}
	}

	metrics.IncReservationCreated(studio.Area)
	s.logger.Info().
		Str("code", reservation.Code).
		Str("studio", reservation.StudioID).
		Str("date", reservation.Date).
		Str("range", req.TimeRange).
		Int64("price", reservation.Price).
		Msg("reservation created")

	s.bus.Publish(events.NewReservationEvent(events.TypeReservationCreated, reservation))
	return reservation, nil
}

// Cancel cancels a reservation by code. Cancelling an already cancelled
// reservation is a no-op success, so customers can retry safely. The row is
// kept with its cancellation timestamp, never deleted.
func (s *Service) Cancel(ctx context.Context, code string) (*model.Reservation, error) {
	reservation, err := s.store.GetReservationByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "load reservation", Err: err}
	}

	if reservation.Status == model.StatusCancelled {
		return reservation, nil
	}

	if err := CanCancel(reservation, time.Now(), s.opts.CancelCutoff, s.opts.Location); err != nil {
		return nil, err
	}

	if err := s.store.CancelReservation(ctx, code); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "cancel reservation", Err: err}
	}

	reservation, err = s.store.GetReservationByCode(ctx, code)
	if err != nil {
		return nil, &StorageError{Op: "reload reservation", Err: err}
	}

	metrics.IncReservationCancelled()
	s.logger.Info().
		Str("code", code).
		Str("studio", reservation.StudioID).
		Str("date", reservation.Date).
		Msg("reservation cancelled")

	s.bus.Publish(events.NewReservationEvent(events.TypeReservationCancelled, reservation))
	return reservation, nil
}

// Lookup returns a reservation by its public code.
func (s *Service) Lookup(ctx context.Context, code string) (*model.Reservation, error) {
	reservation, err := s.store.GetReservationByCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{Op: "load reservation", Err: err}
	}
	return reservation, nil
}
