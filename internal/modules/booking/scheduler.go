package booking

import (
	"context"
	"time"

	"spacerental/internal/events"

	"go.uber.org/zap"
)

// Scheduler periodically promotes booking statuses based on the wall clock.
type Scheduler struct {
	store    *Store
	events   EventPublisher
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
}

type SchedulerOption func(*Scheduler)

func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(store *Store, publisher EventPublisher, logger *zap.Logger, interval time.Duration, opts ...SchedulerOption) *Scheduler {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	s := &Scheduler{
		store:    store,
		events:   publisher,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is done. The first pass runs immediately so bookings
// that became due while the process was down are promoted on start.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("status scheduler started", zap.Duration("interval", s.interval))
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("status scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one promotion pass and returns how many bookings changed status.
func (s *Scheduler) Tick(ctx context.Context) int {
	now := s.now()
	changes, err := s.store.PromoteStatuses(ctx, now)
	if err != nil {
		s.logger.Error("status promotion failed", zap.Error(err))
		return 0
	}

	for _, ch := range changes {
		s.logger.Info("booking status changed",
			zap.String("booking_id", ch.Booking.ID),
			zap.String("from", string(ch.From)),
			zap.String("to", string(ch.Booking.Status)),
		)
		ev := events.NewBookingEvent(events.BookingStatusChanged, ch.Booking, now)
		ev.PreviousStatus = string(ch.From)
		s.events.Publish(ctx, ev)
	}
	if len(changes) > 0 {
		s.logger.Info("status promotion pass", zap.Int("promoted", len(changes)))
	}
	return len(changes)
}
