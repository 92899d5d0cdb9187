package booking

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"spacerental/internal/domain"
	"spacerental/internal/pkg/interval"
	"spacerental/internal/pkg/pricing"

	"github.com/google/uuid"
)

// Store owns the booking collection. Every operation runs under one mutex and
// a mutation counts as done only once the durable store has accepted the new
// collection; on a failed flush the in-memory state is left untouched.
type Store struct {
	mu       sync.Mutex
	bookings []domain.Booking
	durable  DurableStore
	now      func() time.Time
	newID    func() string
	closed   bool
}

// StoreOption customises a Store at open time.
type StoreOption func(*Store)

// WithClock replaces time.Now as the source of created_at and updated_at.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the default "book-<uuid>" booking IDs.
func WithIDGenerator(newID func() string) StoreOption {
	return func(s *Store) { s.newID = newID }
}

func newBookingID() string {
	return "book-" + uuid.NewString()
}

// OpenStore loads the collection from durable. The Store assumes it is the
// only writer of durable for as long as it is open.
func OpenStore(ctx context.Context, durable DurableStore, opts ...StoreOption) (*Store, error) {
	s := &Store{
		durable: durable,
		now:     time.Now,
		newID:   newBookingID,
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, err := durable.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	s.bookings = slices.Clip(loaded)
	return s, nil
}

// Close waits for any in-flight mutation and rejects later ones with
// ErrStoreClosed. Every successful mutation has already been flushed, so
// Close does not write to the durable store.
func (s *Store) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

type CreateParams struct {
	UserID     int64
	RoomID     string
	StartTime  time.Time
	Duration   int
	HourlyRate float64
	Services   []domain.LineItem
	Products   []domain.LineItem
}

func (s *Store) Create(ctx context.Context, p CreateParams) (domain.Booking, error) {
	if p.Duration <= 0 {
		return domain.Booking{}, newValidationError("hours", "min")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Booking{}, ErrStoreClosed
	}

	start := p.StartTime.UTC()
	end := interval.EndTime(start, p.Duration)
	if !isAvailable(s.bookings, p.RoomID, start, end, "") {
		return domain.Booking{}, ErrRoomNotAvailable
	}

	now := s.now().UTC()
	b := domain.Booking{
		ID:        s.newID(),
		UserID:    p.UserID,
		RoomID:    p.RoomID,
		Status:    domain.BookingPending,
		StartTime: start,
		EndTime:   end,
		Duration:  p.Duration,
		Services:  slices.Clone(p.Services),
		Products:  slices.Clone(p.Products),
		BasePrice: pricing.BasePrice(p.HourlyRate, p.Duration),
		CreatedAt: now,
		UpdatedAt: now,
	}
	b = b.Clone()
	b.Recalculate()

	next := make([]domain.Booking, len(s.bookings), len(s.bookings)+1)
	copy(next, s.bookings)
	next = append(next, b)
	if err := s.commit(ctx, next); err != nil {
		return domain.Booking{}, err
	}
	return b.Clone(), nil
}

func (s *Store) Cancel(ctx context.Context, id string) (domain.Booking, error) {
	return s.update(ctx, id, func(b *domain.Booking) error {
		if !b.Status.CanTransitionTo(domain.BookingCancelled) {
			return ErrNotCancellable
		}
		b.Status = domain.BookingCancelled
		return nil
	})
}

// Extend lengthens an active booking when the window right after its end is free.
// The added hours are priced at the booking's own effective hourly rate.
func (s *Store) Extend(ctx context.Context, id string, additionalHours int) (domain.Booking, error) {
	if additionalHours < 1 {
		return domain.Booking{}, newValidationError("additional_hours", "min")
	}

	return s.update(ctx, id, func(b *domain.Booking) error {
		if b.Status != domain.BookingActive {
			return ErrNotExtendable
		}

		windowEnd := interval.EndTime(b.EndTime, additionalHours)
		if !isAvailable(s.bookings, b.RoomID, b.EndTime, windowEnd, b.ID) {
			return ErrRoomNotAvailable
		}

		delta, err := pricing.ProportionalIncrease(b.BasePrice, b.Duration, additionalHours)
		if err != nil {
			return fmt.Errorf("extend booking %s: %w", b.ID, err)
		}

		b.Duration += additionalHours
		b.EndTime = windowEnd
		b.BasePrice = pricing.RoundCents(b.BasePrice + delta)
		b.Recalculate()
		return nil
	})
}

// AddItems appends line items to an active booking; existing items are kept.
func (s *Store) AddItems(ctx context.Context, id string, services, products []domain.LineItem) (domain.Booking, error) {
	return s.update(ctx, id, func(b *domain.Booking) error {
		if b.Status != domain.BookingActive {
			return ErrNotModifiable
		}
		b.Services = slices.Concat(b.Services, services)
		b.Products = slices.Concat(b.Products, products)
		b.Recalculate()
		return nil
	})
}

// update runs fn on a private copy of the booking and commits the result.
// fn is called with s.mu held.
func (s *Store) update(ctx context.Context, id string, fn func(b *domain.Booking) error) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Booking{}, ErrStoreClosed
	}

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Booking{}, ErrBookingNotFound
	}

	b := s.bookings[idx].Clone()
	if err := fn(&b); err != nil {
		return domain.Booking{}, err
	}
	b.UpdatedAt = s.now().UTC()

	next := slices.Clone(s.bookings)
	next[idx] = b
	if err := s.commit(ctx, next); err != nil {
		return domain.Booking{}, err
	}
	return b.Clone(), nil
}

// StatusChange records one booking moved by PromoteStatuses.
type StatusChange struct {
	Booking domain.Booking
	From    domain.BookingStatus
}

// PromoteStatuses advances every booking whose time has come: pending bookings
// that have started become active, and active bookings that have ended become
// completed. Both steps apply in the same pass, so calling it again with the
// same now changes nothing. All changes are flushed with a single write.
func (s *Store) PromoteStatuses(ctx context.Context, now time.Time) ([]StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var (
		next    []domain.Booking
		changes []StatusChange
	)
	for i := range s.bookings {
		from := s.bookings[i].Status
		to := from
		if to == domain.BookingPending && !now.Before(s.bookings[i].StartTime) {
			to = domain.BookingActive
		}
		if to == domain.BookingActive && !now.Before(s.bookings[i].EndTime) {
			to = domain.BookingCompleted
		}
		if to == from {
			continue
		}

		if next == nil {
			next = slices.Clone(s.bookings)
		}
		b := next[i].Clone()
		b.Status = to
		b.UpdatedAt = now.UTC()
		next[i] = b
		changes = append(changes, StatusChange{Booking: b.Clone(), From: from})
	}

	if len(changes) == 0 {
		return nil, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return nil, err
	}
	return changes, nil
}

func (s *Store) commit(ctx context.Context, next []domain.Booking) error {
	if err := s.durable.Save(ctx, next); err != nil {
		return fmt.Errorf("persist bookings: %w", err)
	}
	s.bookings = next
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.bookings, func(b domain.Booking) bool { return b.ID == id })
}

func (s *Store) Get(id string) (domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Booking{}, ErrBookingNotFound
	}
	return s.bookings[idx].Clone(), nil
}

func (s *Store) ByUser(userID int64) []domain.Booking {
	return s.filter(func(b *domain.Booking) bool { return b.UserID == userID })
}

func (s *Store) ByStatus(status domain.BookingStatus) []domain.Booking {
	return s.filter(func(b *domain.Booking) bool { return b.Status == status })
}

// ByDate returns bookings starting on the calendar day of date, in date's location.
func (s *Store) ByDate(date time.Time) []domain.Booking {
	return s.filter(func(b *domain.Booking) bool { return interval.SameDay(b.StartTime, date) })
}

func (s *Store) Snapshot() []domain.Booking {
	return s.filter(func(*domain.Booking) bool { return true })
}

func (s *Store) IsAvailable(roomID string, start, end time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return isAvailable(s.bookings, roomID, start, end, "")
}

func (s *Store) Occupancy(roomID string, start, end time.Time) (OccupancyStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return computeOccupancy(s.bookings, roomID, start, end)
}

func (s *Store) filter(keep func(b *domain.Booking) bool) []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Booking, 0)
	for i := range s.bookings {
		if keep(&s.bookings[i]) {
			out = append(out, s.bookings[i].Clone())
		}
	}
	return out
}
