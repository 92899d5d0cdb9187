package booking

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"spacerental/internal/domain"
	"spacerental/internal/events"
	"spacerental/internal/pkg/validator"
	"spacerental/internal/repository"

	"go.uber.org/zap"
)

// startGrace tolerates clock skew between client and server on start_time.
const startGrace = time.Minute

type Service struct {
	store  *Store
	rooms  RoomCatalog
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

type ServiceOption func(*Service)

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store *Store, rooms RoomCatalog, publisher EventPublisher, logger *zap.Logger, opts ...ServiceOption) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  store,
		rooms:  rooms,
		events: publisher,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateBooking(ctx context.Context, userID int64, req CreateBookingRequest) (*domain.Booking, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, s.fail("create booking", &ValidationError{Fields: fields}, zap.Int64("user_id", userID))
	}

	room, err := s.rooms.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrRoomNotFound
		}
		return nil, s.fail("create booking", err, zap.String("room_id", req.RoomID))
	}
	if !room.IsBookable() {
		return nil, s.fail("create booking", ErrRoomNotAvailable, zap.String("room_id", room.ID))
	}
	if !room.AcceptsDuration(req.Hours) {
		return nil, s.fail("create booking", newValidationError("hours", "room_limits"),
			zap.String("room_id", room.ID), zap.Int("hours", req.Hours))
	}
	if req.StartTime.Before(s.now().Add(-startGrace)) {
		return nil, s.fail("create booking", newValidationError("start_time", "future"),
			zap.String("room_id", room.ID))
	}

	b, err := s.store.Create(ctx, CreateParams{
		UserID:     userID,
		RoomID:     room.ID,
		StartTime:  req.StartTime,
		Duration:   req.Hours,
		HourlyRate: room.HourlyRate,
		Services:   req.Services,
		Products:   req.Products,
	})
	if err != nil {
		return nil, s.fail("create booking", err, zap.String("room_id", room.ID), zap.Int64("user_id", userID))
	}

	s.logger.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("room_id", b.RoomID),
		zap.Int64("user_id", userID),
		zap.Float64("total_price", b.TotalPrice),
	)
	s.publish(ctx, events.BookingCreated, b, "")
	return &b, nil
}

func (s *Service) CancelBooking(ctx context.Context, userID int64, id string) (*domain.Booking, error) {
	current, err := s.owned(id, userID)
	if err != nil {
		return nil, s.fail("cancel booking", err, zap.String("booking_id", id))
	}

	b, err := s.store.Cancel(ctx, id)
	if err != nil {
		return nil, s.fail("cancel booking", err, zap.String("booking_id", id))
	}

	s.logger.Info("booking cancelled", zap.String("booking_id", b.ID), zap.Int64("user_id", userID))
	s.publish(ctx, events.BookingCancelled, b, current.Status)
	return &b, nil
}

func (s *Service) ExtendBooking(ctx context.Context, userID int64, id string, req ExtendBookingRequest) (*domain.Booking, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, s.fail("extend booking", &ValidationError{Fields: fields}, zap.String("booking_id", id))
	}
	if _, err := s.owned(id, userID); err != nil {
		return nil, s.fail("extend booking", err, zap.String("booking_id", id))
	}

	b, err := s.store.Extend(ctx, id, req.AdditionalHours)
	if err != nil {
		return nil, s.fail("extend booking", err, zap.String("booking_id", id), zap.Int("additional_hours", req.AdditionalHours))
	}

	s.logger.Info("booking extended",
		zap.String("booking_id", b.ID),
		zap.Int("duration", b.Duration),
		zap.Float64("base_price", b.BasePrice),
	)
	s.publish(ctx, events.BookingExtended, b, "")
	return &b, nil
}

func (s *Service) AddItems(ctx context.Context, userID int64, id string, req AddItemsRequest) (*domain.Booking, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, s.fail("add booking items", &ValidationError{Fields: fields}, zap.String("booking_id", id))
	}
	if len(req.Services) == 0 && len(req.Products) == 0 {
		return nil, s.fail("add booking items", newValidationError("items", "required"), zap.String("booking_id", id))
	}
	if _, err := s.owned(id, userID); err != nil {
		return nil, s.fail("add booking items", err, zap.String("booking_id", id))
	}

	b, err := s.store.AddItems(ctx, id, req.Services, req.Products)
	if err != nil {
		return nil, s.fail("add booking items", err, zap.String("booking_id", id))
	}

	s.logger.Info("booking items added",
		zap.String("booking_id", b.ID),
		zap.Int("services", len(req.Services)),
		zap.Int("products", len(req.Products)),
		zap.Float64("total_price", b.TotalPrice),
	)
	s.publish(ctx, events.BookingItemsAdded, b, "")
	return &b, nil
}

func (s *Service) GetBooking(_ context.Context, userID int64, id string) (*domain.Booking, error) {
	b, err := s.owned(id, userID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Service) GetMyBookings(_ context.Context, userID int64) []domain.Booking {
	return s.store.ByUser(userID)
}

// ListBookings is the staff view over every user's bookings.
func (s *Service) ListBookings(_ context.Context, q ListBookingsQuery) ([]domain.Booking, error) {
	var status domain.BookingStatus
	if q.Status != "" {
		status = domain.BookingStatus(strings.ToLower(q.Status))
		if !status.IsValid() {
			return nil, s.fail("list bookings", newValidationError("status", "oneof"))
		}
	}

	if q.Date == "" {
		if status == "" {
			return s.store.Snapshot(), nil
		}
		return s.store.ByStatus(status), nil
	}

	day, err := time.Parse(time.DateOnly, q.Date)
	if err != nil {
		return nil, s.fail("list bookings", newValidationError("date", "date"))
	}

	list := s.store.ByDate(day)
	if status == "" {
		return list, nil
	}
	return slices.DeleteFunc(list, func(b domain.Booking) bool { return b.Status != status }), nil
}

func (s *Service) GetOccupancy(_ context.Context, q OccupancyQuery) (*OccupancyStats, error) {
	if q.RoomID == "" || q.StartDate == "" || q.EndDate == "" {
		return nil, s.fail("occupancy stats", ErrMissingParams)
	}

	start, err := parseDate(q.StartDate)
	if err != nil {
		return nil, s.fail("occupancy stats", newValidationError("start_date", "date"))
	}
	end, err := parseDate(q.EndDate)
	if err != nil {
		return nil, s.fail("occupancy stats", newValidationError("end_date", "date"))
	}

	stats, err := s.store.Occupancy(q.RoomID, start, end)
	if err != nil {
		return nil, s.fail("occupancy stats", err, zap.String("room_id", q.RoomID))
	}

	s.logger.Info("occupancy stats computed",
		zap.String("room_id", q.RoomID),
		zap.Int("total_bookings", stats.TotalBookings),
		zap.Float64("occupancy_rate", stats.OccupancyRate),
	)
	return &stats, nil
}

// owned returns the booking when it belongs to userID. Other users' bookings
// are reported as missing.
func (s *Service) owned(id string, userID int64) (domain.Booking, error) {
	b, err := s.store.Get(id)
	if err != nil {
		return domain.Booking{}, err
	}
	if b.UserID != userID {
		return domain.Booking{}, ErrBookingNotFound
	}
	return b, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, b domain.Booking, previous domain.BookingStatus) {
	ev := events.NewBookingEvent(t, b, s.now())
	ev.PreviousStatus = string(previous)
	s.events.Publish(ctx, ev)
}

// fail logs err at the level its category calls for and returns it unchanged.
func (s *Service) fail(op string, err error, fields ...zap.Field) error {
	fields = append(fields, zap.Error(err))
	switch {
	case errors.Is(err, ErrValidation), IsDeclined(err):
		s.logger.Warn(op+" declined", fields...)
	default:
		s.logger.Error(op+" failed", fields...)
	}
	return err
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
