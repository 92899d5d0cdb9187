package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"spacerental/internal/domain"
	"spacerental/internal/pkg/interval"
	"spacerental/internal/repository"
)

var (
	ErrInvalidCategory = errors.New("invalid room category")
	ErrInvalidQuery    = errors.New("invalid availability query")
	ErrRoomNotFound    = errors.New("room not found")
)

var categories = []domain.RoomCategory{domain.RoomGaming, domain.RoomThinking, domain.RoomWorking}

type RoomReader interface {
	GetByID(ctx context.Context, id string) (*domain.Room, error)
	List(ctx context.Context) ([]domain.Room, error)
}

// AvailabilityChecker is satisfied by the booking store.
type AvailabilityChecker interface {
	IsAvailable(roomID string, start, end time.Time) bool
}

// Service is the read side of the room catalog used by booking clients.
type Service struct {
	rooms    RoomReader
	bookings AvailabilityChecker
}

func NewService(rooms RoomReader, bookings AvailabilityChecker) *Service {
	return &Service{rooms: rooms, bookings: bookings}
}

func (s *Service) ListRooms(ctx context.Context, q ListRoomsQuery) ([]domain.Room, error) {
	category := domain.RoomCategory(strings.ToLower(strings.TrimSpace(q.Category)))
	if category != "" && !validCategory(category) {
		return nil, ErrInvalidCategory
	}

	all, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Room, 0, len(all))
	for _, r := range all {
		if category != "" && r.Category != category {
			continue
		}
		if q.Available && !r.IsBookable() {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Service) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// Categories counts rooms per category, listing empty categories too.
func (s *Service) Categories(ctx context.Context) ([]CategoryInfo, error) {
	all, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.RoomCategory]int, len(categories))
	for _, r := range all {
		counts[r.Category]++
	}

	out := make([]CategoryInfo, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryInfo{Category: c, Rooms: counts[c]})
	}
	return out, nil
}

// CheckAvailability reports whether the room is free for the requested hours.
func (s *Service) CheckAvailability(ctx context.Context, roomID string, q AvailabilityQuery) (*Availability, error) {
	start, err := time.Parse(time.RFC3339, q.StartTime)
	if err != nil || q.Hours < 1 {
		return nil, ErrInvalidQuery
	}

	room, err := s.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	end := interval.EndTime(start, q.Hours)
	return &Availability{
		RoomID:    room.ID,
		StartTime: start,
		EndTime:   end,
		Available: room.IsBookable() && room.AcceptsDuration(q.Hours) && s.bookings.IsAvailable(room.ID, start, end),
	}, nil
}

func validCategory(c domain.RoomCategory) bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}
