package booking

import (
	"context"

	"spacerental/internal/domain"
	"spacerental/internal/events"
)

// DurableStore loads and atomically overwrites the full booking collection.
type DurableStore interface {
	Load(ctx context.Context) ([]domain.Booking, error)
	Save(ctx context.Context, bookings []domain.Booking) error
}

// RoomCatalog returns repository.ErrNotFound for unknown rooms.
type RoomCatalog interface {
	GetByID(ctx context.Context, id string) (*domain.Room, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.BookingEvent)
}
