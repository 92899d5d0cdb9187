package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"spacerental/internal/domain"
	"spacerental/internal/events"

	"github.com/stretchr/testify/mock"
)

var errDiskFull = errors.New("disk full")

// memoryDurable keeps the last saved collection and can be told to fail.
type memoryDurable struct {
	mu     sync.Mutex
	saved  []domain.Booking
	saves  int
	failOn bool
}

func (m *memoryDurable) Load(context.Context) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Booking, len(m.saved))
	for i := range m.saved {
		out[i] = m.saved[i].Clone()
	}
	return out, nil
}

func (m *memoryDurable) Save(_ context.Context, bookings []domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn {
		return errDiskFull
	}
	m.saves++
	m.saved = make([]domain.Booking, len(bookings))
	for i := range bookings {
		m.saved[i] = bookings[i].Clone()
	}
	return nil
}

func (m *memoryDurable) setFail(v bool) {
	m.mu.Lock()
	m.failOn = v
	m.mu.Unlock()
}

func (m *memoryDurable) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type MockRoomCatalog struct {
	mock.Mock
}

func (m *MockRoomCatalog) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

// recordingPublisher captures published events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.BookingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.BookingEvent) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("book-%d", n)
	}
}

var baseTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestStore(clock *fakeClock) (*Store, *memoryDurable) {
	durable := &memoryDurable{}
	store, err := OpenStore(context.Background(), durable, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	if err != nil {
		panic(err)
	}
	return store, durable
}

func testRoom() *domain.Room {
	return &domain.Room{
		ID:         "room-1",
		Name:       "Arcade",
		Category:   domain.RoomGaming,
		Capacity:   6,
		HourlyRate: 10,
		MinHours:   1,
		MaxHours:   8,
		Status:     domain.RoomAvailable,
	}
}
