package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spacerental/internal/domain"
	"spacerental/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRoomReader struct {
	mock.Mock
}

func (m *MockRoomReader) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Room), args.Error(1)
}

func (m *MockRoomReader) List(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

type availabilityFunc func(roomID string, start, end time.Time) bool

func (f availabilityFunc) IsAvailable(roomID string, start, end time.Time) bool {
	return f(roomID, start, end)
}

func alwaysFree() AvailabilityChecker {
	return availabilityFunc(func(string, time.Time, time.Time) bool { return true })
}

func sampleRooms() []domain.Room {
	return []domain.Room{
		{ID: "room-a", Name: "Arcade", Category: domain.RoomGaming, HourlyRate: 15, MinHours: 1, MaxHours: 4, Status: domain.RoomAvailable},
		{ID: "room-q", Name: "Quiet", Category: domain.RoomThinking, HourlyRate: 8, MinHours: 1, Status: domain.RoomMaintenance},
		{ID: "room-d", Name: "Desk", Category: domain.RoomWorking, HourlyRate: 5, MinHours: 1, Status: domain.RoomAvailable},
	}
}

func TestListRooms(t *testing.T) {
	rooms := new(MockRoomReader)
	rooms.On("List", mock.Anything).Return(sampleRooms(), nil)
	svc := NewService(rooms, alwaysFree())
	ctx := context.Background()

	all, err := svc.ListRooms(ctx, ListRoomsQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	gaming, err := svc.ListRooms(ctx, ListRoomsQuery{Category: "Gaming"})
	require.NoError(t, err)
	require.Len(t, gaming, 1)
	assert.Equal(t, "room-a", gaming[0].ID)

	open, err := svc.ListRooms(ctx, ListRoomsQuery{Available: true})
	require.NoError(t, err)
	assert.Len(t, open, 2)

	_, err = svc.ListRooms(ctx, ListRoomsQuery{Category: "sleeping"})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestCategories(t *testing.T) {
	rooms := new(MockRoomReader)
	rooms.On("List", mock.Anything).Return(sampleRooms()[:2], nil)

	cats, err := NewService(rooms, alwaysFree()).Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []CategoryInfo{
		{Category: domain.RoomGaming, Rooms: 1},
		{Category: domain.RoomThinking, Rooms: 1},
		{Category: domain.RoomWorking, Rooms: 0},
	}, cats)
}

func TestCheckAvailability(t *testing.T) {
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	room := sampleRooms()[0]

	rooms := new(MockRoomReader)
	rooms.On("GetByID", mock.Anything, "room-a").Return(&room, nil)
	rooms.On("GetByID", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

	var gotStart, gotEnd time.Time
	busy := availabilityFunc(func(_ string, s, e time.Time) bool {
		gotStart, gotEnd = s, e
		return false
	})
	svc := NewService(rooms, busy)
	ctx := context.Background()

	res, err := svc.CheckAvailability(ctx, "room-a", AvailabilityQuery{StartTime: start.Format(time.RFC3339), Hours: 2})
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, start, gotStart)
	assert.Equal(t, start.Add(2*time.Hour), gotEnd)

	_, err = svc.CheckAvailability(ctx, "missing", AvailabilityQuery{StartTime: start.Format(time.RFC3339), Hours: 1})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = svc.CheckAvailability(ctx, "room-a", AvailabilityQuery{StartTime: "tomorrow", Hours: 1})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	free := NewService(rooms, alwaysFree())
	res, err = free.CheckAvailability(ctx, "room-a", AvailabilityQuery{StartTime: start.Format(time.RFC3339), Hours: 5})
	require.NoError(t, err)
	assert.False(t, res.Available, "room allows at most 4 hours")
}

func TestHandler_Rooms(t *testing.T) {
	gin.SetMode(gin.TestMode)
	room := sampleRooms()[0]

	rooms := new(MockRoomReader)
	rooms.On("List", mock.Anything).Return(nil, errors.New("db down"))
	rooms.On("GetByID", mock.Anything, "room-a").Return(&room, nil)
	rooms.On("GetByID", mock.Anything, "nope").Return(nil, repository.ErrNotFound)

	router := gin.New()
	NewHandler(NewService(rooms, alwaysFree())).RegisterRoutes(router.Group("/api/v1"))

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/api/v1/rooms/room-a", http.StatusOK, `"hourly_rate":15`},
		{"/api/v1/rooms/nope", http.StatusNotFound, "ROOM_NOT_FOUND"},
		{"/api/v1/rooms", http.StatusInternalServerError, "SERVER_ERROR"},
		{"/api/v1/rooms/room-a/availability?start_time=2025-03-10T10:00:00Z&hours=2", http.StatusOK, `"available":true`},
		{"/api/v1/rooms/room-a/availability?hours=2", http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.code, w.Code, tt.path)
		assert.Contains(t, w.Body.String(), tt.body, tt.path)
	}
}
