package domain

import "time"

type RoomCategory string

const (
	RoomGaming   RoomCategory = "gaming"
	RoomThinking RoomCategory = "thinking"
	RoomWorking  RoomCategory = "working"
)

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomMaintenance RoomStatus = "maintenance"
)

// Room is read by the booking core for pricing and duration limits; the catalog owns it.
type Room struct {
	ID          string       `json:"id"`
	Name        string       `json:"name" validate:"required"`
	Description string       `json:"description,omitempty"`
	Category    RoomCategory `json:"category" validate:"required,oneof=gaming thinking working"`
	Capacity    int          `json:"capacity" validate:"required,gt=0"`
	HourlyRate  float64      `json:"hourly_rate" validate:"gte=0"`
	MinHours    int          `json:"min_hours" validate:"gte=1"`
	MaxHours    int          `json:"max_hours" validate:"gte=0"`
	Status      RoomStatus   `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (r Room) IsBookable() bool {
	return r.Status == RoomAvailable
}

// AcceptsDuration checks hours against the room limits. MaxHours == 0 means unbounded.
func (r Room) AcceptsDuration(hours int) bool {
	if hours < r.MinHours {
		return false
	}
	return r.MaxHours == 0 || hours <= r.MaxHours
}
