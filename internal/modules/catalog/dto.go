package catalog

import (
	"time"

	"spacerental/internal/domain"
)

type ListRoomsQuery struct {
	Category  string `form:"category"`
	// Available limits the listing to rooms that can currently be booked.
	Available bool `form:"available"`
}

type AvailabilityQuery struct {
	StartTime string `form:"start_time"`
	Hours     int    `form:"hours"`
}

type Availability struct {
	RoomID    string    `json:"room_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

type CategoryInfo struct {
	Category domain.RoomCategory `json:"category"`
	Rooms    int                 `json:"rooms"`
}
