package booking

import (
	"time"

	"spacerental/internal/domain"
	"spacerental/internal/pkg/interval"
)

// isAvailable reports whether [start,end) is free in roomID. Only pending and
// active bookings hold a room; excludeID skips the booking being extended.
func isAvailable(bookings []domain.Booking, roomID string, start, end time.Time, excludeID string) bool {
	for i := range bookings {
		b := &bookings[i]
		if b.RoomID != roomID || b.ID == excludeID || !b.Status.HoldsRoom() {
			continue
		}
		if interval.Overlaps(b.StartTime, b.EndTime, start, end) {
			return false
		}
	}
	return true
}
