package booking

import (
	"time"

	"spacerental/internal/domain"
	"spacerental/internal/pkg/interval"
	"spacerental/internal/pkg/pricing"
)

type OccupancyStats struct {
	RoomID        string    `json:"room_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	TotalBookings int       `json:"total_bookings"`
	TotalHours    int       `json:"total_hours"`
	TotalRevenue  float64   `json:"total_revenue"`
	OccupancyRate float64   `json:"occupancy_rate"`
}

// computeOccupancy aggregates realized (active or completed) bookings that lie
// entirely inside [start,end].
func computeOccupancy(bookings []domain.Booking, roomID string, start, end time.Time) (OccupancyStats, error) {
	if !end.After(start) {
		return OccupancyStats{}, ErrInvalidRange
	}

	stats := OccupancyStats{RoomID: roomID, StartDate: start, EndDate: end}
	for i := range bookings {
		b := &bookings[i]
		if b.RoomID != roomID {
			continue
		}
		if b.Status != domain.BookingActive && b.Status != domain.BookingCompleted {
			continue
		}
		if b.StartTime.Before(start) || b.EndTime.After(end) {
			continue
		}
		stats.TotalBookings++
		stats.TotalHours += b.Duration
		stats.TotalRevenue += b.TotalPrice
	}

	stats.TotalRevenue = pricing.RoundCents(stats.TotalRevenue)
	stats.OccupancyRate = float64(stats.TotalHours) / (24 * interval.DaysBetween(start, end))
	return stats, nil
}
