package booking

import (
	"time"

	"spacerental/internal/domain"
)

type CreateBookingRequest struct {
	RoomID    string            `json:"room_id" validate:"required"`
	StartTime time.Time         `json:"start_time" validate:"required"`
	Hours     int               `json:"hours" validate:"required,gte=1"`
	Services  []domain.LineItem `json:"services" validate:"omitempty,dive"`
	Products  []domain.LineItem `json:"products" validate:"omitempty,dive"`
}

type ExtendBookingRequest struct {
	AdditionalHours int `json:"additional_hours" validate:"required,gte=1"`
}

type AddItemsRequest struct {
	Services []domain.LineItem `json:"services" validate:"omitempty,dive"`
	Products []domain.LineItem `json:"products" validate:"omitempty,dive"`
}

type OccupancyQuery struct {
	RoomID    string `form:"room_id"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

type ListBookingsQuery struct {
	Status string `form:"status"`
	Date   string `form:"date"`
}
