// Package events carries booking lifecycle notifications to interested consumers.
package events

import (
	"context"
	"time"

	"spacerental/internal/domain"
)

type Type string

const (
	BookingCreated       Type = "booking.created"
	BookingCancelled     Type = "booking.cancelled"
	BookingExtended      Type = "booking.extended"
	BookingItemsAdded    Type = "booking.items_added"
	BookingStatusChanged Type = "booking.status_changed"
)

type BookingEvent struct {
	Type           Type      `json:"type"`
	BookingID      string    `json:"booking_id"`
	UserID         int64     `json:"user_id"`
	RoomID         string    `json:"room_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	TotalPrice     float64   `json:"total_price"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewBookingEvent(t Type, b domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       t,
		BookingID:  b.ID,
		UserID:     b.UserID,
		RoomID:     b.RoomID,
		Status:     string(b.Status),
		StartTime:  b.StartTime.UTC().Format(time.RFC3339),
		EndTime:    b.EndTime.UTC().Format(time.RFC3339),
		TotalPrice: b.TotalPrice,
		OccurredAt: at.UTC(),
	}
}

// Publisher delivers events without blocking or failing the caller.
type Publisher interface {
	Publish(ctx context.Context, event BookingEvent)
}

type Noop struct{}

func (Noop) Publish(context.Context, BookingEvent) {}

// Multi fans an event out to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event BookingEvent) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}
