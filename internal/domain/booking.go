package domain

import (
	"slices"
	"time"

	"spacerental/internal/pkg/pricing"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingActive, BookingCancelled},
	BookingActive:    {BookingCompleted},
	BookingCompleted: {},
	BookingCancelled: {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	return slices.Contains(bookingTransitions[s], target)
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

// HoldsRoom reports whether a booking in this status still reserves its interval.
func (s BookingStatus) HoldsRoom() bool {
	return s == BookingPending || s == BookingActive
}

// LineItem is a service or product attached to a booking.
type LineItem struct {
	ItemID   string  `json:"item_id" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

func (li LineItem) Subtotal() float64 {
	return li.Price * float64(li.Quantity)
}

func SumLineItems(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Subtotal()
	}
	return total
}

type Booking struct {
	ID            string        `json:"id"`
	UserID        int64         `json:"user_id"`
	RoomID        string        `json:"room_id"`
	Status        BookingStatus `json:"status"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Duration      int           `json:"duration"`
	Services      []LineItem    `json:"services"`
	Products      []LineItem    `json:"products"`
	BasePrice     float64       `json:"base_price"`
	ServicesTotal float64       `json:"services_total"`
	ProductsTotal float64       `json:"products_total"`
	TotalPrice    float64       `json:"total_price"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Recalculate derives the item totals and TotalPrice from BasePrice and the line items.
func (b *Booking) Recalculate() {
	b.ServicesTotal = pricing.RoundCents(SumLineItems(b.Services))
	b.ProductsTotal = pricing.RoundCents(SumLineItems(b.Products))
	b.TotalPrice = pricing.RoundCents(b.BasePrice + b.ServicesTotal + b.ProductsTotal)
}

// Clone returns a copy that shares no line item storage with b.
func (b Booking) Clone() Booking {
	b.Services = cloneItems(b.Services)
	b.Products = cloneItems(b.Products)
	return b
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return []LineItem{}
	}
	return slices.Clone(items)
}
