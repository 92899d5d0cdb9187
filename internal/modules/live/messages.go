package live

import "spacerental/internal/events"

const (
	MessageBookingEvent = "booking_event"
	MessagePong         = "pong"
	MessageError        = "error"
)

type ClientMessage struct {
	Type string `json:"type"`
}

type ServerMessage struct {
	Type         string               `json:"type"`
	Event        *events.BookingEvent `json:"event,omitempty"`
	ErrorCode    string               `json:"code,omitempty"`
	ErrorMessage string               `json:"message,omitempty"`
}
