package pricing

import (
	"errors"
	"math"
)

var ErrInvalidState = errors.New("invalid pricing state")

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// BasePrice is the room charge for a reservation of the given length.
func BasePrice(hourlyRate float64, hours int) float64 {
	return RoundCents(hourlyRate * float64(hours))
}

// ProportionalIncrease prices additional hours at the booking's effective hourly rate,
// i.e. basePrice spread over the duration before the extension.
func ProportionalIncrease(basePrice float64, currentDuration, additionalHours int) (float64, error) {
	if currentDuration <= 0 {
		return 0, ErrInvalidState
	}
	return RoundCents(basePrice / float64(currentDuration) * float64(additionalHours)), nil
}
