package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation = errors.New("validation error")

	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomNotAvailable = errors.New("room not available")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrNotCancellable   = errors.New("booking cannot be cancelled")
	ErrNotExtendable    = errors.New("booking cannot be extended")
	ErrNotModifiable    = errors.New("booking items cannot be modified")
	ErrMissingParams    = errors.New("missing parameters")
	ErrInvalidRange     = errors.New("invalid date range")

	ErrStoreClosed = errors.New("booking store closed")
)

var declined = []error{
	ErrRoomNotFound,
	ErrRoomNotAvailable,
	ErrBookingNotFound,
	ErrNotCancellable,
	ErrNotExtendable,
	ErrNotModifiable,
	ErrMissingParams,
	ErrInvalidRange,
}

// IsDeclined reports whether err is a business-rule refusal rather than a failure.
func IsDeclined(err error) bool {
	for _, d := range declined {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}

// ValidationError lists the offending fields with the rule each one broke.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, rule string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: rule}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for field, rule := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, rule))
	}
	sort.Strings(parts)
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
