package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrRegionNotFound        = errors.New("region not found")
	ErrUnknownBuyer          = errors.New("unknown buyer")
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrMissingTrackingNumber = errors.New("tracking number is required to ship an order")
	ErrNotOwner              = errors.New("seller does not own this order")
	ErrPaymentDeclined       = errors.New("payment declined")
	ErrStorageUnavailable    = errors.New("storage unavailable")
)

// ValidationError names the request field that failed. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
