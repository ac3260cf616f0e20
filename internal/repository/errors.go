package repository

import (
	"errors"
	"fmt"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrDuplicateCode = errors.New("order code already exists")
	ErrStaleState    = errors.New("order state changed concurrently")
	ErrEventNotFound = errors.New("outbox event not found")
)

// DomainError maps storage errors onto the domain taxonomy.
// Anything unrecognised is reported as retryable storage unavailability.
func DomainError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrOrderNotFound):
		return domain.ErrOrderNotFound
	case errors.Is(err, ErrStaleState):
		return fmt.Errorf("%w: order was modified by another request", domain.ErrInvalidTransition)
	case errors.Is(err, domain.ErrStorageUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
}
