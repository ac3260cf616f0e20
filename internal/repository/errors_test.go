package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	assert.NoError(t, DomainError(nil))
	assert.ErrorIs(t, DomainError(ErrOrderNotFound), domain.ErrOrderNotFound)
	assert.ErrorIs(t, DomainError(fmt.Errorf("wrapped: %w", ErrStaleState)), domain.ErrInvalidTransition)

	err := DomainError(errors.New("connection refused"))
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}
