// Package cache keeps buyer session carts close to the API so cart pages do
// not hit mongo on every read.
package cache

import (
	"context"
	"errors"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

// CartCache is a read-through copy of the cart store keyed by buyer id (user
// or guest). It is never the source of truth: a missing or failing entry falls
// back to the store.
type CartCache interface {
	Get(ctx context.Context, buyerID string) (*domain.Cart, error)
	Set(ctx context.Context, buyerID string, cart *domain.Cart) error
	Delete(ctx context.Context, buyerID string) error
}

// ErrCacheMiss means no cart is cached for the buyer.
var ErrCacheMiss = errors.New("cart cache miss")
