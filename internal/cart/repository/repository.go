package repository

import (
	"context"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

// CartRepository is the session cart store, keyed by buyer id (user or guest).
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, item domain.CartItem) error
	UpdateItemQuantity(ctx context.Context, userID string, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID string, productID string) error
	DeleteCart(ctx context.Context, userID string) error
}
