package catalog

import (
	"context"
	"errors"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Catalog is the read-only product lookup the order subsystem depends on.
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	GetOwningSeller(ctx context.Context, productID string) (string, error)
	ListProductIDsBySeller(ctx context.Context, sellerID string) ([]string, error)
}
