package http

import (
	"context"

	"github.com/google/uuid"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/cart"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

type CheckoutService interface {
	Checkout(ctx context.Context, req *domain.CheckoutRequest) (*domain.Order, error)
}

type OrderReader interface {
	GetOrderForBuyer(ctx context.Context, id uuid.UUID, buyerID string) (*domain.Order, error)
	ListOrdersForBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	ListOrdersForSeller(ctx context.Context, sellerID string) ([]*domain.Order, error)
}

type PaymentSettler interface {
	SettlePayment(ctx context.Context, orderID uuid.UUID, buyerID string, method domain.PaymentMethod) (*domain.Order, error)
}

type Fulfillment interface {
	Accept(ctx context.Context, orderID uuid.UUID, sellerID string) (*domain.Order, error)
	Ship(ctx context.Context, orderID uuid.UUID, sellerID, trackingNumber string) (*domain.Order, error)
	Complete(ctx context.Context, orderID uuid.UUID, actor domain.Actor) (*domain.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, actor domain.Actor) (*domain.Order, error)
}

type RegionDirectory interface {
	Provinces() []domain.Province
	ResolveShippingCost(provinceID, cityID string) (decimal.Decimal, error)
}

type CartService interface {
	GetPricedCart(ctx context.Context, userID string) (*cart.PricedCart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

type ProductLister interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
}
