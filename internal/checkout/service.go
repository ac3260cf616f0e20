package checkout

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.Order, error)
}

type CartStore interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type Service struct {
	calculator *Calculator
	orders     OrderCreator
	carts      CartStore
}

func NewService(calculator *Calculator, orders OrderCreator, carts CartStore) *Service {
	return &Service{calculator: calculator, orders: orders, carts: carts}
}

// Checkout turns a request into a persisted order. When the request carries no
// items the buyer's session cart is used and cleared afterwards.
// Submitting twice creates two orders.
func (s *Service) Checkout(ctx context.Context, req *domain.CheckoutRequest) (*domain.Order, error) {
	fromCart := len(req.Items) == 0 && s.carts != nil
	if fromCart {
		c, err := s.carts.GetCart(ctx, req.BuyerID)
		if err != nil {
			return nil, fmt.Errorf("%w: load cart: %v", domain.ErrStorageUnavailable, err)
		}
		req.Items = c.Lines()
	}

	draft, err := s.calculator.PrepareCheckout(ctx, req)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.CreateOrder(ctx, draft)
	if err != nil {
		return nil, err
	}

	if fromCart {
		if err := s.carts.ClearCart(ctx, req.BuyerID); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID.String()).Msg("order created but cart was not cleared")
		}
	}
	return order, nil
}
