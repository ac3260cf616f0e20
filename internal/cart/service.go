package cart

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/cart/cache"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/cart/repository"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/catalog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	fillTimeout    = time.Second
	generationSlot = 64
)

type PricedLine struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Available   bool            `json:"available"`
}

type PricedCart struct {
	UserID     string          `json:"user_id"`
	Lines      []PricedLine    `json:"items"`
	ItemsTotal decimal.Decimal `json:"items_total"`
}

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog catalog.Catalog
	sfg     singleflight.Group // Prevents cache stampede

	// generations counts invalidations per user slot. A cache fill that
	// started before an invalidation must not survive it.
	generations [generationSlot]atomic.Uint64
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, cat catalog.Catalog) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: cat,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	log := zerolog.Ctx(ctx)

	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("user_id", userID).Msg("cart cache get failed")
		}

		gen := s.generation(userID).Load()
		cart, errGet := s.repo.GetCart(ctx, userID)
		if errors.Is(errGet, repository.ErrCartNotFound) {
			now := time.Now().UTC()
			return &domain.Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}, nil
		}
		if errGet != nil {
			return nil, errGet
		}

		go s.fillCache(context.WithoutCancel(ctx), userID, cart, gen)

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// GetPricedCart prices every line at the current catalog price. Lines whose
// product has disappeared stay in the cart at zero price.
func (s *CartService) GetPricedCart(ctx context.Context, userID string) (*PricedCart, error) {
	c, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	priced := &PricedCart{UserID: userID, Lines: make([]PricedLine, 0, len(c.Items)), ItemsTotal: decimal.Zero}
	for _, item := range c.Items {
		line := PricedLine{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: decimal.Zero, Subtotal: decimal.Zero}
		p, err := s.catalog.GetProduct(ctx, item.ProductID)
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
		case err != nil:
			return nil, fmt.Errorf("%w: price cart item %s: %v", domain.ErrStorageUnavailable, item.ProductID, err)
		default:
			line.ProductName = p.Name
			line.UnitPrice = p.Price
			line.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.Available = true
		}
		priced.ItemsTotal = priced.ItemsTotal.Add(line.Subtotal)
		priced.Lines = append(priced.Lines, line)
	}
	return priced, nil
}

func (s *CartService) AddItem(ctx context.Context, userID string, productID string, quantity int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.NewValidationError("product_id", "is required")
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return err
		}
		return fmt.Errorf("%w: look up product %s: %v", domain.ErrStorageUnavailable, productID, err)
	}

	err := s.repo.AddItem(ctx, userID, domain.CartItem{ProductID: productID, Quantity: quantity})
	if errors.Is(err, repository.ErrQuantityLimit) {
		return domain.NewValidationError("quantity", fmt.Sprintf("line total must not exceed %d", domain.MaxCartItemQuantity))
	}
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("repo add item failed")
		return err
	}

	s.invalidateCache(ctx, userID)
	return nil
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, productID string, quantity int) error {
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	if err := s.repo.UpdateItemQuantity(ctx, userID, productID, quantity); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("repo update item quantity failed")
		return err
	}

	s.invalidateCache(ctx, userID)
	return nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, productID string) error {
	if err := s.repo.RemoveItem(ctx, userID, productID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("repo remove item failed")
		return err
	}

	s.invalidateCache(ctx, userID)
	return nil
}

// ClearCart empties the buyer's cart. Clearing a cart that does not exist is a no-op.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		zerolog.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("repo delete cart failed")
		return err
	}

	s.invalidateCache(ctx, userID)
	return nil
}

// fillCache stores cart unless the user's cart was invalidated after gen was
// read. An invalidation racing the Set is caught by the second check and the
// stale entry is removed.
func (s *CartService) fillCache(ctx context.Context, userID string, cart *domain.Cart, gen uint64) {
	ctx, cancel := context.WithTimeout(ctx, fillTimeout)
	defer cancel()
	log := zerolog.Ctx(ctx)

	slot := s.generation(userID)
	if slot.Load() != gen {
		return
	}
	if err := s.cache.Set(ctx, userID, cart); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("cart cache set failed")
		return
	}
	if slot.Load() != gen {
		if err := s.cache.Delete(ctx, userID); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("stale cart cache entry not removed")
		}
	}
}

func (s *CartService) generation(userID string) *atomic.Uint64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.generations[h.Sum32()%generationSlot]
}

func (s *CartService) invalidateCache(ctx context.Context, userID string) {
	s.generation(userID).Add(1)
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := s.cache.Delete(cctx, userID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Msg("cart cache invalidate failed")
	}
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return domain.NewValidationError("quantity", "must be at least 1")
	}
	if quantity > domain.MaxCartItemQuantity {
		return domain.NewValidationError("quantity", fmt.Sprintf("must not exceed %d", domain.MaxCartItemQuantity))
	}
	return nil
}
