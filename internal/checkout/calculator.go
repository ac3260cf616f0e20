package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/catalog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shopspring/decimal"
)

type ShippingResolver interface {
	ResolveShippingCost(provinceID, cityID string) (decimal.Decimal, error)
}

type UserChecker interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Calculator validates a checkout request and prices it. It never writes.
type Calculator struct {
	catalog catalog.Catalog
	regions ShippingResolver
	users   UserChecker
}

func NewCalculator(cat catalog.Catalog, regions ShippingResolver, users UserChecker) *Calculator {
	return &Calculator{catalog: cat, regions: regions, users: users}
}

func (c *Calculator) PrepareCheckout(ctx context.Context, req *domain.CheckoutRequest) (*domain.OrderDraft, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := c.checkBuyer(ctx, req.BuyerID); err != nil {
		return nil, err
	}

	shipping, err := c.regions.ResolveShippingCost(req.ProvinceID, req.CityID)
	if err != nil {
		return nil, err
	}

	draft := &domain.OrderDraft{
		BuyerID:         req.BuyerID,
		RecipientName:   strings.TrimSpace(req.RecipientName),
		RecipientPhone:  strings.TrimSpace(req.RecipientPhone),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
		ProvinceID:      req.ProvinceID,
		CityID:          req.CityID,
		Items:           make([]domain.OrderItem, 0, len(req.Items)),
		ItemsTotal:      decimal.Zero,
		ShippingCost:    shipping,
	}

	for _, line := range req.Items {
		item, err := c.priceLine(ctx, line)
		if err != nil {
			return nil, err
		}
		draft.ItemsTotal = draft.ItemsTotal.Add(item.Subtotal)
		draft.Items = append(draft.Items, item)
	}

	return draft, nil
}

// priceLine snapshots the current catalog name and price. A product that no
// longer exists is kept with zero price so the buyer still sees the line.
func (c *Calculator) priceLine(ctx context.Context, line domain.CheckoutLine) (domain.OrderItem, error) {
	item := domain.OrderItem{
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		UnitPrice: decimal.Zero,
		Subtotal:  decimal.Zero,
	}

	p, err := c.catalog.GetProduct(ctx, line.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		zerolog.Ctx(ctx).Warn().Str("product_id", line.ProductID).Msg("checkout line references unknown product, priced at zero")
		return item, nil
	}
	if err != nil {
		return item, fmt.Errorf("%w: price product %s: %v", domain.ErrStorageUnavailable, line.ProductID, err)
	}

	item.ProductName = p.Name
	item.UnitPrice = p.Price
	item.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
	return item, nil
}

func (c *Calculator) checkBuyer(ctx context.Context, buyerID string) error {
	if buyerID == "" {
		return domain.ErrUnknownBuyer
	}
	if utf8.RuneCountInString(buyerID) > domain.MaxBuyerIDLen {
		return domain.NewValidationError("buyer_id", fmt.Sprintf("must not exceed %d characters", domain.MaxBuyerIDLen))
	}
	if domain.IsGuestBuyer(buyerID) {
		if len(buyerID) == len(domain.GuestPrefix) {
			return domain.NewValidationError("buyer_id", "guest id is empty")
		}
		return nil
	}

	exists, err := c.users.UserExists(ctx, buyerID)
	if err != nil {
		return fmt.Errorf("%w: check buyer: %v", domain.ErrStorageUnavailable, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrUnknownBuyer, buyerID)
	}
	return nil
}

func validate(req *domain.CheckoutRequest) error {
	// maxLen 0 means unbounded
	required := []struct {
		field  string
		value  string
		maxLen int
	}{
		{"recipient_name", req.RecipientName, domain.MaxRecipientNameLen},
		{"recipient_phone", req.RecipientPhone, domain.MaxRecipientPhoneLen},
		{"province_id", req.ProvinceID, domain.MaxRegionIDLen},
		{"city_id", req.CityID, domain.MaxRegionIDLen},
		{"shipping_address", req.ShippingAddress, 0},
	}
	for _, r := range required {
		v := strings.TrimSpace(r.value)
		if v == "" {
			return domain.NewValidationError(r.field, "is required")
		}
		if r.maxLen > 0 && utf8.RuneCountInString(v) > r.maxLen {
			return domain.NewValidationError(r.field, fmt.Sprintf("must not exceed %d characters", r.maxLen))
		}
	}

	if len(req.Items) == 0 {
		return domain.NewValidationError("items", "cart is empty")
	}
	for i, line := range req.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return domain.NewValidationError(fmt.Sprintf("items[%d].product_id", i), "is required")
		}
		if line.Quantity < 1 {
			return domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
	}
	return nil
}
