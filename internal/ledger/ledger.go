package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/catalog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/metrics"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDeliveryOffset = 72 * time.Hour
	codePrefix            = "SS-"
	codeAttempts          = 3
	ownerLookupLimit      = 8
)

type Ledger struct {
	repo           repository.OrderRepository
	catalog        catalog.Catalog
	metrics        *metrics.Metrics
	deliveryOffset time.Duration
	now            func() time.Time
	newCode        func() string
}

func New(repo repository.OrderRepository, cat catalog.Catalog, m *metrics.Metrics, deliveryOffset time.Duration) *Ledger {
	if deliveryOffset <= 0 {
		deliveryOffset = DefaultDeliveryOffset
	}
	return &Ledger{
		repo:           repo,
		catalog:        cat,
		metrics:        m,
		deliveryOffset: deliveryOffset,
		now:            func() time.Time { return time.Now().UTC() },
		newCode:        newCode,
	}
}

func newCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return codePrefix + strings.ToUpper(raw[:8])
}

// CreateOrder persists an immutable order from a priced draft. Prices and names
// are taken from the draft; the catalog is not consulted again.
func (l *Ledger) CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.Order, error) {
	now := l.now()
	items := make([]domain.OrderItem, len(draft.Items))
	copy(items, draft.Items)

	order := &domain.Order{
		ID:                uuid.New(),
		BuyerID:           draft.BuyerID,
		Items:             items,
		ItemsTotal:        draft.ItemsTotal,
		ShippingCost:      draft.ShippingCost,
		GrandTotal:        draft.GrandTotal(),
		Status:            domain.OrderStatusPending,
		PaymentStatus:     domain.PaymentStatusPending,
		ShippingAddress:   draft.ShippingAddress,
		RecipientName:     draft.RecipientName,
		RecipientPhone:    draft.RecipientPhone,
		ProvinceID:        draft.ProvinceID,
		CityID:            draft.CityID,
		EstimatedDelivery: now.Add(l.deliveryOffset),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var err error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		order.Code = l.newCode()
		err = l.repo.CreateOrder(ctx, order)
		if !errors.Is(err, repository.ErrDuplicateCode) {
			break
		}
		zerolog.Ctx(ctx).Warn().Str("code", order.Code).Msg("order code collision, regenerating")
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", repository.DomainError(err))
	}

	l.metrics.OrderCreated()
	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("code", order.Code).
		Str("buyer_id", order.BuyerID).
		Str("grand_total", order.GrandTotal.String()).
		Msg("order created")
	return order, nil
}

func (l *Ledger) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := l.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, repository.DomainError(err)
	}
	return order, nil
}

// GetOrderForBuyer hides orders of other buyers behind ErrOrderNotFound.
func (l *Ledger) GetOrderForBuyer(ctx context.Context, id uuid.UUID, buyerID string) (*domain.Order, error) {
	order, err := l.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (l *Ledger) ListOrdersForBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	orders, err := l.repo.ListOrdersByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list buyer orders: %w", repository.DomainError(err))
	}
	return orders, nil
}

// ListOrdersForSeller returns every order containing at least one of the seller's
// products, with each line's owning seller resolved through the catalog.
func (l *Ledger) ListOrdersForSeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	productIDs, err := l.catalog.ListProductIDsBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list seller products: %v", domain.ErrStorageUnavailable, err)
	}
	if len(productIDs) == 0 {
		return []*domain.Order{}, nil
	}

	orders, err := l.repo.ListOrdersByProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("list seller orders: %w", repository.DomainError(err))
	}

	owners, err := l.resolveOwners(ctx, orders)
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		for i := range o.Items {
			o.Items[i].SellerID = owners[o.Items[i].ProductID]
		}
	}
	return orders, nil
}

// resolveOwners looks up the owner of every distinct product in orders.
// Products missing from the catalog map to an empty seller id.
func (l *Ledger) resolveOwners(ctx context.Context, orders []*domain.Order) (map[string]string, error) {
	distinct := make(map[string]struct{})
	for _, o := range orders {
		for _, item := range o.Items {
			distinct[item.ProductID] = struct{}{}
		}
	}

	var mu sync.Mutex
	owners := make(map[string]string, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ownerLookupLimit)
	for productID := range distinct {
		productID := productID
		g.Go(func() error {
			seller, err := l.catalog.GetOwningSeller(gctx, productID)
			if errors.Is(err, catalog.ErrProductNotFound) {
				seller, err = "", nil
			}
			if err != nil {
				return fmt.Errorf("%w: resolve owner of %s: %v", domain.ErrStorageUnavailable, productID, err)
			}
			mu.Lock()
			owners[productID] = seller
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return owners, nil
}
