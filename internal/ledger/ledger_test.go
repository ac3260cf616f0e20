package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/catalog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/repository"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/repository/repotest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	products map[string]*domain.Product
	err      error
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalog) GetOwningSeller(ctx context.Context, id string) (string, error) {
	p, err := m.GetProduct(ctx, id)
	if err != nil {
		return "", err
	}
	return p.SellerID, nil
}

func (m *mockCatalog) ListProductIDsBySeller(_ context.Context, sellerID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var ids []string
	for id, p := range m.products {
		if p.SellerID == sellerID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func newCatalog() *mockCatalog {
	return &mockCatalog{products: map[string]*domain.Product{
		"P1": {ID: "P1", Name: "Udang Vaname", Price: decimal.NewFromInt(18000), SellerID: "seller-a"},
		"P2": {ID: "P2", Name: "Kepiting Bakau", Price: decimal.NewFromInt(180000), SellerID: "seller-b"},
		"P3": {ID: "P3", Name: "Cumi", Price: decimal.NewFromInt(72000), SellerID: "seller-a"},
	}}
}

func newDraft(buyerID string) *domain.OrderDraft {
	return &domain.OrderDraft{
		BuyerID:         buyerID,
		RecipientName:   "Andi",
		RecipientPhone:  "0812",
		ShippingAddress: "Jl. Pluit Raya 10",
		ProvinceID:      "31",
		CityID:          "3173",
		Items: []domain.OrderItem{
			{ProductID: "P1", ProductName: "Udang Vaname", UnitPrice: decimal.NewFromInt(18000), Quantity: 2, Subtotal: decimal.NewFromInt(36000)},
		},
		ItemsTotal:   decimal.NewFromInt(36000),
		ShippingCost: decimal.NewFromInt(12000),
	}
}

func newTestLedger(store *repotest.Store) *Ledger {
	l := New(store, newCatalog(), nil, 0)
	l.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }
	return l
}

func TestCreateOrder_SnapshotsDraft(t *testing.T) {
	store := repotest.NewStore()
	l := newTestLedger(store)

	order, err := l.CreateOrder(context.Background(), newDraft("user-andi"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, order.ID)
	assert.Regexp(t, `^SS-[0-9A-F]{8}$`, order.Code)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.True(t, decimal.NewFromInt(48000).Equal(order.GrandTotal))
	assert.True(t, order.TotalsConsistent())
	assert.Empty(t, order.TrackingNumber)
	assert.Equal(t, order.CreatedAt.Add(72*time.Hour), order.EstimatedDelivery)

	stored, err := store.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Code, stored.Code)
	require.Len(t, store.Events, 1)
	assert.Equal(t, domain.OrderEventCreated, store.Events[0].Type)
}

func TestCreateOrder_DraftMutationDoesNotLeak(t *testing.T) {
	l := newTestLedger(repotest.NewStore())
	draft := newDraft("user-andi")

	order, err := l.CreateOrder(context.Background(), draft)
	require.NoError(t, err)

	draft.Items[0].UnitPrice = decimal.NewFromInt(1)
	assert.True(t, decimal.NewFromInt(18000).Equal(order.Items[0].UnitPrice))
}

func TestCreateOrder_RegeneratesCodeOnCollision(t *testing.T) {
	store := repotest.NewStore()
	l := newTestLedger(store)

	codes := []string{"SS-AAAAAAAA", "SS-AAAAAAAA", "SS-BBBBBBBB"}
	l.newCode = func() string {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	first, err := l.CreateOrder(context.Background(), newDraft("user-andi"))
	require.NoError(t, err)
	assert.Equal(t, "SS-AAAAAAAA", first.Code)

	second, err := l.CreateOrder(context.Background(), newDraft("user-andi"))
	require.NoError(t, err)
	assert.Equal(t, "SS-BBBBBBBB", second.Code)
}

func TestCreateOrder_StorageFailure(t *testing.T) {
	store := repotest.NewStore()
	store.FailWith = errors.New("connection refused")
	l := newTestLedger(store)

	_, err := l.CreateOrder(context.Background(), newDraft("user-andi"))
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestGetOrder_NotFound(t *testing.T) {
	l := newTestLedger(repotest.NewStore())

	_, err := l.GetOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestGetOrderForBuyer_HidesOtherBuyers(t *testing.T) {
	l := newTestLedger(repotest.NewStore())
	order, err := l.CreateOrder(context.Background(), newDraft("user-andi"))
	require.NoError(t, err)

	_, err = l.GetOrderForBuyer(context.Background(), order.ID, "user-siti")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	got, err := l.GetOrderForBuyer(context.Background(), order.ID, "user-andi")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestListOrdersForBuyer(t *testing.T) {
	store := repotest.NewStore()
	l := newTestLedger(store)
	ctx := context.Background()

	_, err := l.CreateOrder(ctx, newDraft("guest-abc123"))
	require.NoError(t, err)
	_, err = l.CreateOrder(ctx, newDraft("user-andi"))
	require.NoError(t, err)

	orders, err := l.ListOrdersForBuyer(ctx, "guest-abc123")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "guest-abc123", orders[0].BuyerID)
}

func TestListOrdersForSeller_ResolvesLineOwners(t *testing.T) {
	store := repotest.NewStore()
	l := newTestLedger(store)
	ctx := context.Background()

	mixed := newDraft("user-andi")
	mixed.Items = append(mixed.Items,
		domain.OrderItem{ProductID: "P2", ProductName: "Kepiting Bakau", UnitPrice: decimal.NewFromInt(180000), Quantity: 1, Subtotal: decimal.NewFromInt(180000)},
		domain.OrderItem{ProductID: "GONE", ProductName: "", UnitPrice: decimal.Zero, Quantity: 1, Subtotal: decimal.Zero},
	)
	mixed.ItemsTotal = decimal.NewFromInt(216000)
	order, err := l.CreateOrder(ctx, mixed)
	require.NoError(t, err)

	onlyB := newDraft("user-siti")
	onlyB.Items = []domain.OrderItem{{ProductID: "P2", ProductName: "Kepiting Bakau", UnitPrice: decimal.NewFromInt(180000), Quantity: 1, Subtotal: decimal.NewFromInt(180000)}}
	onlyB.ItemsTotal = decimal.NewFromInt(180000)
	_, err = l.CreateOrder(ctx, onlyB)
	require.NoError(t, err)

	orders, err := l.ListOrdersForSeller(ctx, "seller-a")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)

	owners := map[string]string{}
	for _, item := range orders[0].Items {
		owners[item.ProductID] = item.SellerID
	}
	assert.Equal(t, map[string]string{"P1": "seller-a", "P2": "seller-b", "GONE": ""}, owners)

	orders, err = l.ListOrdersForSeller(ctx, "seller-b")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestListOrdersForSeller_NoProducts(t *testing.T) {
	l := newTestLedger(repotest.NewStore())

	orders, err := l.ListOrdersForSeller(context.Background(), "seller-nobody")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestListOrdersForSeller_StorageFailure(t *testing.T) {
	store := repotest.NewStore()
	store.FailWith = repository.ErrStaleState
	l := newTestLedger(store)

	_, err := l.ListOrdersForSeller(context.Background(), "seller-a")
	assert.Error(t, err)
}

func TestListOrdersForSeller_CatalogFailureIsRetryable(t *testing.T) {
	store := repotest.NewStore()
	l := newTestLedger(store)
	_, err := l.CreateOrder(context.Background(), newDraft("user-andi"))
	require.NoError(t, err)

	l.catalog = &mockCatalog{err: errors.New("sqlite locked")}

	_, err = l.ListOrdersForSeller(context.Background(), "seller-a")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.ErrorContains(t, err, "sqlite locked")
}

type ownerFailingCatalog struct {
	*mockCatalog
}

func (ownerFailingCatalog) GetOwningSeller(context.Context, string) (string, error) {
	return "", errors.New("catalog timeout")
}

func TestListOrdersForSeller_OwnerResolutionFailureIsRetryable(t *testing.T) {
	store := repotest.NewStore()
	l := newTestLedger(store)
	_, err := l.CreateOrder(context.Background(), newDraft("user-andi"))
	require.NoError(t, err)

	l.catalog = ownerFailingCatalog{newCatalog()}

	_, err = l.ListOrdersForSeller(context.Background(), "seller-a")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
