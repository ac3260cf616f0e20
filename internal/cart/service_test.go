package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/cart/cache"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/cart/repository"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/catalog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	m     sync.RWMutex
	cart  *domain.Cart
	err   error
	gets  atomic.Int32
	delay time.Duration
}

func (m *mockRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.gets.Add(1)
	time.Sleep(m.delay)
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	c := *m.cart
	c.Items = append([]domain.CartItem(nil), m.cart.Items...)
	return &c, nil
}

func (m *mockRepository) AddItem(_ context.Context, userID string, item domain.CartItem) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		m.cart = &domain.Cart{UserID: userID}
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == item.ProductID {
			if m.cart.Items[i].Quantity+item.Quantity > domain.MaxCartItemQuantity {
				return repository.ErrQuantityLimit
			}
			m.cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	m.cart.Items = append(m.cart.Items, item)
	return nil
}

func (m *mockRepository) UpdateItemQuantity(_ context.Context, _ string, productID string, quantity int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.cart.Items {
		if m.cart.Items[i].ProductID == productID {
			m.cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrItemNotFound
}

func (m *mockRepository) RemoveItem(_ context.Context, _ string, productID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, item := range m.cart.Items {
		if item.ProductID == productID {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockRepository) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	m.cart = nil
	return nil
}

type mockCache struct {
	m        sync.RWMutex
	cart     *domain.Cart
	err      error
	deletes  int
	setDelay time.Duration
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	time.Sleep(m.setDelay)
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return nil
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	m.deletes++
	return nil
}

func (m *mockCache) cached() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

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

func (m *mockCatalog) GetOwningSeller(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func (m *mockCatalog) ListProductIDsBySeller(context.Context, string) ([]string, error) {
	return nil, errors.New("not used")
}

func newCatalog() *mockCatalog {
	return &mockCatalog{products: map[string]*domain.Product{
		"P1": {ID: "P1", Name: "Udang Vaname", Price: decimal.NewFromInt(18000), SellerID: "seller-a"},
		"P2": {ID: "P2", Name: "Kepiting Bakau", Price: decimal.NewFromInt(180000), SellerID: "seller-b"},
	}}
}

func TestGetCart_FromCache(t *testing.T) {
	repo := &mockRepository{}
	c := &mockCache{cart: &domain.Cart{UserID: "user-andi", Items: []domain.CartItem{{ProductID: "P1", Quantity: 1}}}}
	s := NewCartService(repo, c, newCatalog())

	got, err := s.GetCart(context.Background(), "user-andi")
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
	assert.Equal(t, int32(0), repo.gets.Load())
}

func TestGetCart_MissFillsCache(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{UserID: "user-andi", Items: []domain.CartItem{{ProductID: "P1", Quantity: 2}}}}
	c := &mockCache{}
	s := NewCartService(repo, c, newCatalog())

	got, err := s.GetCart(context.Background(), "user-andi")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Items[0].Quantity)

	require.Eventually(t, func() bool { return c.cached() != nil }, time.Second, 10*time.Millisecond)
}

func TestGetCart_MissingCartIsEmpty(t *testing.T) {
	s := NewCartService(&mockRepository{}, &mockCache{}, newCatalog())

	got, err := s.GetCart(context.Background(), "guest-abc123")
	require.NoError(t, err)
	assert.Equal(t, "guest-abc123", got.UserID)
	assert.True(t, got.IsEmpty())
}

func TestGetCart_CacheErrorFallsBackToRepo(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{UserID: "user-andi"}}
	s := NewCartService(repo, &mockCache{err: errors.New("redis down")}, newCatalog())

	_, err := s.GetCart(context.Background(), "user-andi")
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.gets.Load())
}

func TestGetCart_SingleflightCollapsesConcurrentMisses(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{UserID: "user-andi"}, delay: 50 * time.Millisecond}
	s := NewCartService(repo, &mockCache{}, newCatalog())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.GetCart(context.Background(), "user-andi")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Less(t, repo.gets.Load(), int32(10))
}

func TestGetPricedCart_KeepsUnknownProductsAtZero(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{UserID: "user-andi", Items: []domain.CartItem{
		{ProductID: "P1", Quantity: 2},
		{ProductID: "GONE", Quantity: 3},
	}}}
	s := NewCartService(repo, &mockCache{}, newCatalog())

	priced, err := s.GetPricedCart(context.Background(), "user-andi")
	require.NoError(t, err)
	require.Len(t, priced.Lines, 2)
	assert.True(t, decimal.NewFromInt(36000).Equal(priced.Lines[0].Subtotal))
	assert.True(t, priced.Lines[0].Available)
	assert.False(t, priced.Lines[1].Available)
	assert.True(t, priced.Lines[1].Subtotal.IsZero())
	assert.True(t, decimal.NewFromInt(36000).Equal(priced.ItemsTotal))
}

func TestAddItem_ValidatesAndInvalidatesCache(t *testing.T) {
	repo := &mockRepository{}
	c := &mockCache{}
	s := NewCartService(repo, c, newCatalog())
	ctx := context.Background()

	assert.ErrorIs(t, s.AddItem(ctx, "user-andi", "P1", 0), domain.ErrValidation)
	assert.ErrorIs(t, s.AddItem(ctx, "user-andi", " ", 1), domain.ErrValidation)
	assert.ErrorIs(t, s.AddItem(ctx, "user-andi", "P9", 1), catalog.ErrProductNotFound)

	require.NoError(t, s.AddItem(ctx, "user-andi", "P1", 2))
	require.NoError(t, s.AddItem(ctx, "user-andi", "P1", 1))
	assert.Equal(t, 3, repo.cart.Items[0].Quantity)
	assert.Equal(t, 2, c.deletes)
}

func TestUpdateQuantity_ZeroRemoves(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{UserID: "user-andi", Items: []domain.CartItem{{ProductID: "P1", Quantity: 2}}}}
	s := NewCartService(repo, &mockCache{}, newCatalog())
	ctx := context.Background()

	require.NoError(t, s.UpdateQuantity(ctx, "user-andi", "P1", 5))
	assert.Equal(t, 5, repo.cart.Items[0].Quantity)

	assert.ErrorIs(t, s.UpdateQuantity(ctx, "user-andi", "P1", -1), domain.ErrValidation)

	require.NoError(t, s.UpdateQuantity(ctx, "user-andi", "P1", 0))
	assert.Empty(t, repo.cart.Items)
}

func TestClearCart_MissingCartIsNoop(t *testing.T) {
	s := NewCartService(&mockRepository{}, &mockCache{}, newCatalog())
	assert.NoError(t, s.ClearCart(context.Background(), "guest-abc123"))

	failing := NewCartService(&mockRepository{err: errors.New("mongo down")}, &mockCache{}, newCatalog())
	assert.Error(t, failing.ClearCart(context.Background(), "guest-abc123"))
}

func TestClearCart_SlowCacheFillDoesNotResurrectCart(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{UserID: "user-andi", Items: []domain.CartItem{{ProductID: "P1", Quantity: 2}}}}
	c := &mockCache{setDelay: 50 * time.Millisecond}
	s := NewCartService(repo, c, newCatalog())
	ctx := context.Background()

	got, err := s.GetCart(ctx, "user-andi")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	require.NoError(t, s.ClearCart(ctx, "user-andi"))
	time.Sleep(150 * time.Millisecond)

	assert.Nil(t, c.cached())
	got, err = s.GetCart(ctx, "user-andi")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestGetCart_FillAfterInvalidationIsSkipped(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{UserID: "user-andi", Items: []domain.CartItem{{ProductID: "P1", Quantity: 2}}}}
	c := &mockCache{}
	s := NewCartService(repo, c, newCatalog())
	ctx := context.Background()

	gen := s.generation("user-andi").Load()
	s.invalidateCache(ctx, "user-andi")
	s.fillCache(ctx, "user-andi", repo.cart, gen)
	assert.Nil(t, c.cached())

	s.fillCache(ctx, "user-andi", repo.cart, s.generation("user-andi").Load())
	assert.NotNil(t, c.cached())
}

func TestGetPricedCart_CatalogFailureIsRetryable(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{UserID: "user-andi", Items: []domain.CartItem{{ProductID: "P1", Quantity: 1}}}}
	cat := newCatalog()
	cat.err = errors.New("sqlite locked")
	s := NewCartService(repo, &mockCache{}, cat)

	_, err := s.GetPricedCart(context.Background(), "user-andi")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)

	err = s.AddItem(context.Background(), "user-andi", "P1", 1)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestAddItem_RepeatedAddsStopAtLineLimit(t *testing.T) {
	repo := &mockRepository{}
	s := NewCartService(repo, &mockCache{}, newCatalog())
	ctx := context.Background()

	require.NoError(t, s.AddItem(ctx, "user-andi", "P1", domain.MaxCartItemQuantity-1))
	require.NoError(t, s.AddItem(ctx, "user-andi", "P1", 1))

	err := s.AddItem(ctx, "user-andi", "P1", 1)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, domain.MaxCartItemQuantity, repo.cart.Items[0].Quantity)
}
