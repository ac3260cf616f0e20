package payment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/repository/repotest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type declineAll struct{ reason string }

func (d declineAll) Charge(context.Context, *domain.Order, domain.PaymentMethod) Outcome {
	return Outcome{Reason: d.reason}
}

func seedOrder(store *repotest.Store, status domain.OrderStatus, payment domain.PaymentStatus) *domain.Order {
	now := time.Now().UTC()
	o := &domain.Order{
		ID:            uuid.New(),
		Code:          "SS-" + uuid.NewString()[:8],
		BuyerID:       "user-andi",
		Items:         []domain.OrderItem{{ProductID: "P1", ProductName: "Udang", UnitPrice: decimal.NewFromInt(18000), Quantity: 2, Subtotal: decimal.NewFromInt(36000)}},
		ItemsTotal:    decimal.NewFromInt(36000),
		ShippingCost:  decimal.NewFromInt(12000),
		GrandTotal:    decimal.NewFromInt(48000),
		Status:        status,
		PaymentStatus: payment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	store.Put(o)
	return o
}

func TestSettlePayment_Success(t *testing.T) {
	store := repotest.NewStore()
	order := seedOrder(store, domain.OrderStatusPending, domain.PaymentStatusPending)
	s := NewSettler(store, nil, nil)

	paid, err := s.SettlePayment(context.Background(), order.ID, "user-andi", domain.PaymentMethodBankTransfer)
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, domain.OrderStatusProcess, paid.Status)
	assert.Equal(t, domain.PaymentMethodBankTransfer, paid.PaymentMethod)
	assert.True(t, paid.TotalsConsistent())
	require.Len(t, store.Events, 1)
	assert.Equal(t, domain.OrderEventPaid, store.Events[0].Type)
}

func TestSettlePayment_Twice_IsIdempotent(t *testing.T) {
	store := repotest.NewStore()
	order := seedOrder(store, domain.OrderStatusPending, domain.PaymentStatusPending)
	s := NewSettler(store, nil, nil)
	ctx := context.Background()

	first, err := s.SettlePayment(ctx, order.ID, "user-andi", domain.PaymentMethodQRIS)
	require.NoError(t, err)
	writes := store.WriteCount()

	second, err := s.SettlePayment(ctx, order.ID, "user-andi", domain.PaymentMethodQRIS)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.PaymentStatus, second.PaymentStatus)
	assert.Equal(t, writes, store.WriteCount(), "second settlement must not write")
}

func TestSettlePayment_ConcurrentCallsConvergeToPaid(t *testing.T) {
	store := repotest.NewStore()
	order := seedOrder(store, domain.OrderStatusPending, domain.PaymentStatusPending)
	s := NewSettler(store, nil, nil)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.SettlePayment(context.Background(), order.ID, "user-andi", domain.PaymentMethodEWallet)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	got, err := store.GetOrderByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, got.PaymentStatus)
	assert.Len(t, store.Events, 1)
}

func TestSettlePayment_AfterSellerAccepted(t *testing.T) {
	store := repotest.NewStore()
	order := seedOrder(store, domain.OrderStatusProcess, domain.PaymentStatusPending)
	s := NewSettler(store, nil, nil)

	paid, err := s.SettlePayment(context.Background(), order.ID, "user-andi", domain.PaymentMethodCOD)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcess, paid.Status)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
}

func TestSettlePayment_NotFound(t *testing.T) {
	s := NewSettler(repotest.NewStore(), nil, nil)

	_, err := s.SettlePayment(context.Background(), uuid.New(), "", domain.PaymentMethodQRIS)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestSettlePayment_OtherBuyersOrder(t *testing.T) {
	store := repotest.NewStore()
	order := seedOrder(store, domain.OrderStatusPending, domain.PaymentStatusPending)
	s := NewSettler(store, nil, nil)

	_, err := s.SettlePayment(context.Background(), order.ID, "user-siti", domain.PaymentMethodQRIS)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Equal(t, 0, store.WriteCount())
}

func TestSettlePayment_InvalidMethod(t *testing.T) {
	store := repotest.NewStore()
	order := seedOrder(store, domain.OrderStatusPending, domain.PaymentStatusPending)
	s := NewSettler(store, nil, nil)

	_, err := s.SettlePayment(context.Background(), order.ID, "user-andi", "  ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.SettlePayment(context.Background(), order.ID, "user-andi", "bitcoin")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 0, store.WriteCount())
}

func TestSettlePayment_CancelledOrder(t *testing.T) {
	store := repotest.NewStore()
	order := seedOrder(store, domain.OrderStatusCancelled, domain.PaymentStatusPending)
	s := NewSettler(store, nil, nil)

	_, err := s.SettlePayment(context.Background(), order.ID, "user-andi", domain.PaymentMethodQRIS)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 0, store.WriteCount())
}

func TestSettlePayment_Declined(t *testing.T) {
	store := repotest.NewStore()
	order := seedOrder(store, domain.OrderStatusPending, domain.PaymentStatusPending)
	s := NewSettler(store, declineAll{reason: "insufficient balance"}, nil)
	ctx := context.Background()

	_, err := s.SettlePayment(ctx, order.ID, "user-andi", domain.PaymentMethodEWallet)
	require.ErrorIs(t, err, domain.ErrPaymentDeclined)
	assert.Contains(t, err.Error(), "insufficient balance")

	got, err := store.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, got.PaymentStatus)
	assert.Equal(t, domain.OrderStatusPending, got.Status)

	// a retry with a working gateway still goes through
	s.gateway = ApproveAll{}
	paid, err := s.SettlePayment(ctx, order.ID, "user-andi", domain.PaymentMethodEWallet)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus)
	assert.Equal(t, domain.OrderStatusProcess, paid.Status)
}

func TestCalcOutcome(t *testing.T) {
	assert.True(t, calcOutcome(0, 95).Approved)
	assert.True(t, calcOutcome(94, 95).Approved)

	declined := calcOutcome(95, 95)
	assert.False(t, declined.Approved)
	assert.Equal(t, "insufficient balance", declined.Reason)

	assert.True(t, calcOutcome(99, 100).Approved)
	assert.False(t, calcOutcome(0, 0).Approved)
}

func TestRandomGateway_UsesRoll(t *testing.T) {
	g := NewRandomGateway(50)
	g.intn = func(int) int { return 10 }
	assert.True(t, g.Charge(context.Background(), nil, domain.PaymentMethodQRIS).Approved)

	g.intn = func(int) int { return 60 }
	assert.False(t, g.Charge(context.Background(), nil, domain.PaymentMethodQRIS).Approved)
}
