package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/metrics"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/repository"
)

// Settler marks orders as paid. It never talks to a real payment network.
type Settler struct {
	repo    repository.OrderRepository
	gateway Gateway
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSettler(repo repository.OrderRepository, gateway Gateway, m *metrics.Metrics) *Settler {
	if gateway == nil {
		gateway = ApproveAll{}
	}
	return &Settler{
		repo:    repo,
		gateway: gateway,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SettlePayment sets paymentStatus=paid and status=process in one conditional write.
// An order that is already paid is returned unchanged.
func (s *Settler) SettlePayment(ctx context.Context, orderID uuid.UUID, buyerID string, method domain.PaymentMethod) (*domain.Order, error) {
	method = domain.PaymentMethod(strings.TrimSpace(string(method)))
	if method == "" {
		return nil, domain.NewValidationError("payment_method", "is required")
	}
	if !method.IsSupported() {
		return nil, domain.NewValidationError("payment_method", fmt.Sprintf("%q is not supported", method))
	}

	order, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, repository.DomainError(err)
	}
	if buyerID != "" && order.BuyerID != buyerID {
		return nil, domain.ErrOrderNotFound
	}

	log := zerolog.Ctx(ctx).With().Str("order_id", orderID.String()).Str("method", string(method)).Logger()

	if order.IsPaid() {
		s.metrics.Settlement("already_paid")
		log.Debug().Msg("order already paid, skipping settlement")
		return order, nil
	}
	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusProcess {
		s.metrics.TransitionRejected("invalid_transition")
		return nil, fmt.Errorf("%w: cannot pay an order in status %s", domain.ErrInvalidTransition, order.Status)
	}

	outcome := s.gateway.Charge(ctx, order, method)
	if !outcome.Approved {
		return nil, s.decline(ctx, order, method, outcome.Reason)
	}

	paid, err := s.repo.ApplyTransition(ctx, domain.Transition{
		OrderID:               order.ID,
		ExpectedStatus:        order.Status,
		ExpectedPaymentStatus: order.PaymentStatus,
		Status:                domain.OrderStatusProcess,
		PaymentStatus:         domain.PaymentStatusPaid,
		PaymentMethod:         method,
		Event:                 domain.OrderEventPaid,
		Actor:                 order.BuyerID,
		At:                    s.now(),
	})
	if errors.Is(err, repository.ErrStaleState) {
		// a concurrent settlement may have won; that is the same end state
		current, getErr := s.repo.GetOrderByID(ctx, orderID)
		if getErr == nil && current.IsPaid() {
			s.metrics.Settlement("already_paid")
			return current, nil
		}
	}
	if err != nil {
		s.metrics.TransitionRejected("stale_state")
		return nil, fmt.Errorf("settle payment: %w", repository.DomainError(err))
	}

	s.metrics.Settlement("paid")
	s.metrics.TransitionApplied(string(domain.OrderStatusProcess))
	log.Info().Str("code", paid.Code).Msg("payment settled")
	return paid, nil
}

func (s *Settler) decline(ctx context.Context, order *domain.Order, method domain.PaymentMethod, reason string) error {
	s.metrics.Settlement("declined")
	zerolog.Ctx(ctx).Warn().Str("order_id", order.ID.String()).Str("reason", reason).Msg("payment declined")

	if order.PaymentStatus != domain.PaymentStatusFailed {
		_, err := s.repo.ApplyTransition(ctx, domain.Transition{
			OrderID:               order.ID,
			ExpectedStatus:        order.Status,
			ExpectedPaymentStatus: order.PaymentStatus,
			Status:                order.Status,
			PaymentStatus:         domain.PaymentStatusFailed,
			PaymentMethod:         method,
			Event:                 domain.OrderEventPaymentFailed,
			Actor:                 order.BuyerID,
			At:                    s.now(),
		})
		if err != nil {
			return fmt.Errorf("record declined payment: %w", repository.DomainError(err))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, reason)
}
