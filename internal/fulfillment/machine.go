package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/catalog"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/metrics"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/repository"
)

// Machine moves orders through pending -> process -> shipped -> completed,
// with cancellation allowed before shipment. Every step is a conditional write.
type Machine struct {
	repo    repository.OrderRepository
	catalog catalog.Catalog
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewMachine(repo repository.OrderRepository, cat catalog.Catalog, m *metrics.Metrics) *Machine {
	return &Machine{
		repo:    repo,
		catalog: cat,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Machine) Accept(ctx context.Context, orderID uuid.UUID, sellerID string) (*domain.Order, error) {
	order, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := m.checkOwner(ctx, order, sellerID); err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusPending {
		return nil, m.rejectTransition(order.Status, domain.OrderStatusProcess)
	}
	return m.apply(ctx, order, domain.OrderStatusProcess, order.PaymentStatus, "", domain.OrderEventAccepted, sellerID)
}

func (m *Machine) Ship(ctx context.Context, orderID uuid.UUID, sellerID, trackingNumber string) (*domain.Order, error) {
	order, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := m.checkOwner(ctx, order, sellerID); err != nil {
		return nil, err
	}

	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		m.metrics.TransitionRejected("missing_tracking_number")
		return nil, domain.ErrMissingTrackingNumber
	}
	if utf8.RuneCountInString(trackingNumber) > domain.MaxTrackingNumberLen {
		m.metrics.TransitionRejected("validation")
		return nil, domain.NewValidationError("tracking_number", fmt.Sprintf("must not exceed %d characters", domain.MaxTrackingNumberLen))
	}

	if order.Status != domain.OrderStatusProcess {
		return nil, m.rejectTransition(order.Status, domain.OrderStatusShipped)
	}
	return m.apply(ctx, order, domain.OrderStatusShipped, order.PaymentStatus, trackingNumber, domain.OrderEventShipped, sellerID)
}

// Complete closes a shipped order. The buyer confirming receipt or the owning seller may do it.
func (m *Machine) Complete(ctx context.Context, orderID uuid.UUID, actor domain.Actor) (*domain.Order, error) {
	order, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := m.authorize(ctx, order, actor); err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusShipped {
		return nil, m.rejectTransition(order.Status, domain.OrderStatusCompleted)
	}
	return m.apply(ctx, order, domain.OrderStatusCompleted, order.PaymentStatus, "", domain.OrderEventCompleted, actor.ID)
}

// Cancel stops an order before shipment. Buyers can only cancel while the seller
// has not accepted yet. A paid order is marked refunded.
func (m *Machine) Cancel(ctx context.Context, orderID uuid.UUID, actor domain.Actor) (*domain.Order, error) {
	order, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := m.authorize(ctx, order, actor); err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(domain.OrderStatusCancelled) {
		return nil, m.rejectTransition(order.Status, domain.OrderStatusCancelled)
	}
	if actor.Role == domain.RoleBuyer && order.Status != domain.OrderStatusPending {
		m.metrics.TransitionRejected("invalid_transition")
		return nil, fmt.Errorf("%w: buyer can only cancel a pending order", domain.ErrInvalidTransition)
	}

	payment := order.PaymentStatus
	if payment == domain.PaymentStatusPaid {
		payment = domain.PaymentStatusRefunded
	}
	return m.apply(ctx, order, domain.OrderStatusCancelled, payment, "", domain.OrderEventCancelled, actor.ID)
}

func (m *Machine) load(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := m.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, repository.DomainError(err)
	}
	return order, nil
}

func (m *Machine) authorize(ctx context.Context, order *domain.Order, actor domain.Actor) error {
	switch actor.Role {
	case domain.RoleBuyer:
		if order.BuyerID != actor.ID {
			// do not reveal other buyers' orders
			return domain.ErrOrderNotFound
		}
		return nil
	case domain.RoleSeller:
		return m.checkOwner(ctx, order, actor.ID)
	default:
		return domain.ErrNotOwner
	}
}

// checkOwner requires every line still present in the catalog to belong to sellerID,
// and at least one line to do so.
func (m *Machine) checkOwner(ctx context.Context, order *domain.Order, sellerID string) error {
	owned := 0
	for _, item := range order.Items {
		owner, err := m.catalog.GetOwningSeller(ctx, item.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: resolve owner of %s: %v", domain.ErrStorageUnavailable, item.ProductID, err)
		}
		if owner != sellerID {
			m.metrics.TransitionRejected("not_owner")
			return domain.ErrNotOwner
		}
		owned++
	}
	if owned == 0 {
		m.metrics.TransitionRejected("not_owner")
		return domain.ErrNotOwner
	}
	return nil
}

func (m *Machine) rejectTransition(from, to domain.OrderStatus) error {
	m.metrics.TransitionRejected("invalid_transition")
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}

func (m *Machine) apply(ctx context.Context, order *domain.Order, next domain.OrderStatus, payment domain.PaymentStatus,
	trackingNumber string, event domain.OrderEventType, actorID string) (*domain.Order, error) {
	updated, err := m.repo.ApplyTransition(ctx, domain.Transition{
		OrderID:               order.ID,
		ExpectedStatus:        order.Status,
		ExpectedPaymentStatus: order.PaymentStatus,
		Status:                next,
		PaymentStatus:         payment,
		TrackingNumber:        trackingNumber,
		Event:                 event,
		Actor:                 actorID,
		At:                    m.now(),
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			m.metrics.TransitionRejected("stale_state")
		}
		return nil, repository.DomainError(err)
	}

	m.metrics.TransitionApplied(string(next))
	zerolog.Ctx(ctx).Info().
		Str("order_id", order.ID.String()).
		Str("from", order.Status.String()).
		Str("to", next.String()).
		Str("actor", actorID).
		Msg("order transitioned")
	return updated, nil
}
