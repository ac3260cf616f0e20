// Package repotest provides an in-memory OrderRepository for service tests.
// It mirrors the conditional-update semantics of the postgres repository.
package repotest

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/shafadisyaaulia/seasnacky-sub000/internal/repository"
)

type Store struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
	codes  map[string]struct{}
	users  map[string]struct{}

	Events      []domain.OrderEvent
	Writes      int
	FailWith    error
	UserLookups int
}

var (
	_ repository.OrderRepository = (*Store)(nil)
	_ repository.UserRepository  = (*Store)(nil)
)

func NewStore(userIDs ...string) *Store {
	s := &Store{
		orders: make(map[uuid.UUID]*domain.Order),
		codes:  make(map[string]struct{}),
		users:  make(map[string]struct{}),
	}
	for _, id := range userIDs {
		s.users[id] = struct{}{}
	}
	return s
}

func (s *Store) CreateOrder(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.codes[order.Code]; ok {
		return repository.ErrDuplicateCode
	}
	s.codes[order.Code] = struct{}{}
	s.orders[order.ID] = clone(order)
	s.Writes++
	s.Events = append(s.Events, eventFor(order, domain.OrderEventCreated, order.BuyerID))
	return nil
}

// Put stores an order as-is, bypassing events and write counters.
func (s *Store) Put(order *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = clone(order)
	s.codes[order.Code] = struct{}{}
}

func (s *Store) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return clone(o), nil
}

func (s *Store) ListOrdersByBuyer(_ context.Context, buyerID string) ([]*domain.Order, error) {
	return s.list(func(o *domain.Order) bool { return o.BuyerID == buyerID })
}

func (s *Store) ListOrdersByProducts(_ context.Context, productIDs []string) ([]*domain.Order, error) {
	wanted := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	return s.list(func(o *domain.Order) bool {
		for _, item := range o.Items {
			if _, ok := wanted[item.ProductID]; ok {
				return true
			}
		}
		return false
	})
}

func (s *Store) list(match func(*domain.Order) bool) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var out []*domain.Order
	for _, o := range s.orders {
		if match(o) {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ApplyTransition(_ context.Context, t domain.Transition) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	o, ok := s.orders[t.OrderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if o.Status != t.ExpectedStatus || o.PaymentStatus != t.ExpectedPaymentStatus {
		return nil, repository.ErrStaleState
	}

	o.Status = t.Status
	o.PaymentStatus = t.PaymentStatus
	if t.PaymentMethod != "" {
		o.PaymentMethod = t.PaymentMethod
	}
	if o.TrackingNumber == "" {
		o.TrackingNumber = t.TrackingNumber
	}
	o.UpdatedAt = t.At
	s.Writes++
	if t.Event != "" {
		s.Events = append(s.Events, eventFor(o, t.Event, t.Actor))
	}
	return clone(o), nil
}

func (s *Store) UserExists(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UserLookups++
	if s.FailWith != nil {
		return false, s.FailWith
	}
	_, ok := s.users[userID]
	return ok, nil
}

func (s *Store) WriteCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Writes
}

func clone(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}

func eventFor(o *domain.Order, t domain.OrderEventType, actor string) domain.OrderEvent {
	return domain.OrderEvent{
		OrderID:        o.ID,
		Code:           o.Code,
		Type:           t,
		BuyerID:        o.BuyerID,
		Actor:          actor,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		TrackingNumber: o.TrackingNumber,
		OccurredAt:     o.UpdatedAt,
	}
}
