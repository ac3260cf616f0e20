package domain

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusProcess   OrderStatus = "process"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusProcess, OrderStatusCancelled},
	OrderStatusProcess: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusCompleted},
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
// Statuses only move forward, one step at a time.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcess, OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentMethod is what the buyer picked at the payment step.
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodQRIS         PaymentMethod = "qris"
)

func (m PaymentMethod) IsSupported() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodEWallet, PaymentMethodCOD, PaymentMethodQRIS:
		return true
	}
	return false
}
