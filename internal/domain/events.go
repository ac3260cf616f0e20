package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "OrderCreated"
	OrderEventPaid          OrderEventType = "OrderPaid"
	OrderEventPaymentFailed OrderEventType = "OrderPaymentFailed"
	OrderEventAccepted      OrderEventType = "OrderAccepted"
	OrderEventShipped       OrderEventType = "OrderShipped"
	OrderEventCompleted     OrderEventType = "OrderCompleted"
	OrderEventCancelled     OrderEventType = "OrderCancelled"
)

// OrderEvent is the payload written to the outbox and relayed to Kafka.
type OrderEvent struct {
	OrderID        uuid.UUID      `json:"order_id"`
	Code           string         `json:"code"`
	Type           OrderEventType `json:"type"`
	BuyerID        string         `json:"buyer_id"`
	Actor          string         `json:"actor,omitempty"`
	Status         OrderStatus    `json:"status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	TrackingNumber string         `json:"tracking_number,omitempty"`
	OccurredAt     time.Time      `json:"occurred_at"`
}
