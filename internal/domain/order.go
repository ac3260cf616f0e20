package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Column widths of the orders table. Longer values are rejected as validation errors.
const (
	MaxBuyerIDLen        = 128
	MaxRecipientNameLen  = 128
	MaxRecipientPhoneLen = 32
	MaxRegionIDLen       = 16
	MaxTrackingNumberLen = 64
)

type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	// SellerID is resolved for seller listings only and never stored.
	SellerID string `json:"seller_id,omitempty"`
}

type Order struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	BuyerID           string          `json:"buyer_id"`
	Items             []OrderItem     `json:"items"`
	ItemsTotal        decimal.Decimal `json:"items_total"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	Status            OrderStatus     `json:"status"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	PaymentMethod     PaymentMethod   `json:"payment_method,omitempty"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	ShippingAddress   string          `json:"shipping_address"`
	RecipientName     string          `json:"recipient_name"`
	RecipientPhone    string          `json:"recipient_phone"`
	ProvinceID        string          `json:"province_id"`
	CityID            string          `json:"city_id"`
	EstimatedDelivery time.Time       `json:"estimated_delivery"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (o *Order) TotalsConsistent() bool {
	return o.GrandTotal.Equal(o.ItemsTotal.Add(o.ShippingCost))
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

func (o *Order) ProductIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Transition describes one conditional state change of an order.
// The change applies only while the order still has the expected status pair.
type Transition struct {
	OrderID               uuid.UUID
	ExpectedStatus        OrderStatus
	ExpectedPaymentStatus PaymentStatus
	Status                OrderStatus
	PaymentStatus         PaymentStatus
	PaymentMethod         PaymentMethod
	TrackingNumber        string
	Event                 OrderEventType
	Actor                 string
	At                    time.Time
}
