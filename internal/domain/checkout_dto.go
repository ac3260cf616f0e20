package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// GuestPrefix marks buyer ids that belong to unauthenticated guest sessions.
const GuestPrefix = "guest-"

func IsGuestBuyer(buyerID string) bool {
	return strings.HasPrefix(buyerID, GuestPrefix)
}

type CheckoutLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	BuyerID         string         `json:"-"`
	RecipientName   string         `json:"recipient_name"`
	RecipientPhone  string         `json:"recipient_phone"`
	ShippingAddress string         `json:"shipping_address"`
	ProvinceID      string         `json:"province_id"`
	CityID          string         `json:"city_id"`
	Items           []CheckoutLine `json:"items"`
}

// OrderDraft is a fully priced checkout that has not been persisted yet.
type OrderDraft struct {
	BuyerID         string
	RecipientName   string
	RecipientPhone  string
	ShippingAddress string
	ProvinceID      string
	CityID          string
	Items           []OrderItem
	ItemsTotal      decimal.Decimal
	ShippingCost    decimal.Decimal
}

func (d *OrderDraft) GrandTotal() decimal.Decimal {
	return d.ItemsTotal.Add(d.ShippingCost)
}
