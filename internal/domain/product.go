package domain

import "github.com/shopspring/decimal"

// Product is the catalog view the order subsystem needs: name, current price and owner.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	SellerID string          `json:"seller_id"`
}
