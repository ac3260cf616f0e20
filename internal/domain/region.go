package domain

import "github.com/shopspring/decimal"

type City struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	// ShippingCost overrides the province base cost when set.
	ShippingCost *decimal.Decimal `json:"shipping_cost,omitempty" yaml:"shipping_cost,omitempty"`
}

type Province struct {
	ID               string          `json:"id" yaml:"id"`
	Name             string          `json:"name" yaml:"name"`
	BaseShippingCost decimal.Decimal `json:"base_shipping_cost" yaml:"base_shipping_cost"`
	Cities           []City          `json:"cities" yaml:"cities"`
}
