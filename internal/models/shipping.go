package models

import "github.com/shopspring/decimal"

// FreightOption is a priced shipping method returned by the shipping-rate service.
type FreightOption struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	DeliveryTime int             `json:"delivery_time"`
}

// ShippingRequest is the body of POST /shipping/calculate.
type ShippingRequest struct {
	CepOrigem  string  `json:"cepOrigem"`
	CepDestino string  `json:"cepDestino"`
	Height     float64 `json:"height"`
	Width      float64 `json:"width"`
	Length     float64 `json:"length"`
	Weight     float64 `json:"weight"`
}
