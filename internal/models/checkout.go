package models

import "github.com/shopspring/decimal"

// CheckoutItem is one item record handed to the payment step.
type CheckoutItem struct {
	ProductID   string          `json:"productId"`
	Title       string          `json:"title"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
}

// CheckoutPayload is written once per checkout, read and cleared by the payment step.
type CheckoutPayload struct {
	Amount     decimal.Decimal `json:"amount"`
	TotalPrice string          `json:"totalPrice"`
	Items      []CheckoutItem  `json:"items"`
	UserID     string          `json:"userId"`
	Freight    *FreightOption  `json:"freight,omitempty"`
}
