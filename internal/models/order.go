package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending                   OrderStatus = "PENDING"
	StatusPaymentApproved           OrderStatus = "PAYMENT_APPROVED"
	StatusAwaitingStockConfirmation OrderStatus = "AWAITING_STOCK_CONFIRMATION"
	StatusSeparated                 OrderStatus = "SEPARATED"
	StatusDispatched                OrderStatus = "DISPATCHED"
	StatusDelivered                 OrderStatus = "DELIVERED"
)

// OrderStatuses is the fixed, ordered status pipeline.
var OrderStatuses = []OrderStatus{
	StatusPending,
	StatusPaymentApproved,
	StatusAwaitingStockConfirmation,
	StatusSeparated,
	StatusDispatched,
	StatusDelivered,
}

var statusLabels = map[OrderStatus]string{
	StatusPending:                   "Pedido recebido",
	StatusPaymentApproved:           "Pagamento aprovado",
	StatusAwaitingStockConfirmation: "Aguardando confirmação de estoque",
	StatusSeparated:                 "Separado",
	StatusDispatched:                "Enviado",
	StatusDelivered:                 "Entregue",
}

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type OrderProduct struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type Order struct {
	ID         string          `json:"id"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     OrderStatus     `json:"status"`
	Products   []OrderProduct  `json:"products"`
	CreatedAt  string          `json:"createdAt,omitempty"`
}

var ErrInvalidOrder = errors.New("invalid order record")

// Validate rejects records the order service should never send.
func (o Order) Validate() error {
	if o.ID == "" || o.TotalPrice.IsNegative() {
		return ErrInvalidOrder
	}
	return nil
}
