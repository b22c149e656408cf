// Package checkout turns the cart and a freight selection into the payload
// handed to the payment step.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/cart"
	"pisos_storefront/internal/config"
	"pisos_storefront/internal/models"

	"go.uber.org/zap"
)

const (
	DefaultDescription = "Produto sem descrição"
	DefaultCategoryID  = "default"

	// PaymentPath is where the client goes next to pay.
	PaymentPath = "/api/payment"
)

var (
	ErrMissingShippingSelection = errors.New("no freight option selected")
	ErrInvalidFreight           = errors.New("freight option has a negative price")
	ErrEmptyCart                = errors.New("cart is empty")
	ErrFreightUnavailable       = errors.New("freight calculation failed")
)

// BuildPayload assembles the checkout payload. It fails without a freight
// option and has no side effects. An option with no id or name counts as
// not selected.
func BuildPayload(items []models.CartItem, freight *models.FreightOption, userID string) (models.CheckoutPayload, error) {
	if freight == nil || freight.ID == "" || freight.Name == "" {
		return models.CheckoutPayload{}, ErrMissingShippingSelection
	}
	if freight.Price.IsNegative() {
		return models.CheckoutPayload{}, ErrInvalidFreight
	}
	if len(items) == 0 {
		return models.CheckoutPayload{}, ErrEmptyCart
	}

	total := cart.Round2(cart.Sum(items).Add(freight.Price))

	out := make([]models.CheckoutItem, 0, len(items))
	for _, it := range items {
		desc := it.Description
		if desc == "" {
			desc = DefaultDescription
		}
		cat := it.CategoryID
		if cat == "" {
			cat = DefaultCategoryID
		}
		out = append(out, models.CheckoutItem{
			ProductID:   it.ID,
			Title:       it.Name,
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
			Description: desc,
			CategoryID:  cat,
		})
	}

	selected := *freight
	return models.CheckoutPayload{
		Amount:     total,
		TotalPrice: cart.Format(total),
		Items:      out,
		UserID:     userID,
		Freight:    &selected,
	}, nil
}

// Storage is the session storage the payload and freight quotes live in.
type Storage interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, v any) error
}

type ShippingCalculator interface {
	CalculateShipping(ctx context.Context, req models.ShippingRequest) ([]models.FreightOption, error)
}

type Orchestrator struct {
	shipping ShippingCalculator
	box      config.ShippingConfig
	log      *zap.Logger
}

func NewOrchestrator(shipping ShippingCalculator, box config.ShippingConfig, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{shipping: shipping, box: box, log: log}
}

// Handoff tells the client where the payment step lives.
type Handoff struct {
	Payload models.CheckoutPayload `json:"payload"`
	Next    string                 `json:"next"`
}

// Submit builds the payload and overwrites any previous one in storage.
// The cart itself is left untouched.
func (o *Orchestrator) Submit(ctx context.Context, storage Storage, c *cart.Cart, freight *models.FreightOption, userID string) (Handoff, error) {
	payload, err := BuildPayload(c.Items(), freight, userID)
	if err != nil {
		return Handoff{}, err
	}
	if err := storage.SetJSON(ctx, cache.KeyCheckout, payload); err != nil {
		return Handoff{}, fmt.Errorf("persist checkout payload: %w", err)
	}

	o.log.Info("checkout payload stored",
		zap.String("user_id", userID),
		zap.String("total_price", payload.TotalPrice),
		zap.Int("items", len(payload.Items)),
		zap.String("freight", freight.Name))

	return Handoff{Payload: payload, Next: PaymentPath}, nil
}
