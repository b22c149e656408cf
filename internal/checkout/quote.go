package checkout

import (
	"context"
	"errors"
	"fmt"

	"pisos_storefront/internal/cache"
	"pisos_storefront/internal/cart"
	"pisos_storefront/internal/models"

	"go.uber.org/zap"
)

// ErrStaleFreight means the cart changed since the options were quoted.
var ErrStaleFreight = errors.New("freight quote does not match the cart")

// Quote is the last set of freight options offered to a session, with the
// box count they were priced for.
type Quote struct {
	CEP     string                 `json:"cep"`
	Boxes   int                    `json:"boxes"`
	Options []models.FreightOption `json:"options"`
}

// QuoteAndRemember quotes freight and keeps the options so checkout can
// only pick one of them.
func (o *Orchestrator) QuoteAndRemember(ctx context.Context, storage Storage, cep string, c *cart.Cart) ([]models.FreightOption, error) {
	opts, err := o.QuoteFreight(ctx, cep, c)
	if err != nil {
		return nil, err
	}
	dest, _ := NormalizeCEP(cep)
	q := Quote{CEP: dest, Boxes: c.Count(), Options: opts}
	if err := storage.SetJSON(ctx, cache.KeyFreight, q); err != nil {
		return nil, fmt.Errorf("persist freight quote: %w", err)
	}
	return opts, nil
}

// Select resolves the option id chosen by the client against the stored
// quote. Price and name always come from the quote.
func (o *Orchestrator) Select(ctx context.Context, storage Storage, c *cart.Cart, id string) (*models.FreightOption, error) {
	if id == "" {
		return nil, ErrMissingShippingSelection
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	var q Quote
	err := storage.GetJSON(ctx, cache.KeyFreight, &q)
	switch {
	case errors.Is(err, cache.ErrNotFound), errors.Is(err, cache.ErrDecode):
		return nil, ErrMissingShippingSelection
	case err != nil:
		return nil, err
	}

	if q.Boxes != c.Count() {
		return nil, ErrStaleFreight
	}
	for _, opt := range q.Options {
		if opt.ID == id {
			selected := opt
			return &selected, nil
		}
	}
	o.log.Warn("freight option not in quote", zap.String("freight_id", id), zap.String("cep", q.CEP))
	return nil, ErrMissingShippingSelection
}
