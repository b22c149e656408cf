package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"pisos_storefront/internal/cart"
	"pisos_storefront/internal/models"

	"go.uber.org/zap"
)

var ErrInvalidCEP = errors.New("CEP must have 8 digits")

// NormalizeCEP strips punctuation from a Brazilian postal code.
func NormalizeCEP(cep string) (string, error) {
	var b strings.Builder
	for _, r := range cep {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		} else if r != '-' && r != '.' && !unicode.IsSpace(r) {
			return "", ErrInvalidCEP
		}
	}
	if b.Len() != 8 {
		return "", ErrInvalidCEP
	}
	return b.String(), nil
}

// PackageFor sizes the shipment: boxes stack, so height and weight scale
// with the number of boxes in the cart.
func (o *Orchestrator) PackageFor(cepDestino string, c *cart.Cart) models.ShippingRequest {
	boxes := float64(c.Count())
	if boxes < 1 {
		boxes = 1
	}
	return models.ShippingRequest{
		CepOrigem:  o.box.CepOrigem,
		CepDestino: cepDestino,
		Height:     o.box.Height * boxes,
		Width:      o.box.Width,
		Length:     o.box.Length,
		Weight:     o.box.Weight * boxes,
	}
}

// QuoteFreight asks the shipping-rate service for options. Failures are
// reported as ErrFreightUnavailable and never retried.
func (o *Orchestrator) QuoteFreight(ctx context.Context, cep string, c *cart.Cart) ([]models.FreightOption, error) {
	dest, err := NormalizeCEP(cep)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	opts, err := o.shipping.CalculateShipping(ctx, o.PackageFor(dest, c))
	if err != nil {
		o.log.Warn("freight quote failed", zap.String("cep", dest), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrFreightUnavailable, err)
	}
	return opts, nil
}
