package product

import (
	"pisos_storefront/internal/cart"
	"pisos_storefront/internal/models"

	"github.com/shopspring/decimal"
)

// CardView is one product card of the listing: the product plus the
// quantity math for the selected number of boxes.
type CardView struct {
	models.Product
	Image     string `json:"image"`
	UnitPrice string `json:"unit_price"`
	Boxes     int    `json:"boxes"`
	LineTotal string `json:"line_total"`
	// Coverage is the square meters covered by Boxes, empty when unknown.
	Coverage string `json:"coverage,omitempty"`
	InStock  bool   `json:"in_stock"`
}

func NewCardView(p models.Product, boxes int) CardView {
	if boxes < 1 {
		boxes = 1
	}
	n := decimal.NewFromInt(int64(boxes))

	v := CardView{
		Product:   p,
		Image:     p.FirstImage(),
		UnitPrice: cart.Format(p.Price),
		Boxes:     boxes,
		LineTotal: cart.Format(cart.Round2(p.Price.Mul(n))),
		InStock:   p.Stock > 0,
	}
	if p.BoxArea.IsPositive() {
		v.Coverage = cart.Format(p.BoxArea.Mul(n))
	}
	return v
}

func Cards(list []models.Product) []CardView {
	out := make([]CardView, 0, len(list))
	for _, p := range list {
		out = append(out, NewCardView(p, 1))
	}
	return out
}
