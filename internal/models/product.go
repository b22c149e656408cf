package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	Images      []string        `json:"images"`
	Stock       int             `json:"stock"`
	// BoxArea is the square meters covered by one box.
	BoxArea decimal.Decimal `json:"box_area,omitempty"`
}

var ErrInvalidProduct = errors.New("invalid product record")

func (p Product) Validate() error {
	if p.ID == "" || p.Name == "" || p.Price.IsNegative() {
		return ErrInvalidProduct
	}
	return nil
}

// FirstImage returns the cover image or "" when the product has none.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type ProductPage struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	TotalPages int       `json:"totalPages"`
}

type Banner struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Image string `json:"image"`
	Link  string `json:"link,omitempty"`
}
