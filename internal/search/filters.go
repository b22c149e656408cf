// Package search composes the storefront's listing filters into one query.
package search

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Dimension names one independently clearable filter.
type Dimension string

const (
	DimensionTerm  Dimension = "term"
	DimensionBrand Dimension = "brand"
	DimensionPrice Dimension = "price"
	DimensionAll   Dimension = "all"
)

var ErrUnknownDimension = errors.New("unknown filter dimension")

var ErrInvalidPriceRange = errors.New("min price above max price")

// Filters is the per-session filter state of the product listing.
type Filters struct {
	Term     string           `json:"term"`
	Brand    string           `json:"brand"`
	MinPrice *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice *decimal.Decimal `json:"max_price,omitempty"`
}

// Query is the combined query handed to the listing fetcher.
type Query struct {
	Text     string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Page     int
}

func (f *Filters) SetTerm(term string) {
	f.Term = strings.TrimSpace(term)
}

// SelectBrand records a brand click from the brand carousel.
func (f *Filters) SelectBrand(brand string) {
	f.Brand = strings.TrimSpace(brand)
}

// SetPriceRange sets either bound; nil leaves that bound unset.
func (f *Filters) SetPriceRange(min, max *decimal.Decimal) error {
	if min != nil && max != nil && min.GreaterThan(*max) {
		return ErrInvalidPriceRange
	}
	f.MinPrice = min
	f.MaxPrice = max
	return nil
}

func (f *Filters) ClearTerm() {
	f.Term = ""
}

func (f *Filters) ClearBrand() {
	f.Brand = ""
}

func (f *Filters) ClearPrice() {
	f.MinPrice = nil
	f.MaxPrice = nil
}

// Clear resets one dimension to its empty value.
func (f *Filters) Clear(d Dimension) error {
	switch d {
	case DimensionTerm:
		f.ClearTerm()
	case DimensionBrand:
		f.ClearBrand()
	case DimensionPrice:
		f.ClearPrice()
	case DimensionAll:
		*f = Filters{}
	default:
		return ErrUnknownDimension
	}
	return nil
}

func (f Filters) IsEmpty() bool {
	return f.Term == "" && f.Brand == "" && f.MinPrice == nil && f.MaxPrice == nil
}

// Query combines the dimensions. The brand is concatenated into the text term.
func (f Filters) Query(page int) Query {
	text := strings.TrimSpace(strings.Join(nonEmpty(f.Term, f.Brand), " "))
	if page < 1 {
		page = 1
	}
	return Query{
		Text:     text,
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		Page:     page,
	}
}

// Values renders the query string for GET /products.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Text != "" {
		v.Set("search", q.Text)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", q.MaxPrice.String())
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// Merge overlays the non-empty dimensions of o on top of f.
func (f Filters) Merge(o Filters) Filters {
	if o.Term != "" {
		f.Term = o.Term
	}
	if o.Brand != "" {
		f.Brand = o.Brand
	}
	if o.MinPrice != nil {
		f.MinPrice = o.MinPrice
	}
	if o.MaxPrice != nil {
		f.MaxPrice = o.MaxPrice
	}
	return f
}

// ParsePrice accepts "", "59.9" or "59,90". Empty input means unset.
func ParsePrice(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	if d.IsNegative() {
		return nil, errors.New("negative price")
	}
	return &d, nil
}

func nonEmpty(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
