// Package cart holds the in-memory line item collection behind the shopping cart.
package cart

import (
	"pisos_storefront/internal/models"

	"github.com/shopspring/decimal"
)

// Cart is an ordered collection of line items with at most one entry per
// product ID and every quantity >= 1. The zero value is an empty cart.
type Cart struct {
	items []models.CartItem
}

// New builds a cart from stored items, dropping duplicates and repairing
// quantities so the invariants hold.
func New(items []models.CartItem) *Cart {
	c := &Cart{}
	for _, it := range items {
		if c.index(it.ID) >= 0 {
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		c.items = append(c.items, it)
	}
	return c
}

func (c *Cart) index(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Add merges item into the cart. An existing entry gains exactly one unit,
// whatever quantity the caller passed; a new entry is appended as given.
func (c *Cart) Add(item models.CartItem) {
	if i := c.index(item.ID); i >= 0 {
		c.items[i].Quantity++
		return
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	c.items = append(c.items, item)
}

// Remove deletes the entry for id. Absent ids are ignored.
func (c *Cart) Remove(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
}

func (c *Cart) Increase(id string) {
	if i := c.index(id); i >= 0 {
		c.items[i].Quantity++
	}
}

// Decrease lowers the quantity by one, never below 1.
func (c *Cart) Decrease(id string) {
	if i := c.index(id); i >= 0 && c.items[i].Quantity > 1 {
		c.items[i].Quantity--
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []models.CartItem {
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Get(id string) (models.CartItem, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return models.CartItem{}, false
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Count is the total number of units, shown on the navbar badge.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the sum of price * quantity rounded to 2 decimals.
func (c *Cart) Subtotal() decimal.Decimal {
	return Round2(Sum(c.items))
}

// Sum adds up the line totals without rounding.
func Sum(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Format renders d with exactly 2 decimals, e.g. "115.50".
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
