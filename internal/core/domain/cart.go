package domain

import (
	"fmt"
	"time"
)

// CartLine is one entry in the cart: a product (or synthetic item such as a
// gift card) together with the quantity being purchased.
type CartLine struct {
	ID        string   `json:"id" bson:"_id"`
	Name      string   `json:"name" bson:"name"`
	UnitPrice float64  `json:"unit_price" bson:"unit_price"`
	Images    []string `json:"images" bson:"images"`
	Quantity  int      `json:"quantity" bson:"quantity"`
}

// Cart is an ordered list of lines, unique by line ID. All operations are
// copy-on-write: they return a new slice and never mutate the receiver, so a
// snapshot handed to a background sync can never observe a later mutation.
type Cart []CartLine

// Add merges the line into the cart. If a line with the same ID already
// exists its quantity is increased by line.Quantity and every other field is
// kept as first seen; otherwise the line is appended, preserving insertion
// order. Quantities below 1 are clamped to 1.
func (c Cart) Add(line CartLine) Cart {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	out := c.Clone()
	for i := range out {
		if out[i].ID == line.ID {
			out[i].Quantity += line.Quantity
			return out
		}
	}
	return append(out, line)
}

// WithQuantity sets the quantity of the line with the given ID, clamping
// values below 1 to 1. Unknown IDs are a no-op, not an error.
func (c Cart) WithQuantity(id string, quantity int) Cart {
	if quantity < 1 {
		quantity = 1
	}
	out := c.Clone()
	for i := range out {
		if out[i].ID == id {
			out[i].Quantity = quantity
			break
		}
	}
	return out
}

// Remove filters out the line with the given ID. Unknown IDs are a no-op.
func (c Cart) Remove(id string) Cart {
	out := make(Cart, 0, len(c))
	for _, line := range c {
		if line.ID != id {
			out = append(out, line)
		}
	}
	return out
}

// Count is the total number of items: the sum of all line quantities.
func (c Cart) Count() int {
	n := 0
	for _, line := range c {
		n += line.Quantity
	}
	return n
}

// Subtotal is the sum of unit price times quantity over all lines.
func (c Cart) Subtotal() float64 {
	total := 0.0
	for _, line := range c {
		total += line.UnitPrice * float64(line.Quantity)
	}
	return total
}

// Clone returns an independent copy of the cart.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// NewGiftCardLine builds a synthetic line for a gift card purchase. The ID is
// a time-based token so repeated purchases never merge into one line.
func NewGiftCardLine(amount float64) CartLine {
	return CartLine{
		ID:        fmt.Sprintf("giftcard_%d", time.Now().UnixMilli()),
		Name:      "Gift Card",
		UnitPrice: amount,
		Images:    nil,
		Quantity:  1,
	}
}
