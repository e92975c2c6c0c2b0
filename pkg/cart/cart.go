// Package cart holds the session-scoped shopping cart. A cart is a
// plain value serialized as JSON into the session store; it is never
// persisted to the relational store.
package cart

import (
	"github.com/shopspring/decimal"
)

// Item is one cart line. Price is the unit price captured when the
// product was first added and does not track later catalog changes.
type Item struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Cart keeps items in insertion order.
type Cart struct {
	Items []Item `json:"items"`
}

func New() *Cart {
	return &Cart{}
}

// Add inserts a product with the given unit price, or increments its
// quantity when already present (keeping the original price snapshot).
func (c *Cart) Add(productID uint, count int, price decimal.Decimal) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += count
			return
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: count, Price: price})
}

// Remove decrements a product's quantity, dropping the line once it
// reaches zero. Removing an absent product is a no-op.
func (c *Cart) Remove(productID uint, count int) {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		c.Items[i].Quantity -= count
		if c.Items[i].Quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		}
		return
	}
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalPrice sums unit price times quantity across all lines.
func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}
