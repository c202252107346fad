package cart

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RawLine is a stored cart line: a product and how many of it. ProductID is
// unique within one scope.
type RawLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Line is a RawLine joined with the catalog fields at read time. Lines are
// never persisted.
type Line struct {
	ProductID          string          `json:"product_id"`
	Quantity           int             `json:"quantity"`
	Title              string          `json:"title"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Thumbnail          string          `json:"thumbnail"`
	Stock              int             `json:"stock"`
}

// EffectivePrice applies the percentage discount to the unit price. It is
// never negative, even for out-of-range discounts.
func (l Line) EffectivePrice() decimal.Decimal {
	if !l.DiscountPercentage.IsPositive() {
		return l.Price
	}
	factor := decimal.NewFromInt(1).Sub(l.DiscountPercentage.Div(hundred))
	price := l.Price.Mul(factor)
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// Subtotal is EffectivePrice times Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is derived from its lines and recomputed on every change.
type Cart struct {
	Lines          []Line          `json:"items"`
	TotalItemCount int             `json:"totalItems"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
}

// NewCart computes totals from lines.
func NewCart(lines []Line) Cart {
	if lines == nil {
		lines = []Line{}
	}
	c := Cart{Lines: lines, TotalPrice: decimal.Zero}
	for _, line := range lines {
		c.TotalItemCount += line.Quantity
		c.TotalPrice = c.TotalPrice.Add(line.Subtotal())
	}
	return c
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
