package helpers

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// ShippingPolicy charges Fee unless the cart total reaches FreeThreshold.
type ShippingPolicy struct {
	FreeThreshold decimal.Decimal
	Fee           decimal.Decimal
}

// Totals is the money side of an order, rounded to cents.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals applies the shipping policy to the cart's derived total.
// The threshold is checked against the exact total; only the persisted
// amounts are rounded.
func ComputeTotals(c cart.Cart, policy ShippingPolicy) Totals {
	shipping := policy.Fee
	if c.TotalPrice.GreaterThanOrEqual(policy.FreeThreshold) {
		shipping = decimal.Zero
	}
	subtotal := c.TotalPrice.Round(2)
	shipping = shipping.Round(2)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
	}
}

// SnapshotItems copies the cart lines into the immutable order item shape.
func SnapshotItems(lines []cart.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ProductID:          line.ProductID,
			Title:              line.Title,
			Quantity:           line.Quantity,
			Price:              line.Price,
			DiscountPercentage: line.DiscountPercentage,
		})
	}
	return items
}
