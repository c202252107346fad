package helpers

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

func cartWithTotal(price string) cart.Cart {
	return cart.NewCart([]cart.Line{{
		ProductID: "p1",
		Quantity:  1,
		Title:     "Item",
		Price:     decimal.RequireFromString(price),
	}})
}

func TestComputeTotals(t *testing.T) {
	t.Parallel()
	policy := ShippingPolicy{FreeThreshold: decimal.NewFromInt(50), Fee: decimal.NewFromInt(5)}

	cases := []struct {
		name     string
		price    string
		shipping string
		total    string
	}{
		{name: "above threshold ships free", price: "100", shipping: "0", total: "100"},
		{name: "below threshold pays fee", price: "10", shipping: "5", total: "15"},
		{name: "threshold is inclusive", price: "50", shipping: "0", total: "50"},
		{name: "sub-cent shortfall still pays fee", price: "49.999", shipping: "5", total: "55"},
		{name: "rounds to cents", price: "50.004", shipping: "0", total: "50"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(cartWithTotal(tc.price), policy)
			if !got.Shipping.Equal(decimal.RequireFromString(tc.shipping)) {
				t.Fatalf("shipping: got %s want %s", got.Shipping, tc.shipping)
			}
			if !got.Total.Equal(decimal.RequireFromString(tc.total)) {
				t.Fatalf("total: got %s want %s", got.Total, tc.total)
			}
		})
	}
}

func TestComputeTotalsDiscountedBoundary(t *testing.T) {
	t.Parallel()
	policy := ShippingPolicy{FreeThreshold: decimal.NewFromInt(50), Fee: decimal.NewFromInt(5)}
	c := cart.NewCart([]cart.Line{{
		ProductID:          "p1",
		Quantity:           1,
		Title:              "Half price",
		Price:              decimal.RequireFromString("99.99"),
		DiscountPercentage: decimal.NewFromInt(50),
	}})
	if !c.TotalPrice.Equal(decimal.RequireFromString("49.995")) {
		t.Fatalf("cart total: got %s", c.TotalPrice)
	}

	got := ComputeTotals(c, policy)
	if !got.Shipping.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("shipping: got %s want 5", got.Shipping)
	}
	if !got.Subtotal.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("subtotal: got %s want 50", got.Subtotal)
	}
	if !got.Total.Equal(decimal.NewFromInt(55)) {
		t.Fatalf("total: got %s want 55", got.Total)
	}
}

func TestSnapshotItems(t *testing.T) {
	t.Parallel()
	lines := []cart.Line{{
		ProductID:          "p1",
		Quantity:           3,
		Title:              "Tea",
		Price:              decimal.RequireFromString("4.50"),
		DiscountPercentage: decimal.RequireFromString("10"),
	}}
	items := SnapshotItems(lines)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].ProductID != "p1" || items[0].Quantity != 3 || items[0].Title != "Tea" {
		t.Fatalf("unexpected snapshot %+v", items[0])
	}
	if !items[0].DiscountPercentage.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("discount not carried: %s", items[0].DiscountPercentage)
	}
}
