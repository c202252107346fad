package assistant

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

const descriptionPreview = 150

var hundred = decimal.NewFromInt(100)

func effectivePrice(p models.Product) decimal.Decimal {
	if !p.DiscountPercentage.IsPositive() {
		return p.Price
	}
	price := p.Price.Mul(decimal.NewFromInt(1).Sub(p.DiscountPercentage.Div(hundred)))
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

func titleOf(p models.Product) string {
	if p.Title == "" {
		return "Unknown Product"
	}
	return p.Title
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func descriptionOf(p models.Product) string {
	if p.Description == "" {
		return "No description available"
	}
	runes := []rune(p.Description)
	if len(runes) > descriptionPreview {
		runes = runes[:descriptionPreview]
	}
	return string(runes) + "..."
}

func renderSearch(products []models.Product) string {
	blocks := make([]string, 0, len(products))
	for _, p := range products {
		var b strings.Builder
		fmt.Fprintf(&b, "**%s** (ID: %s)\n", titleOf(p), p.ID)
		fmt.Fprintf(&b, "- Category: %s\n", orNA(p.Category))
		fmt.Fprintf(&b, "- Brand: %s\n", orNA(deref(p.Brand)))
		fmt.Fprintf(&b, "- Price: $%s", p.Price.String())
		if p.DiscountPercentage.IsPositive() {
			fmt.Fprintf(&b, " (%s%% off - Now $%s)", p.DiscountPercentage.String(), effectivePrice(p).StringFixed(2))
		}
		fmt.Fprintf(&b, "\n- Description: %s", descriptionOf(p))
		blocks = append(blocks, b.String())
	}
	return fmt.Sprintf("Found %d product(s):\n\n%s", len(products), strings.Join(blocks, "\n\n"))
}

func renderCompareBlock(p models.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (ID: %s)\n", titleOf(p), p.ID)
	fmt.Fprintf(&b, "- Category: %s\n", orNA(p.Category))
	fmt.Fprintf(&b, "- Brand: %s\n", orNA(deref(p.Brand)))
	fmt.Fprintf(&b, "- Price: $%s", effectivePrice(p).StringFixed(2))
	if p.DiscountPercentage.IsPositive() {
		fmt.Fprintf(&b, " (%s%% off, originally $%s)", p.DiscountPercentage.String(), p.Price.String())
	}
	fmt.Fprintf(&b, "\n- Stock: %d units\n", p.Stock)
	fmt.Fprintf(&b, "- Description: %s\n", descriptionOf(p))
	if w := deref(p.WarrantyInformation); w != "" {
		fmt.Fprintf(&b, "- Warranty: %s", w)
	}
	return b.String()
}

func renderComparison(a, b models.Product) string {
	priceA, priceB := effectivePrice(a), effectivePrice(b)

	var priceLine string
	switch priceA.Cmp(priceB) {
	case -1:
		priceLine = fmt.Sprintf("%s is cheaper ($%s vs $%s)", titleOf(a), priceA.StringFixed(2), priceB.StringFixed(2))
	case 1:
		priceLine = fmt.Sprintf("%s is cheaper ($%s vs $%s)", titleOf(b), priceB.StringFixed(2), priceA.StringFixed(2))
	default:
		priceLine = "Same price"
	}

	var out strings.Builder
	out.WriteString("Here's a comparison of the two products:\n\n")
	out.WriteString(renderCompareBlock(a))
	out.WriteString("\n\n")
	out.WriteString(renderCompareBlock(b))
	out.WriteString("\n\n**Key Differences:**\n")
	fmt.Fprintf(&out, "- Price: %s\n", priceLine)
	fmt.Fprintf(&out, "- Availability: %s (%d units) vs %s (%d units)\n", titleOf(a), a.Stock, titleOf(b), b.Stock)
	return out.String()
}
