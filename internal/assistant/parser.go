package assistant

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

var (
	productHeaderRe = regexp.MustCompile(`(?i)\*\*([^*]+)\*\*\s*\(ID:\s*([a-f0-9-]+)\)`)
	brandRe         = regexp.MustCompile(`(?i)Brand:\s*([^\n]+)`)
	priceRe         = regexp.MustCompile(`(?i)Price:\s*\$([0-9.]+)`)
	originalPriceRe = regexp.MustCompile(`(?i)originally\s*\$([0-9.]+)`)
	discountRe      = regexp.MustCompile(`(?i)([0-9.]+)%\s*off`)
	descriptionRe   = regexp.MustCompile(`(?i)Description:\s*([^\n]+)`)
)

// ParseProducts extracts product cards written as "**Title** (ID: id)"
// followed by bullet fields. Each card's fields are read from the text up to
// the next card header. Unparseable numbers are left unset; the price falls
// back to zero.
func ParseProducts(text string) []ProductSummary {
	matches := productHeaderRe.FindAllStringSubmatchIndex(text, -1)
	out := make([]ProductSummary, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		section := text[m[0]:end]

		summary := ProductSummary{
			Title: strings.TrimSpace(text[m[2]:m[3]]),
			ID:    text[m[4]:m[5]],
			Price: decimal.Zero,
		}
		if v, ok := firstNumber(priceRe, section); ok {
			summary.Price = v
		}
		if v, ok := firstNumber(originalPriceRe, section); ok {
			summary.OriginalPrice = &v
		}
		if v, ok := firstNumber(discountRe, section); ok {
			summary.DiscountPercent = &v
		}
		if s, ok := firstString(brandRe, section); ok {
			summary.Brand = &s
		}
		if s, ok := firstString(descriptionRe, section); ok {
			summary.Description = &s
		}
		out = append(out, summary)
	}
	return out
}

func firstString(re *regexp.Regexp, section string) (string, bool) {
	m := re.FindStringSubmatch(section)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// firstNumber accepts the leading numeric prefix the way a lenient float
// parse would, so "12.50." still reads as 12.50.
func firstNumber(re *regexp.Regexp, section string) (decimal.Decimal, bool) {
	m := re.FindStringSubmatch(section)
	if m == nil {
		return decimal.Zero, false
	}
	raw := m[1]
	if i := strings.Index(raw, "."); i >= 0 {
		if j := strings.Index(raw[i+1:], "."); j >= 0 {
			raw = raw[:i+1+j]
		}
	}
	raw = strings.TrimSuffix(raw, ".")
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// summariesFromProducts builds cards straight from catalog rows, used when
// the final answer no longer carries the card markup.
func summariesFromProducts(products []models.Product) []ProductSummary {
	out := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		s := ProductSummary{
			ID:    p.ID.String(),
			Title: titleOf(p),
			Price: effectivePrice(p).Round(2),
			Brand: p.Brand,
		}
		if p.DiscountPercentage.IsPositive() {
			original := p.Price
			discount := p.DiscountPercentage
			s.OriginalPrice = &original
			s.DiscountPercent = &discount
		}
		if p.Description != "" {
			desc := descriptionOf(p)
			s.Description = &desc
		}
		out = append(out, s)
	}
	return out
}
